package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusOpen     SlotStatus = "OPEN"
	SlotStatusReserved SlotStatus = "RESERVED"
)

// Slot неделимое окно времени тренера, которое может занять один клиент
type Slot struct {
	ID                 uuid.UUID  `json:"id"`
	CoachID            uuid.UUID  `json:"coach_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Status             SlotStatus `json:"status"`
	ReservedBy         *string    `json:"reserved_by,omitempty"` // email клиента, только для RESERVED
	ReservedByClientID *uuid.UUID `json:"reserved_by_client_id,omitempty"`
	ReservedAt         *time.Time `json:"reserved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// IsOpen проверяет, свободен ли слот
func (s *Slot) IsOpen() bool {
	return s.Status == SlotStatusOpen
}

// Duration длительность слота
func (s *Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
