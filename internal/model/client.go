package model

import (
	"time"

	"github.com/google/uuid"
)

type ClientStatus string

// Client status constants
const (
	ClientStatusPending  ClientStatus = "PENDING"
	ClientStatusApproved ClientStatus = "APPROVED"
	ClientStatusRejected ClientStatus = "REJECTED"
)

// Client is a coach's eligibility record for one client email
type Client struct {
	ID        uuid.UUID    `json:"id"`
	CoachID   uuid.UUID    `json:"coach_id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

// IsApproved checks if client may book the coach's slots
func (c *Client) IsApproved() bool {
	return c.Status == ClientStatusApproved
}

// ParseClientStatus validates a status coming from a coach action
func ParseClientStatus(s string) (ClientStatus, bool) {
	switch st := ClientStatus(s); st {
	case ClientStatusPending, ClientStatusApproved, ClientStatusRejected:
		return st, true
	}
	return "", false
}
