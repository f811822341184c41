package model

import (
	"time"

	"github.com/google/uuid"
)

// Coach владелец слотов. ID совпадает с subject токена внешнего сервиса авторизации
type Coach struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Sport      string    `json:"sport"`
	TelegramID *int64    `json:"telegram_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
