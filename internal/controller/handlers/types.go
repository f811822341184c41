package handlers

import (
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	booking   *service.BookingCoordinator
	publisher *service.SlotPublisher
	clients   *service.ClientService
	coaches   *service.CoachService
	now       func() time.Time
	logger    *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	booking *service.BookingCoordinator,
	publisher *service.SlotPublisher,
	clients *service.ClientService,
	coaches *service.CoachService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		booking:   booking,
		publisher: publisher,
		clients:   clients,
		coaches:   coaches,
		now:       time.Now,
		logger:    logger,
	}
}
