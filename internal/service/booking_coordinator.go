package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/metrics"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationState состояние слота с точки зрения конкретного клиента
type ReservationState string

const (
	ReservationOpen          ReservationState = "open"
	ReservationReservedByYou ReservationState = "reserved_by_you"
	ReservationReservedOther ReservationState = "reserved_by_other"
)

// BookingCoordinator владеет переходом слота OPEN -> RESERVED.
// Собственного состояния нет: каждое решение принимается по свежему чтению и условной записи.
type BookingCoordinator struct {
	slots  SlotStore
	gate   *EligibilityGate
	now    func() time.Time
	logger *zap.Logger
}

func NewBookingCoordinator(slots SlotStore, gate *EligibilityGate, logger *zap.Logger) *BookingCoordinator {
	return &BookingCoordinator{
		slots:  slots,
		gate:   gate,
		now:    time.Now,
		logger: logger,
	}
}

// ReserveSlot бронирует слот для клиента.
// Чтение слота и проверка допуска только отсекают заведомо неуспешные попытки,
// победителя гонки определяет условное обновление в хранилище.
func (c *BookingCoordinator) ReserveSlot(ctx context.Context, slotID uuid.UUID, claim model.Identity) (*model.Slot, error) {
	slot, err := c.reserve(ctx, slotID, claim)
	metrics.IncReservation(outcome(err))
	return slot, err
}

func (c *BookingCoordinator) reserve(ctx context.Context, slotID uuid.UUID, claim model.Identity) (*model.Slot, error) {
	claim, err := normalizeIdentity(claim)
	if err != nil {
		return nil, err
	}

	slot, err := c.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, storeError("get slot", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if !slot.IsOpen() {
		return nil, ErrAlreadyBooked
	}

	client, err := c.gate.Check(ctx, slot.CoachID, claim)
	if err != nil {
		return nil, err
	}

	at := c.now().UTC().Truncate(time.Microsecond)
	won, err := c.slots.Reserve(ctx, slot.ID, client.ID, claim.Email, at)
	if err != nil {
		return nil, storeError("reserve slot", err)
	}
	if !won {
		c.logger.Info("Lost reservation race",
			zap.String("slot_id", slot.ID.String()),
			zap.String("email", claim.Email),
		)
		return nil, ErrAlreadyBooked
	}

	slot.Status = model.SlotStatusReserved
	slot.ReservedBy = &claim.Email
	slot.ReservedByClientID = &client.ID
	slot.ReservedAt = &at

	c.logger.Info("✅ Slot reserved",
		zap.String("slot_id", slot.ID.String()),
		zap.String("coach_id", slot.CoachID.String()),
		zap.String("email", claim.Email),
	)

	return slot, nil
}

// ReservationStatus перечитывает слот, чтобы клиент с неизвестным исходом бронирования
// узнал результат без повторной записи
func (c *BookingCoordinator) ReservationStatus(ctx context.Context, slotID uuid.UUID, email string) (ReservationState, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	slot, err := c.slots.GetByID(ctx, slotID)
	if err != nil {
		return "", storeError("get slot", err)
	}
	if slot == nil {
		return "", ErrSlotNotFound
	}

	switch {
	case slot.IsOpen():
		return ReservationOpen, nil
	case slot.ReservedBy != nil && *slot.ReservedBy == email:
		return ReservationReservedByYou, nil
	default:
		return ReservationReservedOther, nil
	}
}

func outcome(err error) string {
	if err == nil {
		return "reserved"
	}
	return Describe(err).Code
}
