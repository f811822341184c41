package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/metrics"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	summaryDateLayout = "Monday, January 2"
	summaryTimeLayout = "3:04 PM"
)

// PublishResult созданный слот и итог рассылки уведомлений
type PublishResult struct {
	Slot         *model.Slot   `json:"slot"`
	Notification notify.Result `json:"notification"`
	Recipients   int           `json:"recipients"`
}

// SlotPublisher создает слоты тренера и оповещает одобренных клиентов
type SlotPublisher struct {
	slots      SlotStore
	clients    ClientRegistry
	coaches    CoachStore
	dispatcher notify.Dispatcher
	baseURL    string
	location   *time.Location
	newID      func() uuid.UUID
	logger     *zap.Logger
}

func NewSlotPublisher(
	slots SlotStore,
	clients ClientRegistry,
	coaches CoachStore,
	dispatcher notify.Dispatcher,
	baseURL string,
	location *time.Location,
	logger *zap.Logger,
) *SlotPublisher {
	if location == nil {
		location = time.UTC
	}
	return &SlotPublisher{
		slots:      slots,
		clients:    clients,
		coaches:    coaches,
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   location,
		newID:      uuid.New,
		logger:     logger,
	}
}

// OpenSlot создает свободный слот и один раз вызывает рассылку по всем одобренным клиентам.
// Ошибки доставки попадают в результат и не отменяют создание слота.
func (p *SlotPublisher) OpenSlot(ctx context.Context, coachID uuid.UUID, start, end time.Time) (*PublishResult, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, ErrInvalidRange
	}

	coach, err := p.coaches.GetByID(ctx, coachID)
	if err != nil {
		return nil, storeError("get coach", err)
	}
	if coach == nil {
		return nil, ErrCoachNotFound
	}

	slot := &model.Slot{
		ID:        p.newID(),
		CoachID:   coachID,
		StartTime: start.UTC().Truncate(time.Second),
		EndTime:   end.UTC().Truncate(time.Second),
		Status:    model.SlotStatusOpen,
	}
	if !slot.StartTime.Before(slot.EndTime) {
		return nil, ErrInvalidRange
	}

	if err := p.slots.Create(ctx, slot); err != nil {
		return nil, storeError("create slot", err)
	}

	p.logger.Info("🆕 Slot opened",
		zap.String("slot_id", slot.ID.String()),
		zap.String("coach_id", coachID.String()),
		zap.Time("start", slot.StartTime),
		zap.Time("end", slot.EndTime),
	)

	result := &PublishResult{Slot: slot}

	approved, err := p.clients.ListByCoachAndStatus(ctx, coachID, model.ClientStatusApproved)
	if err != nil {
		// Слот уже создан, поэтому ошибку выборки получателей отдаем как неуспешную рассылку
		p.logger.Error("Failed to list approved clients", zap.Error(err), zap.String("slot_id", slot.ID.String()))
		result.Notification = notify.Result{
			Failed: 1,
			Errors: []notify.RecipientError{{Recipient: "*", Err: storeError("list approved clients", err)}},
		}
		metrics.AddNotifications(0, 1)
		return result, nil
	}

	if len(approved) == 0 {
		return result, nil
	}

	recipients := make([]string, 0, len(approved))
	for _, c := range approved {
		recipients = append(recipients, c.Email)
	}
	result.Recipients = len(recipients)

	result.Notification = p.dispatcher.Notify(ctx, notify.Message{
		CoachName:  coach.Name,
		Summary:    p.Summarize(slot),
		Recipients: recipients,
	})
	metrics.AddNotifications(result.Notification.Sent, result.Notification.Failed)

	p.logger.Info("📣 Slot notifications dispatched",
		zap.String("slot_id", slot.ID.String()),
		zap.Int("sent", result.Notification.Sent),
		zap.Int("failed", result.Notification.Failed),
	)

	return result, nil
}

// Summarize человекочитаемое описание слота в часовом поясе отображения
func (p *SlotPublisher) Summarize(slot *model.Slot) notify.Summary {
	start := slot.StartTime.In(p.location)
	end := slot.EndTime.In(p.location)
	return notify.Summary{
		Date:       start.Format(summaryDateLayout),
		Time:       fmt.Sprintf("%s - %s", start.Format(summaryTimeLayout), end.Format(summaryTimeLayout)),
		BookingURL: p.BookingURL(slot.ID),
	}
}

// BookingURL прямая ссылка на бронирование слота
func (p *SlotPublisher) BookingURL(slotID uuid.UUID) string {
	return fmt.Sprintf("%s/book/%s", p.baseURL, slotID)
}

// DeleteSlot удаляет свободный слот своего тренера. Забронированный слот удалить нельзя.
func (p *SlotPublisher) DeleteSlot(ctx context.Context, coachID, slotID uuid.UUID) error {
	slot, err := p.slots.GetByID(ctx, slotID)
	if err != nil {
		return storeError("get slot", err)
	}
	if slot == nil || slot.CoachID != coachID {
		return ErrSlotNotFound
	}
	if !slot.IsOpen() {
		return ErrAlreadyBooked
	}

	deleted, err := p.slots.Delete(ctx, slotID, coachID)
	if err != nil {
		return storeError("delete slot", err)
	}
	if !deleted {
		// Слот успели забронировать или удалить между чтением и удалением
		slot, err = p.slots.GetByID(ctx, slotID)
		if err != nil {
			return storeError("get slot", err)
		}
		if slot != nil && !slot.IsOpen() {
			return ErrAlreadyBooked
		}
		return ErrSlotNotFound
	}

	p.logger.Info("🗑 Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.String("coach_id", coachID.String()),
	)
	return nil
}

// GetSlot возвращает слот по ID
func (p *SlotPublisher) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := p.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, storeError("get slot", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// ListSlots слоты тренера с началом в [from, to)
func (p *SlotPublisher) ListSlots(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}

	slots, err := p.slots.ListByCoach(ctx, coachID, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeError("list slots", err)
	}
	return slots, nil
}

// WeekSlots слоты недели (с понедельника), в которую попадает day
func (p *SlotPublisher) WeekSlots(ctx context.Context, coachID uuid.UUID, day time.Time) (time.Time, []*model.Slot, error) {
	weekStart := WeekStart(day, p.location)
	slots, err := p.ListSlots(ctx, coachID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return time.Time{}, nil, err
	}
	return weekStart, slots, nil
}

// Location часовой пояс отображения
func (p *SlotPublisher) Location() *time.Location {
	return p.location
}

// WeekStart полночь понедельника недели, содержащей t, в часовом поясе loc
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
}
