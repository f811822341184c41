package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type slotStoreMock struct {
	mock.Mock
}

func (m *slotStoreMock) Create(ctx context.Context, slot *model.Slot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *slotStoreMock) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	args := m.Called(ctx, id)
	slot, _ := args.Get(0).(*model.Slot)
	return slot, args.Error(1)
}

func (m *slotStoreMock) Reserve(ctx context.Context, id uuid.UUID, clientID uuid.UUID, email string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, clientID, email, at)
	return args.Bool(0), args.Error(1)
}

func (m *slotStoreMock) Delete(ctx context.Context, id, coachID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, coachID)
	return args.Bool(0), args.Error(1)
}

func (m *slotStoreMock) ListByCoach(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	args := m.Called(ctx, coachID, from, to)
	slots, _ := args.Get(0).([]*model.Slot)
	return slots, args.Error(1)
}

func (m *slotStoreMock) CountOpenSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

type clientRegistryMock struct {
	mock.Mock
}

func (m *clientRegistryMock) Create(ctx context.Context, client *model.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *clientRegistryMock) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	args := m.Called(ctx, id)
	client, _ := args.Get(0).(*model.Client)
	return client, args.Error(1)
}

func (m *clientRegistryMock) GetByCoachAndEmail(ctx context.Context, coachID uuid.UUID, email string) (*model.Client, error) {
	args := m.Called(ctx, coachID, email)
	client, _ := args.Get(0).(*model.Client)
	return client, args.Error(1)
}

func (m *clientRegistryMock) UpdateStatus(ctx context.Context, id, coachID uuid.UUID, status model.ClientStatus) (bool, error) {
	args := m.Called(ctx, id, coachID, status)
	return args.Bool(0), args.Error(1)
}

func (m *clientRegistryMock) ListByCoachAndStatus(ctx context.Context, coachID uuid.UUID, status model.ClientStatus) ([]*model.Client, error) {
	args := m.Called(ctx, coachID, status)
	clients, _ := args.Get(0).([]*model.Client)
	return clients, args.Error(1)
}

func (m *clientRegistryMock) ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*model.Client, error) {
	args := m.Called(ctx, coachID)
	clients, _ := args.Get(0).([]*model.Client)
	return clients, args.Error(1)
}

type coachStoreMock struct {
	mock.Mock
}

func (m *coachStoreMock) Upsert(ctx context.Context, coach *model.Coach) error {
	return m.Called(ctx, coach).Error(0)
}

func (m *coachStoreMock) GetByID(ctx context.Context, id uuid.UUID) (*model.Coach, error) {
	args := m.Called(ctx, id)
	coach, _ := args.Get(0).(*model.Coach)
	return coach, args.Error(1)
}

func (m *coachStoreMock) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Coach, error) {
	args := m.Called(ctx, telegramID)
	coach, _ := args.Get(0).(*model.Coach)
	return coach, args.Error(1)
}

func (m *coachStoreMock) List(ctx context.Context) ([]*model.Coach, error) {
	args := m.Called(ctx)
	coaches, _ := args.Get(0).([]*model.Coach)
	return coaches, args.Error(1)
}

// recordingDispatcher запоминает сообщения и считает каждого получателя доставленным,
// кроме перечисленных в fail
type recordingDispatcher struct {
	mu       sync.Mutex
	messages []notify.Message
	attempts int
	fail     map[string]error
}

func (d *recordingDispatcher) Notify(ctx context.Context, msg notify.Message) notify.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.messages = append(d.messages, msg)

	var res notify.Result
	for _, r := range msg.Recipients {
		d.attempts++
		if err, ok := d.fail[r]; ok {
			res.Failed++
			res.Errors = append(res.Errors, notify.RecipientError{Recipient: r, Err: err})
			continue
		}
		res.Sent++
	}
	return res
}
