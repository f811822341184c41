package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/google/uuid"
)

// SlotStore таблица слотов. GetByID возвращает nil, nil если слота нет.
// Reserve обязан быть атомарным compare-and-set по статусу OPEN.
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	Reserve(ctx context.Context, id uuid.UUID, clientID uuid.UUID, email string, at time.Time) (bool, error)
	Delete(ctx context.Context, id, coachID uuid.UUID) (bool, error)
	ListByCoach(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]*model.Slot, error)
	CountOpenSince(ctx context.Context, since time.Time) (int, error)
}

// ClientRegistry таблица допусков клиентов. Create возвращает repository.ErrDuplicate для повторной заявки.
type ClientRegistry interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	GetByCoachAndEmail(ctx context.Context, coachID uuid.UUID, email string) (*model.Client, error)
	UpdateStatus(ctx context.Context, id, coachID uuid.UUID, status model.ClientStatus) (bool, error)
	ListByCoachAndStatus(ctx context.Context, coachID uuid.UUID, status model.ClientStatus) ([]*model.Client, error)
	ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*model.Client, error)
}

// CoachStore справочник тренеров
type CoachStore interface {
	Upsert(ctx context.Context, coach *model.Coach) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coach, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.Coach, error)
	List(ctx context.Context) ([]*model.Coach, error)
}
