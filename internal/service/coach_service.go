package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CoachProfile редактируемые тренером поля
type CoachProfile struct {
	Name       string `json:"name" validate:"required,max=200,singleline"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Sport      string `json:"sport" validate:"max=100,singleline"`
	TelegramID *int64 `json:"telegram_id,omitempty" validate:"omitempty,gt=0"`
}

type CoachService struct {
	coaches CoachStore
	logger  *zap.Logger
}

func NewCoachService(coaches CoachStore, logger *zap.Logger) *CoachService {
	return &CoachService{
		coaches: coaches,
		logger:  logger,
	}
}

// SaveProfile создает или обновляет профиль тренера
func (s *CoachService) SaveProfile(ctx context.Context, coachID uuid.UUID, profile CoachProfile) (*model.Coach, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = model.NormalizeEmail(profile.Email)
	profile.Sport = strings.TrimSpace(profile.Sport)

	if err := validateStruct(profile); err != nil {
		return nil, err
	}

	coach := &model.Coach{
		ID:         coachID,
		Name:       profile.Name,
		Email:      profile.Email,
		Sport:      profile.Sport,
		TelegramID: profile.TelegramID,
	}

	if err := s.coaches.Upsert(ctx, coach); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: telegram account is already linked to another coach", ErrInvalidInput)
		}
		return nil, storeError("save coach", err)
	}

	s.logger.Info("Coach profile saved", zap.String("coach_id", coachID.String()))
	return coach, nil
}

// Get профиль тренера, ErrCoachNotFound если его нет
func (s *CoachService) Get(ctx context.Context, coachID uuid.UUID) (*model.Coach, error) {
	coach, err := s.coaches.GetByID(ctx, coachID)
	if err != nil {
		return nil, storeError("get coach", err)
	}
	if coach == nil {
		return nil, ErrCoachNotFound
	}
	return coach, nil
}

// GetByTelegramID тренер, привязанный к аккаунту Telegram. nil, nil если не привязан.
func (s *CoachService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Coach, error) {
	coach, err := s.coaches.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, storeError("get coach by telegram id", err)
	}
	return coach, nil
}

func (s *CoachService) List(ctx context.Context) ([]*model.Coach, error) {
	coaches, err := s.coaches.List(ctx)
	if err != nil {
		return nil, storeError("list coaches", err)
	}
	return coaches, nil
}
