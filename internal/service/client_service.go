package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientService заявки клиентов на занятия и решения тренера по ним
type ClientService struct {
	clients ClientRegistry
	coaches CoachStore
	newID   func() uuid.UUID
	logger  *zap.Logger
}

func NewClientService(clients ClientRegistry, coaches CoachStore, logger *zap.Logger) *ClientService {
	return &ClientService{
		clients: clients,
		coaches: coaches,
		newID:   uuid.New,
		logger:  logger,
	}
}

// RequestLessons создает заявку клиента в статусе PENDING.
// Повторная заявка на тот же email -> ErrDuplicateRequest, запись остается одна.
func (s *ClientService) RequestLessons(ctx context.Context, coachID uuid.UUID, claim model.Identity) (*model.Client, error) {
	claim, err := normalizeIdentity(claim)
	if err != nil {
		return nil, err
	}

	coach, err := s.coaches.GetByID(ctx, coachID)
	if err != nil {
		return nil, storeError("get coach", err)
	}
	if coach == nil {
		return nil, ErrCoachNotFound
	}

	client := &model.Client{
		ID:      s.newID(),
		CoachID: coachID,
		Email:   claim.Email,
		Name:    claim.Name,
		Status:  model.ClientStatusPending,
	}

	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, storeError("create client", err)
	}

	s.logger.Info("📝 Lesson request created",
		zap.String("client_id", client.ID.String()),
		zap.String("coach_id", coachID.String()),
		zap.String("email", client.Email),
	)

	return client, nil
}

// SetStatus меняет статус клиента своего тренера
func (s *ClientService) SetStatus(ctx context.Context, coachID, clientID uuid.UUID, status model.ClientStatus) (*model.Client, error) {
	if _, ok := model.ParseClientStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: unknown client status %q", ErrInvalidInput, status)
	}

	updated, err := s.clients.UpdateStatus(ctx, clientID, coachID, status)
	if err != nil {
		return nil, storeError("update client status", err)
	}
	if !updated {
		return nil, ErrClientNotFound
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, storeError("get client", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	s.logger.Info("Client status changed",
		zap.String("client_id", clientID.String()),
		zap.String("coach_id", coachID.String()),
		zap.String("status", string(status)),
	)

	return client, nil
}

// List клиенты тренера. Пустой статус означает всех.
func (s *ClientService) List(ctx context.Context, coachID uuid.UUID, status model.ClientStatus) ([]*model.Client, error) {
	var (
		clients []*model.Client
		err     error
	)

	if status == "" {
		clients, err = s.clients.ListByCoach(ctx, coachID)
	} else {
		if _, ok := model.ParseClientStatus(string(status)); !ok {
			return nil, fmt.Errorf("%w: unknown client status %q", ErrInvalidInput, status)
		}
		clients, err = s.clients.ListByCoachAndStatus(ctx, coachID, status)
	}
	if err != nil {
		return nil, storeError("list clients", err)
	}

	return clients, nil
}
