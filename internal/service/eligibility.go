package service

import (
	"context"
	"strings"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EligibilityGate решает, может ли клиент бронировать слоты тренера. Только чтение.
type EligibilityGate struct {
	clients ClientRegistry
	logger  *zap.Logger
}

func NewEligibilityGate(clients ClientRegistry, logger *zap.Logger) *EligibilityGate {
	return &EligibilityGate{
		clients: clients,
		logger:  logger,
	}
}

// Check возвращает запись клиента, если он одобрен тренером и имя совпадает без учета регистра.
// Нет записи или статус не APPROVED -> ErrNotApproved, другое имя -> ErrNameMismatch.
func (g *EligibilityGate) Check(ctx context.Context, coachID uuid.UUID, claim model.Identity) (*model.Client, error) {
	claim = claim.Normalize()

	client, err := g.clients.GetByCoachAndEmail(ctx, coachID, claim.Email)
	if err != nil {
		return nil, storeError("get client", err)
	}

	if client == nil || !client.IsApproved() {
		return nil, ErrNotApproved
	}

	if !strings.EqualFold(strings.TrimSpace(client.Name), claim.Name) {
		g.logger.Debug("Name mismatch on eligibility check",
			zap.String("coach_id", coachID.String()),
			zap.String("email", claim.Email),
		)
		return nil, ErrNameMismatch
	}

	return client, nil
}
