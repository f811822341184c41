package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, coach_id, email, name, status, created_at, updated_at`

type ClientRepository struct {
	*base.Repository
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт заявку клиента. Повторная заявка к тому же тренеру -> ErrDuplicate
func (r *ClientRepository) Create(ctx context.Context, client *model.Client) error {
	query := `
		INSERT INTO clients (id, coach_id, email, name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		client.ID,
		client.CoachID,
		client.Email,
		client.Name,
		client.Status,
	).Scan(&client.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create client: %w", err)
	}

	return nil
}

// GetByID получает клиента по ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by id: %w", err)
	}

	return client, nil
}

// GetByCoachAndEmail получает запись клиента у тренера по email
func (r *ClientRepository) GetByCoachAndEmail(ctx context.Context, coachID uuid.UUID, email string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE coach_id = $1 AND email = $2`

	client, err := scanClient(r.QueryRow(ctx, query, coachID, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by email: %w", err)
	}

	return client, nil
}

// UpdateStatus обновляет статус клиента. false если у тренера нет такого клиента
func (r *ClientRepository) UpdateStatus(ctx context.Context, id, coachID uuid.UUID, status model.ClientStatus) (bool, error) {
	query := `
		UPDATE clients
		SET status = $1, updated_at = $2
		WHERE id = $3 AND coach_id = $4
	`

	affected, err := r.ExecAffected(ctx, query, status, time.Now().UTC(), id, coachID)
	if err != nil {
		return false, fmt.Errorf("update client status: %w", err)
	}

	return affected == 1, nil
}

// ListByCoachAndStatus получает клиентов тренера с заданным статусом
func (r *ClientRepository) ListByCoachAndStatus(ctx context.Context, coachID uuid.UUID, status model.ClientStatus) ([]*model.Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE coach_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, coachID, status)
	if err != nil {
		return nil, fmt.Errorf("list clients by status: %w", err)
	}

	return collectClients(rows)
}

// ListByCoach получает всех клиентов тренера, новые первыми
func (r *ClientRepository) ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*model.Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE coach_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return collectClients(rows)
}

func collectClients(rows pgx.Rows) ([]*model.Client, error) {
	defer rows.Close()

	var clients []*model.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

func scanClient(row pgx.Row) (*model.Client, error) {
	var client model.Client
	err := row.Scan(
		&client.ID,
		&client.CoachID,
		&client.Email,
		&client.Name,
		&client.Status,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}
