package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository"
	"github.com/google/uuid"
)

const clientColumns = `id, coach_id, email, name, status, created_at, updated_at`

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create создаёт заявку клиента. Повторная заявка к тому же тренеру -> repository.ErrDuplicate
func (r *ClientRepository) Create(ctx context.Context, client *model.Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, coach_id, email, name, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		client.ID,
		client.CoachID,
		client.Email,
		client.Name,
		client.Status,
		client.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create client: %w", err)
	}

	return nil
}

// GetByID получает клиента по ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by id: %w", err)
	}

	return client, nil
}

// GetByCoachAndEmail получает запись клиента у тренера по email
func (r *ClientRepository) GetByCoachAndEmail(ctx context.Context, coachID uuid.UUID, email string) (*model.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE coach_id = ? AND email = ?`, coachID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by email: %w", err)
	}

	return client, nil
}

// UpdateStatus обновляет статус клиента. false если у тренера нет такого клиента
func (r *ClientRepository) UpdateStatus(ctx context.Context, id, coachID uuid.UUID, status model.ClientStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET status = ?, updated_at = ?
		WHERE id = ? AND coach_id = ?
	`, status, time.Now().UTC(), id, coachID)
	if err != nil {
		return false, fmt.Errorf("update client status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update client status: rows affected: %w", err)
	}

	return affected == 1, nil
}

// ListByCoachAndStatus получает клиентов тренера с заданным статусом
func (r *ClientRepository) ListByCoachAndStatus(ctx context.Context, coachID uuid.UUID, status model.ClientStatus) ([]*model.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+`
		FROM clients
		WHERE coach_id = ? AND status = ?
		ORDER BY created_at DESC
	`, coachID, status)
	if err != nil {
		return nil, fmt.Errorf("list clients by status: %w", err)
	}

	return collectClients(rows)
}

// ListByCoach получает всех клиентов тренера, новые первыми
func (r *ClientRepository) ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*model.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+`
		FROM clients
		WHERE coach_id = ?
		ORDER BY created_at DESC
	`, coachID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return collectClients(rows)
}

func collectClients(rows *sql.Rows) ([]*model.Client, error) {
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

func scanClient(row rowScanner) (*model.Client, error) {
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
