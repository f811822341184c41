package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const coachColumns = `id, name, email, sport, telegram_id, created_at`

type CoachRepository struct {
	*base.Repository
}

func NewCoachRepository(pool *pgxpool.Pool) *CoachRepository {
	return &CoachRepository{Repository: base.NewRepository(pool)}
}

// Upsert создаёт или обновляет профиль тренера
func (r *CoachRepository) Upsert(ctx context.Context, coach *model.Coach) error {
	query := `
		INSERT INTO coaches (id, name, email, sport, telegram_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    sport = EXCLUDED.sport,
		    telegram_id = EXCLUDED.telegram_id
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query,
		coach.ID,
		coach.Name,
		coach.Email,
		coach.Sport,
		coach.TelegramID,
	).Scan(&coach.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("upsert coach: %w", err)
	}

	return nil
}

// GetByID получает тренера по ID
func (r *CoachRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE id = $1`

	coach, err := scanCoach(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coach by id: %w", err)
	}

	return coach, nil
}

// GetByTelegramID получает тренера по привязанному Telegram аккаунту
func (r *CoachRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE telegram_id = $1`

	coach, err := scanCoach(r.QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coach by telegram id: %w", err)
	}

	return coach, nil
}

// List получает всех тренеров по имени
func (r *CoachRepository) List(ctx context.Context) ([]*model.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches ORDER BY name`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	defer rows.Close()

	var coaches []*model.Coach
	for rows.Next() {
		coach, err := scanCoach(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coach: %w", err)
		}
		coaches = append(coaches, coach)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coaches: %w", err)
	}

	return coaches, nil
}

func scanCoach(row pgx.Row) (*model.Coach, error) {
	var coach model.Coach
	err := row.Scan(
		&coach.ID,
		&coach.Name,
		&coach.Email,
		&coach.Sport,
		&coach.TelegramID,
		&coach.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &coach, nil
}
