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

const coachColumns = `id, name, email, sport, telegram_id, created_at`

type CoachRepository struct {
	db *sql.DB
}

func NewCoachRepository(db *sql.DB) *CoachRepository {
	return &CoachRepository{db: db}
}

// Upsert создаёт или обновляет профиль тренера
func (r *CoachRepository) Upsert(ctx context.Context, coach *model.Coach) error {
	if coach.CreatedAt.IsZero() {
		coach.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coaches (id, name, email, sport, telegram_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name,
		    email = excluded.email,
		    sport = excluded.sport,
		    telegram_id = excluded.telegram_id
	`,
		coach.ID,
		coach.Name,
		coach.Email,
		coach.Sport,
		coach.TelegramID,
		coach.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("upsert coach: %w", err)
	}

	// при обновлении created_at остаётся прежним
	err = r.db.QueryRowContext(ctx, `SELECT created_at FROM coaches WHERE id = ?`, coach.ID).Scan(&coach.CreatedAt)
	if err != nil {
		return fmt.Errorf("read coach created_at: %w", err)
	}

	return nil
}

// GetByID получает тренера по ID
func (r *CoachRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coach, error) {
	return r.getOne(ctx, `SELECT `+coachColumns+` FROM coaches WHERE id = ?`, id)
}

// GetByTelegramID получает тренера по привязанному Telegram аккаунту
func (r *CoachRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Coach, error) {
	return r.getOne(ctx, `SELECT `+coachColumns+` FROM coaches WHERE telegram_id = ?`, telegramID)
}

func (r *CoachRepository) getOne(ctx context.Context, query string, arg any) (*model.Coach, error) {
	coach, err := scanCoach(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coach: %w", err)
	}
	return coach, nil
}

// List получает всех тренеров по имени
func (r *CoachRepository) List(ctx context.Context) ([]*model.Coach, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+coachColumns+` FROM coaches ORDER BY name`)
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

func scanCoach(row rowScanner) (*model.Coach, error) {
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
