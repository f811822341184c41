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

const slotColumns = `id, coach_id, start_time, end_time, status, reserved_by, reserved_by_client_id, reserved_at, created_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, coach_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.ID,
		slot.CoachID,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID, nil если слота нет
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// Reserve атомарно переводит слот OPEN -> RESERVED.
// Возвращает false, если слот уже не OPEN (или его нет).
func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID, clientID uuid.UUID, email string, at time.Time) (bool, error) {
	query := `
		UPDATE slots
		SET status = $1, reserved_by = $2, reserved_by_client_id = $3, reserved_at = $4
		WHERE id = $5 AND status = $6
	`

	affected, err := r.ExecAffected(ctx, query,
		model.SlotStatusReserved, email, clientID, at, id, model.SlotStatusOpen)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	return affected == 1, nil
}

// Delete удаляет свободный слот тренера
func (r *SlotRepository) Delete(ctx context.Context, id, coachID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM slots
		WHERE id = $1 AND coach_id = $2 AND status = $3
	`

	affected, err := r.ExecAffected(ctx, query, id, coachID, model.SlotStatusOpen)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}

	return affected == 1, nil
}

// ListByCoach получает слоты тренера с началом в [from, to)
func (r *SlotRepository) ListByCoach(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM slots
		WHERE coach_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`

	rows, err := r.Query(ctx, query, coachID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots by coach: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// CountOpenSince считает свободные слоты, которые ещё не начались
func (r *SlotRepository) CountOpenSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM slots WHERE status = $1 AND start_time >= $2`

	var count int
	if err := r.QueryRow(ctx, query, model.SlotStatusOpen, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open slots: %w", err)
	}

	return count, nil
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.CoachID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.ReservedBy,
		&slot.ReservedByClientID,
		&slot.ReservedAt,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
