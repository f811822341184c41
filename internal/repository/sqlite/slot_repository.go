package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/google/uuid"
)

const slotColumns = `id, coach_id, start_time, end_time, status, reserved_by, reserved_by_client_id, reserved_at, created_at`

type SlotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO slots (id, coach_id, start_time, end_time, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.CoachID,
		slot.StartTime.UTC(),
		slot.EndTime.UTC(),
		slot.Status,
		slot.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID, nil если слота нет
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`

	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// Reserve атомарно переводит слот OPEN -> RESERVED одним UPDATE
func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID, clientID uuid.UUID, email string, at time.Time) (bool, error) {
	query := `
		UPDATE slots
		SET status = ?, reserved_by = ?, reserved_by_client_id = ?, reserved_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		model.SlotStatusReserved, email, clientID, at.UTC(), id, model.SlotStatusOpen)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve slot: rows affected: %w", err)
	}

	return affected == 1, nil
}

// Delete удаляет свободный слот тренера
func (r *SlotRepository) Delete(ctx context.Context, id, coachID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM slots WHERE id = ? AND coach_id = ? AND status = ?`,
		id, coachID, model.SlotStatusOpen)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete slot: rows affected: %w", err)
	}

	return affected == 1, nil
}

// ListByCoach получает слоты тренера с началом в [from, to)
func (r *SlotRepository) ListByCoach(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM slots
		WHERE coach_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, coachID, from.UTC(), to.UTC())
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
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots WHERE status = ? AND start_time >= ?`,
		model.SlotStatusOpen, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open slots: %w", err)
	}

	return count, nil
}

func scanSlot(row rowScanner) (*model.Slot, error) {
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
