package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SlotRepository struct {
	db base.Querier
}

func NewSlotRepository(db base.Querier) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `bookable_slot_id, teacher_schedule_id, teacher_id, start_time, end_time, is_booked, created_at, updated_at`

// LockTeacher takes a transaction-scoped advisory lock keyed by the teacher.
// Only meaningful inside a transaction.
func (r *SlotRepository) LockTeacher(ctx context.Context, teacherID string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('bookable_slot:' || $1))`, teacherID)
	if err != nil {
		return fmt.Errorf("lock teacher slots: %w", err)
	}
	return nil
}

// ExistsFrom reports whether the teacher has any slot starting at or after from
func (r *SlotRepository) ExistsFrom(ctx context.Context, teacherID string, from time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookable_slot
			WHERE teacher_id = $1 AND start_time >= $2
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, teacherID, from).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slots exist: %w", err)
	}

	return exists, nil
}

// CreateBatch inserts slots, skipping any whose (teacher_id, start_time) already exists.
// Returns the number of rows actually inserted.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []*model.BookableSlot) (int64, error) {
	query := `
		INSERT INTO bookable_slot (bookable_slot_id, teacher_schedule_id, teacher_id, start_time, end_time, is_booked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (teacher_id, start_time) DO NOTHING
	`

	var created int64
	for _, slot := range slots {
		tag, err := r.db.Exec(
			ctx, query,
			slot.ID,
			slot.TeacherScheduleID,
			slot.TeacherID,
			slot.StartTime,
			slot.EndTime,
			slot.IsBooked,
		)
		if err != nil {
			return created, fmt.Errorf("create slot: %w", err)
		}
		created += tag.RowsAffected()
	}

	return created, nil
}

// GetByIDForUpdate returns the slot, or nil when it does not exist, holding an
// exclusive row lock until the transaction ends
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.BookableSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM bookable_slot WHERE bookable_slot_id = $1 FOR UPDATE`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// SetBooked flips is_booked
func (r *SlotRepository) SetBooked(ctx context.Context, id string, booked bool) error {
	query := `
		UPDATE bookable_slot
		SET is_booked = $1, updated_at = NOW()
		WHERE bookable_slot_id = $2
	`

	tag, err := r.db.Exec(ctx, query, booked, id)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update slot %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

// ListByTeacherFrom returns the teacher's slots starting at or after from
func (r *SlotRepository) ListByTeacherFrom(ctx context.Context, teacherID string, from time.Time) ([]*model.BookableSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM bookable_slot
		WHERE teacher_id = $1 AND start_time >= $2
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, teacherID, from)
	if err != nil {
		return nil, fmt.Errorf("get slots by teacher: %w", err)
	}
	defer rows.Close()

	var slots []*model.BookableSlot
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

func scanSlot(row pgx.Row) (*model.BookableSlot, error) {
	var slot model.BookableSlot
	err := row.Scan(
		&slot.ID,
		&slot.TeacherScheduleID,
		&slot.TeacherID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
