package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db base.Querier
}

func NewBookingRepository(db base.Querier) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking row
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO booking (booking_id, student_id, teacher_id, bookable_slot_id, lesson_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		booking.ID,
		booking.StudentID,
		booking.TeacherID,
		booking.BookableSlotID,
		booking.LessonID,
		int16(booking.Status),
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByIDForUpdate loads and row-locks the booking; nil when it does not exist
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	query := `
		SELECT b.booking_id, b.student_id, b.teacher_id, b.bookable_slot_id, b.lesson_id, b.status,
			b.created_at, b.updated_at, s.start_time, s.end_time
		FROM booking b
		JOIN bookable_slot s ON s.bookable_slot_id = b.bookable_slot_id
		WHERE b.booking_id = $1
		FOR UPDATE OF b
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}

	return booking, nil
}

// UpdateStatus sets the booking status
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	query := `
		UPDATE booking
		SET status = $1, updated_at = NOW()
		WHERE booking_id = $2
	`

	tag, err := r.db.Exec(ctx, query, int16(status), id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update booking %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

// List returns bookings matching filter, latest slot first
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("b.student_id = $%d", len(args)))
	}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conds = append(conds, fmt.Sprintf("b.teacher_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, int16(*filter.Status))
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}

	query := `
		SELECT b.booking_id, b.student_id, b.teacher_id, b.bookable_slot_id, b.lesson_id, b.status,
			b.created_at, b.updated_at, s.start_time, s.end_time
		FROM booking b
		JOIN bookable_slot s ON s.bookable_slot_id = b.bookable_slot_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.start_time DESC, b.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return scanBookings(rows)
}

// ListUpcomingByStudent returns the student's upcoming bookings with the given teacher
func (r *BookingRepository) ListUpcomingByStudent(ctx context.Context, studentID, teacherID string) ([]*model.Booking, error) {
	query := `
		SELECT b.booking_id, b.student_id, b.teacher_id, b.bookable_slot_id, b.lesson_id, b.status,
			b.created_at, b.updated_at, s.start_time, s.end_time
		FROM booking b
		JOIN bookable_slot s ON s.bookable_slot_id = b.bookable_slot_id
		WHERE b.student_id = $1 AND b.teacher_id = $2 AND b.status = $3
		ORDER BY s.start_time
	`

	rows, err := r.db.Query(ctx, query, studentID, teacherID, int16(model.BookingStatusUpcoming))
	if err != nil {
		return nil, fmt.Errorf("list upcoming bookings: %w", err)
	}

	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]*model.Booking, error) {
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b      model.Booking
		status int16
	)
	err := row.Scan(
		&b.ID,
		&b.StudentID,
		&b.TeacherID,
		&b.BookableSlotID,
		&b.LessonID,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.StartTime,
		&b.EndTime,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}
