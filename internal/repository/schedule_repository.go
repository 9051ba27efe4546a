package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ScheduleRepository manages teacher_schedule rows
type ScheduleRepository struct {
	db base.Querier
}

func NewScheduleRepository(db base.Querier) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `teacher_schedule_id, teacher_id, day_of_week, start_time, end_time,
	effective_from_date, effective_to_date, is_active, created_at, updated_at`

// DeleteActiveByTeacher removes every active row of the teacher
func (r *ScheduleRepository) DeleteActiveByTeacher(ctx context.Context, teacherID string) (int64, error) {
	query := `DELETE FROM teacher_schedule WHERE teacher_id = $1 AND is_active`

	tag, err := r.db.Exec(ctx, query, teacherID)
	if err != nil {
		return 0, fmt.Errorf("delete teacher schedule: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CreateBatch inserts rows one by one; call it inside a transaction
func (r *ScheduleRepository) CreateBatch(ctx context.Context, rows []*model.TeacherSchedule) error {
	query := `
		INSERT INTO teacher_schedule (teacher_schedule_id, teacher_id, day_of_week, start_time, end_time,
			effective_from_date, effective_to_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	for _, row := range rows {
		err := r.db.QueryRow(
			ctx, query,
			row.ID,
			row.TeacherID,
			int16(row.DayOfWeek),
			toPgTime(row.StartTime),
			toPgTime(row.EndTime),
			row.EffectiveFrom,
			row.EffectiveTo,
			row.IsActive,
		).Scan(&row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create teacher schedule: %w", err)
		}
	}

	return nil
}

// GetActiveByTeacher returns the teacher's active rows ordered by day, then start
func (r *ScheduleRepository) GetActiveByTeacher(ctx context.Context, teacherID string) ([]*model.TeacherSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM teacher_schedule
		WHERE teacher_id = $1 AND is_active
		ORDER BY day_of_week, start_time
	`

	rows, err := r.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher schedule: %w", err)
	}

	return scanSchedules(rows)
}

// ListActive returns all active rows, or only one teacher's when teacherID is set
func (r *ScheduleRepository) ListActive(ctx context.Context, teacherID *string) ([]*model.TeacherSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM teacher_schedule
		WHERE is_active AND ($1::text IS NULL OR teacher_id = $1)
		ORDER BY teacher_id, day_of_week, start_time
	`

	rows, err := r.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}

	return scanSchedules(rows)
}

func scanSchedules(rows pgx.Rows) ([]*model.TeacherSchedule, error) {
	defer rows.Close()

	var schedules []*model.TeacherSchedule
	for rows.Next() {
		var (
			s          model.TeacherSchedule
			day        int16
			start, end pgtype.Time
		)
		err := rows.Scan(
			&s.ID,
			&s.TeacherID,
			&day,
			&start,
			&end,
			&s.EffectiveFrom,
			&s.EffectiveTo,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan teacher schedule: %w", err)
		}
		s.DayOfWeek = model.DayOfWeek(day)
		s.StartTime = fromPgTime(start)
		s.EndTime = fromPgTime(end)
		schedules = append(schedules, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teacher schedules: %w", err)
	}

	return schedules, nil
}

func toPgTime(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) model.TimeOfDay {
	return model.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}
