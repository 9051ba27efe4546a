package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ScheduleService struct {
	schedules repository.ScheduleStore
	tx        repository.Transactor
	now       func() time.Time
	logger    *zap.Logger
}

func NewScheduleService(schedules repository.ScheduleStore, tx repository.Transactor, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		tx:        tx,
		now:       time.Now,
		logger:    logger,
	}
}

// Replace overwrites the teacher's weekly schedule as one unit.
// Exact duplicate windows within a day are dropped; overlapping ones are kept.
func (s *ScheduleService) Replace(ctx context.Context, in *model.WeeklySchedule) (err error) {
	ctx, span := tracer.Start(ctx, "ScheduleService.Replace")
	defer func() { endSpan(span, err) }()

	if err := validateSchedule(in); err != nil {
		return err
	}
	span.SetAttributes(attribute.String("teacher_id", in.TeacherID))

	effectiveFrom := in.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = s.now().UTC()
	}

	rows := scheduleRows(in, effectiveFrom)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		if _, err := st.Schedules.DeleteActiveByTeacher(ctx, in.TeacherID); err != nil {
			return err
		}
		return st.Schedules.CreateBatch(ctx, rows)
	})
	if err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}

	s.logger.Info("Teacher schedule replaced",
		zap.String("teacher_id", in.TeacherID),
		zap.Int("windows", len(rows)),
		zap.Time("effective_from", effectiveFrom),
	)

	return nil
}

// Get returns the active schedule grouped by day, or nil when the teacher has none.
func (s *ScheduleService) Get(ctx context.Context, teacherID string) (*model.WeeklySchedule, error) {
	rows, err := s.schedules.GetActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	// rows come ordered by day, then start; effective range is shared by all rows
	out := &model.WeeklySchedule{
		TeacherID:     teacherID,
		EffectiveFrom: rows[0].EffectiveFrom,
		EffectiveTo:   rows[0].EffectiveTo,
	}
	for _, row := range rows {
		n := len(out.Days)
		if n == 0 || out.Days[n-1].DayOfWeek != row.DayOfWeek {
			out.Days = append(out.Days, model.DaySchedule{DayOfWeek: row.DayOfWeek})
			n++
		}
		out.Days[n-1].Windows = append(out.Days[n-1].Windows, model.Window{Start: row.StartTime, End: row.EndTime})
	}

	return out, nil
}

func validateSchedule(in *model.WeeklySchedule) error {
	if in == nil || in.TeacherID == "" {
		return fmt.Errorf("teacher id is required: %w", ErrInvalidArgument)
	}

	if in.EffectiveTo != nil && !in.EffectiveFrom.IsZero() && !in.EffectiveTo.After(in.EffectiveFrom) {
		return fmt.Errorf("effective range ends before it starts: %w", ErrInvalidArgument)
	}

	for _, day := range in.Days {
		if !day.DayOfWeek.Valid() {
			return fmt.Errorf("day of week %d out of range: %w", day.DayOfWeek, ErrInvalidArgument)
		}
		for _, w := range day.Windows {
			if w.End <= w.Start {
				return fmt.Errorf("window %s-%s on %s ends before it starts: %w", w.Start, w.End, day.DayOfWeek, ErrInvalidArgument)
			}
			if w.End > model.EndOfDay {
				return fmt.Errorf("window %s-%s exceeds the day: %w", w.Start, w.End, ErrInvalidArgument)
			}
		}
	}

	return nil
}

func scheduleRows(in *model.WeeklySchedule, effectiveFrom time.Time) []*model.TeacherSchedule {
	type key struct {
		day        model.DayOfWeek
		start, end model.TimeOfDay
	}
	seen := make(map[key]struct{})

	var rows []*model.TeacherSchedule
	for _, day := range in.Days {
		for _, w := range day.Windows {
			k := key{day.DayOfWeek, w.Start, w.End}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			rows = append(rows, &model.TeacherSchedule{
				ID:            uuid.NewString(),
				TeacherID:     in.TeacherID,
				DayOfWeek:     day.DayOfWeek,
				StartTime:     w.Start,
				EndTime:       w.End,
				EffectiveFrom: effectiveFrom,
				EffectiveTo:   in.EffectiveTo,
				IsActive:      true,
			})
		}
	}

	return rows
}
