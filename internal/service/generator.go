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

// GenerateResult summarises one generation run.
type GenerateResult struct {
	Teachers     int   `json:"teachers"`
	Generated    int   `json:"generated"`
	Skipped      int   `json:"skipped"`
	Failed       int   `json:"failed"`
	SlotsCreated int64 `json:"slots_created"`
}

// GeneratorService materialises next week's bookable slots from active schedules.
type GeneratorService struct {
	schedules repository.ScheduleStore
	tx        repository.Transactor
	projector *Projector
	logger    *zap.Logger
}

func NewGeneratorService(schedules repository.ScheduleStore, tx repository.Transactor, projector *Projector, logger *zap.Logger) *GeneratorService {
	return &GeneratorService{
		schedules: schedules,
		tx:        tx,
		projector: projector,
		logger:    logger,
	}
}

// GenerateForWeek generates next week's slots for every teacher with an active schedule,
// or only for teacherID when it is set. A teacher that already has a slot at or after next
// Monday is skipped. Each teacher runs in its own transaction under an advisory lock;
// a failure for one teacher is logged and does not stop the others.
func (g *GeneratorService) GenerateForWeek(ctx context.Context, teacherID *string) (res *GenerateResult, err error) {
	ctx, span := tracer.Start(ctx, "GeneratorService.GenerateForWeek")
	defer func() { endSpan(span, err) }()

	rows, err := g.schedules.ListActive(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}

	now := g.projector.Now()
	loc := g.projector.Location
	nextMonday := NextMonday(now, loc)

	teachers, byTeacher := groupByTeacher(rows)
	res = &GenerateResult{Teachers: len(teachers)}

	for _, tid := range teachers {
		created, skipped, err := g.generateForTeacher(ctx, tid, byTeacher[tid], now)
		if err != nil {
			res.Failed++
			g.logger.Error("Failed to generate slots for teacher",
				zap.String("teacher_id", tid),
				zap.Error(err),
			)
			continue
		}

		if skipped {
			res.Skipped++
			g.logger.Debug("Slots for next week already exist, skipping",
				zap.String("teacher_id", tid),
				zap.Time("next_monday", nextMonday),
			)
			continue
		}

		res.Generated++
		res.SlotsCreated += created
	}

	span.SetAttributes(
		attribute.Int("teachers", res.Teachers),
		attribute.Int64("slots_created", res.SlotsCreated),
	)

	g.logger.Info("Generated bookable slots",
		zap.Int("teachers", res.Teachers),
		zap.Int("generated", res.Generated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int64("slots_created", res.SlotsCreated),
	)

	return res, nil
}

func (g *GeneratorService) generateForTeacher(ctx context.Context, teacherID string, rows []*model.TeacherSchedule, now time.Time) (int64, bool, error) {
	loc := g.projector.Location
	nextMonday := NextMonday(now, loc)

	var (
		created int64
		skipped bool
	)

	err := g.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		if err := st.Slots.LockTeacher(ctx, teacherID); err != nil {
			return err
		}

		exists, err := st.Slots.ExistsFrom(ctx, teacherID, nextMonday)
		if err != nil {
			return err
		}
		if exists {
			skipped = true
			return nil
		}

		slots := make([]*model.BookableSlot, 0, len(rows))
		for _, row := range rows {
			start := NextWeekOccurrence(now, loc, row.DayOfWeek, row.StartTime)
			end := NextWeekOccurrence(now, loc, row.DayOfWeek, row.EndTime)

			if !end.After(start) {
				g.logger.Warn("Skipping schedule row with empty window",
					zap.String("teacher_schedule_id", row.ID),
					zap.Stringer("start", row.StartTime),
					zap.Stringer("end", row.EndTime),
				)
				continue
			}
			if !row.EffectiveAt(start) {
				continue
			}

			scheduleID := row.ID
			slots = append(slots, &model.BookableSlot{
				ID:                uuid.NewString(),
				TeacherScheduleID: &scheduleID,
				TeacherID:         teacherID,
				StartTime:         start,
				EndTime:           end,
			})
		}

		created, err = st.Slots.CreateBatch(ctx, slots)
		return err
	})
	if err != nil {
		return 0, false, err
	}

	return created, skipped, nil
}

// groupByTeacher keeps teachers in first-seen order.
func groupByTeacher(rows []*model.TeacherSchedule) ([]string, map[string][]*model.TeacherSchedule) {
	var order []string
	groups := make(map[string][]*model.TeacherSchedule)
	for _, row := range rows {
		if _, ok := groups[row.TeacherID]; !ok {
			order = append(order, row.TeacherID)
		}
		groups[row.TeacherID] = append(groups[row.TeacherID], row)
	}
	return order, groups
}
