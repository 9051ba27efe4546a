package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	generationLockKey = "lesson_booking:generate_week"
	generationLockTTL = 10 * time.Minute
)

// ErrLockHeld is returned by a Locker when another process owns the lock.
var ErrLockHeld = errors.New("lock is held elsewhere")

type WeekGenerator interface {
	GenerateForWeek(ctx context.Context, teacherID *string) (*service.GenerateResult, error)
}

// Locker guards the weekly job across replicas. Acquire returns a release func
// or ErrLockHeld.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Scheduler runs weekly slot generation on a cron spec in the configured zone.
type Scheduler struct {
	generator WeekGenerator
	locker    Locker
	cron      *cron.Cron
	spec      string
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewScheduler parses spec eagerly so a bad GENERATION_CRON fails at startup.
// locker may be nil, in which case runs are not guarded across replicas.
func NewScheduler(generator WeekGenerator, locker Locker, spec string, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse generation schedule %q: %w", spec, err)
	}

	return &Scheduler{
		generator: generator,
		locker:    locker,
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      spec,
		logger:    logger,
	}, nil
}

// Start registers the weekly job and starts the cron loop. With runNow the job
// also runs once immediately in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(s.ctx) }); err != nil {
		return fmt.Errorf("register generation job: %w", err)
	}

	s.logger.Info("Starting background scheduler", zap.String("spec", s.spec))
	s.cron.Start()

	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunOnce(s.ctx)
		}()
	}

	return nil
}

// Stop cancels running jobs, including the startup run, and waits for them
// to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// RunOnce generates next week's slots for all teachers. Failures are logged,
// never propagated.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, generationLockKey, generationLockTTL)
		if errors.Is(err, ErrLockHeld) {
			s.logger.Info("Slot generation already running elsewhere, skipping")
			return
		}
		if err != nil {
			s.logger.Error("Failed to acquire generation lock", zap.Error(err))
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release generation lock", zap.Error(err))
			}
		}()
	}

	s.logger.Info("Starting weekly slot generation")
	started := time.Now()

	res, err := s.generator.GenerateForWeek(ctx, nil)
	if err != nil {
		s.logger.Error("Weekly slot generation failed", zap.Error(err))
		return
	}

	s.logger.Info("Weekly slot generation completed",
		zap.Int("teachers", res.Teachers),
		zap.Int("generated", res.Generated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int64("slots_created", res.SlotsCreated),
		zap.Duration("took", time.Since(started)))
}
