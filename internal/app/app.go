package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/controller/rest"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired components of one process.
type App struct {
	cfg    *config.Config
	loc    *time.Location
	logger *zap.Logger

	Pool      *pgxpool.Pool
	Schedules *service.ScheduleService
	Generator *service.GeneratorService
	Bookings  *service.BookingService
	Queries   *service.QueryService

	redis     *redis.Client
	publisher *notify.AMQPPublisher
	shutdown  func(context.Context) error
}

// New connects to the database and builds the services. Redis, RabbitMQ and
// Telegram are optional; a missing or unreachable one is logged and skipped.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	shutdown, err := InitTracing(ctx, TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, cfg.DBDSN)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		loc:      loc,
		logger:   logger,
		Pool:     pool,
		shutdown: shutdown,
	}

	tx := repository.NewTxManager(pool)
	stores := tx.Stores()
	users := repository.NewUserRepository(pool)
	lessons := repository.NewLessonRepository(pool)
	projector := service.NewProjector(loc)

	a.Schedules = service.NewScheduleService(stores.Schedules, tx, logger)
	a.Generator = service.NewGeneratorService(stores.Schedules, tx, projector, logger)
	a.Queries = service.NewQueryService(stores.Slots, stores.Bookings, users, lessons, projector)
	a.Bookings = service.NewBookingService(tx, users, lessons, a.buildNotifier(ctx, users), loc, logger)

	return a, nil
}

func (a *App) buildNotifier(ctx context.Context, users *repository.UserRepository) notify.Notifier {
	var notifiers notify.Multi

	if a.cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(a.cfg.TelegramToken, users, a.loc, a.logger)
		if err != nil {
			a.logger.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	if a.cfg.RabbitMQURL != "" {
		pub, err := notify.NewAMQPPublisher(a.cfg.RabbitMQURL, a.cfg.BookingExchange)
		if err != nil {
			a.logger.Warn("Booking events disabled", zap.Error(err))
		} else {
			a.publisher = pub
			notifiers = append(notifiers, pub)
		}
	}

	switch len(notifiers) {
	case 0:
		a.logger.Info("No notification channel configured")
		return notify.Nop{}
	case 1:
		return notifiers[0]
	default:
		return notifiers
	}
}

// Migrate applies pending migrations.
func (a *App) Migrate(ctx context.Context) error {
	m, err := NewMigrator(a.Pool, migrations.FS, a.logger)
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Run(ctx)
}

// NewScheduler builds the weekly trigger, guarded by a Redis lock when
// REDIS_ADDR is set and reachable.
func (a *App) NewScheduler(ctx context.Context) (*Scheduler, error) {
	var locker Locker
	if a.cfg.RedisAddr != "" {
		rdb, err := NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			a.logger.Warn("Redis unavailable, weekly job runs without a cross-replica lock", zap.Error(err))
		} else {
			a.redis = rdb
			locker = NewRedisLocker(rdb)
		}
	}

	return NewScheduler(a.Generator, locker, a.cfg.GenerationCron, a.loc, a.logger)
}

// NewHTTPServer builds the echo server for the booking API.
func (a *App) NewHTTPServer() *echo.Echo {
	h := rest.NewHandlers(a.Schedules, a.Bookings, a.Queries, a.Generator, a.Pool, a.loc, a.logger)
	return rest.NewServer(h, a.logger)
}

// Serve runs the HTTP server and the weekly scheduler until ctx is done, then
// shuts both down.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.MigrateOnStart {
		if err := a.Migrate(ctx); err != nil {
			return err
		}
	}

	scheduler, err := a.NewScheduler(ctx)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx, a.cfg.GenerateOnStart); err != nil {
		return err
	}
	defer scheduler.Stop()

	e := a.NewHTTPServer()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := e.Start(a.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// Close waits for in-flight notifications, then releases every connection.
func (a *App) Close(ctx context.Context) {
	a.Bookings.Wait()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Failed to close AMQP publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}

	a.Pool.Close()

	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("Failed to flush traces", zap.Error(err))
	}
}
