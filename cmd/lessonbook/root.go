package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "lessonbook",
	Short: "Lesson booking core: weekly schedules, bookable slots and bookings.",
	Long: `lessonbook projects each teacher's weekly schedule into next week's bookable
slots, takes bookings without double-booking a slot, and serves slot and
booking history over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newMigrateCommand())
}

// bootstrap loads config, builds the logger and wires the application.
// The returned cleanup must run before the process exits.
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.IsProduction(), cfg.LogFile)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}

	cleanup := func() {
		a.Close(context.Background())
		_ = logger.Sync()
	}

	return a, logger, cleanup, nil
}
