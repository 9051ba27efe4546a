package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the weekly slot generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, logger, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("Starting lesson booking service")

			if err := a.Serve(ctx); err != nil {
				logger.Error("Service stopped with error", zap.Error(err))
				return err
			}

			logger.Info("Service stopped")
			return nil
		},
	}
}
