package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaumene/reelarr/internal/api"
	"github.com/amaumene/reelarr/internal/scheduler"
	"github.com/amaumene/reelarr/internal/utils"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, progress flusher and job ledger pruning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	logger.Info("Starting Reelarr")

	tp := utils.NewTracerProvider(logger)
	otel.SetTracerProvider(tp)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracer provider")
		}
	}()

	// Scheduler
	sched := scheduler.NewScheduler(a.cfg.ProgressFlush, a.cfg.JobRetention, a.db, a.metrics, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP server
	server := api.NewServer(a.cfg, a.db, a.progress, a.seasonCtrl, sched, a.registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Reelarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Reelarr stopped")
	return nil
}
