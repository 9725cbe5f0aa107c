// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/internal/config"
	"github.com/robskinney/remix-auth-example/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions",
		Long: `Delete expired sessions on the configured cron schedule until
interrupted, serving metrics and health probes on --metrics-addr.
With --once, run a single sweep and exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if once {
				return runSweepOnce(cmd, cfg)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSweeper(ctx, cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")
	cmd.Flags().String("sweep-schedule", "", "cron schedule, e.g. \"@hourly\" or \"*/15 * * * *\"")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runSweepOnce(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	logger := newLogger(cfg, "sweeper")

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	manager, err := b.sessionManager(nil)
	if err != nil {
		return err
	}
	sweeper, err := auth.NewSweeper(manager, cfg.Sweep.Schedule, auth.WithSweepLogger(logger))
	if err != nil {
		return err
	}

	n, err := sweeper.RunOnce(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %d expired session(s)\n", n)
	return nil
}

func runSweeper(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg, "sweeper")

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	var (
		obs     *observability.Server
		metrics *observability.AuthMetrics
		obsErrs <-chan error
	)
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, b.ready)
		metrics = obs.Metrics()
		obsErrs, err = obs.Start()
		if err != nil {
			return err
		}
		logger.Info("observability server started", "addr", obs.Addr())
	}

	manager, err := b.sessionManager(metrics)
	if err != nil {
		return err
	}
	sweeper, err := auth.NewSweeper(manager, cfg.Sweep.Schedule,
		auth.WithSweepLogger(logger),
		auth.WithSweepMetrics(metrics),
	)
	if err != nil {
		return err
	}
	sweeper.Start()
	cmd.Println("Sweeper started")
	logger.Info("sweeper ready", "schedule", cfg.Sweep.Schedule)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-obsErrs:
		logger.Error("observability server failed", "error", err)
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping sweeper", "error", err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	logger.Info("shutdown complete")
	return runErr
}
