// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gradevault/gradevault/internal/auth"
	authpg "github.com/gradevault/gradevault/internal/auth/postgres"
	"github.com/gradevault/gradevault/internal/logging"
	"github.com/gradevault/gradevault/internal/observability"
	"github.com/gradevault/gradevault/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the credential service",
		Long: `Run the credential service: connects to PostgreSQL, starts the
session sweeper, and serves metrics and health endpoints until interrupted.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetDefault("gradevault", version, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var obsServer *observability.Server
	limiterCfg := auth.RateLimiterConfig{
		MaxAttempts: cfg.Auth.MaxAttempts,
		Window:      cfg.Auth.Window,
		Lockout:     cfg.Auth.Lockout,
	}

	var limiter *auth.RateLimiter
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(cfg.Observability.Addr, func() bool {
			return pool.Ping(ctx) == nil
		})
		limiter = auth.NewRateLimiterWithRegistry(limiterCfg, obsServer.Registry())
	} else {
		limiter = auth.NewRateLimiter(limiterCfg)
	}

	service, err := auth.NewService(
		authpg.NewAccountRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		limiter,
		cfg.Auth.SessionTimeout,
	)
	if err != nil {
		return err
	}

	sweeper := auth.NewSweeper(service, cfg.Auth.SweepInterval, slog.Default())
	sweeper.Start()
	defer sweeper.Close()

	var obsErrCh <-chan error
	if obsServer != nil {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				slog.Error("observability server shutdown failed", "error", stopErr)
			}
		}()
	}

	slog.Info("gradevault started",
		"version", version,
		"observability_addr", cfg.Observability.Addr,
		"sweep_interval", cfg.Auth.SweepInterval.String(),
	)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		return nil
	case serveErr, ok := <-obsErrCh:
		if !ok {
			return nil
		}
		return oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(serveErr)
	}
}
