// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gradevault/gradevault/internal/auth"
	authpg "github.com/gradevault/gradevault/internal/auth/postgres"
	"github.com/gradevault/gradevault/internal/store"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired sessions once and exit",
		Long: `Delete all expired session rows in a single pass. Useful as a
cron job for deployments that do not run the long-lived serve process.`,
		RunE: runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	service, err := auth.NewService(
		authpg.NewAccountRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewRateLimiter(auth.RateLimiterConfig{}),
		cfg.Auth.SessionTimeout,
	)
	if err != nil {
		return err
	}

	removed, err := service.SweepExpired(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Removed %d expired session(s)\n", removed)
	return nil
}
