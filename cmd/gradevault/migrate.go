// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gradevault/gradevault/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long: `Roll back all migrations, dropping every table and all data.
This is destructive and intended for development databases only.`,
		RunE: runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE:  runMigrateVersion,
	})
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	migrator, err := newMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator)

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	migrator, err := newMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator)

	cmd.Println("Rolling back all migrations...")
	if err := migrator.Down(); err != nil {
		return err
	}
	cmd.Println("Rollback completed")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	migrator, err := newMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator)

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("Version: %d (dirty - manual intervention required)\n", version)
	} else {
		cmd.Printf("Version: %d\n", version)
	}
	return nil
}

func newMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.NewMigrator(cfg.DatabaseURL)
}

func closeMigrator(m *store.Migrator) {
	if err := m.Close(); err != nil {
		slog.Warn("migrator close failed", "error", err)
	}
}
