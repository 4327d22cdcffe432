// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"context"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gradevault/gradevault/internal/auth"
	authpg "github.com/gradevault/gradevault/internal/auth/postgres"
	"github.com/gradevault/gradevault/internal/store"
)

// NewAccountCmd creates the account subcommand tree.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	create := &cobra.Command{
		Use:   "create <username> <email>",
		Short: "Create an account",
		Long: `Create an account with the given username and email. The password
is read from the GRADEVAULT_PASSWORD environment variable so it never
appears in shell history or process listings.`,
		Args: cobra.ExactArgs(2),
		RunE: runAccountCreate,
	}
	cmd.AddCommand(create)

	return cmd
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	username, email := args[0], args[1]

	password := cmd.Context().Value(passwordKey{})
	passwordStr, _ := password.(string)
	if passwordStr == "" {
		passwordStr = envPassword()
	}
	if passwordStr == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("GRADEVAULT_PASSWORD environment variable is required")
	}

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

	if err := service.Register(ctx, username, passwordStr, email); err != nil {
		return err
	}
	cmd.Printf("Account %q created\n", username)
	return nil
}

// passwordKey allows tests to inject a password through the command context.
type passwordKey struct{}

func envPassword() string {
	return os.Getenv("GRADEVAULT_PASSWORD")
}
