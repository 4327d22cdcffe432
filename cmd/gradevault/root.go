// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gradevault/gradevault/internal/auth"
	"github.com/gradevault/gradevault/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gradevault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradevault",
		Short: "GradeVault - credential and session management service",
		Long: `GradeVault manages account credentials and authenticated sessions:
password hashing with transparent legacy migration, login rate limiting
with lockout, and token-based sessions with sliding expiry.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	addConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewAccountCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// addConfigFlags registers overrides for config file keys. Flag names match
// the configuration keys so they feed straight into the config loader.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("database_url", "", "PostgreSQL connection string")
	flags.String("log.format", "json", "log output format (json or text)")
	flags.String("observability.addr", ":9100", "metrics/health listen address, empty disables")
	flags.Int("auth.bcrypt_cost", auth.DefaultBcryptCost, "bcrypt work factor for new hashes")
	flags.Int("auth.max_attempts", auth.DefaultMaxAttempts, "failed attempts before lockout")
	flags.Duration("auth.window", auth.DefaultWindow, "failure counting window")
	flags.Duration("auth.lockout", auth.DefaultLockout, "lockout duration after last failure")
	flags.Duration("auth.session_timeout", auth.DefaultSessionTimeout, "session inactivity timeout")
	flags.Duration("auth.sweep_interval", auth.DefaultSweepInterval, "expired session sweep interval")
}

// loadConfig loads configuration using the command's flag set as the
// highest-precedence source.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
