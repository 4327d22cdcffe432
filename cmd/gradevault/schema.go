// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gradevault/gradevault/internal/config"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration file JSON Schema",
		Long:  `Generate the JSON Schema for gradevault.yaml and print it to stdout.`,
		RunE:  runSchema,
	}
}

func runSchema(cmd *cobra.Command, _ []string) error {
	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}
	cmd.Println(string(schema))
	return nil
}
