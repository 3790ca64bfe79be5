package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"fundops/internal/platform/config"
	"fundops/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), postgres.Migrate)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), postgres.MigrationStatus)
			},
		},
	)
	return cmd
}

func withDatabase(ctx context.Context, fn func(*sql.DB) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if !cfg.UsePostgres() {
		return errors.New("DATABASE_URL is required")
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
