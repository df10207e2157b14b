package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/storage/db"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			if !statusOnly {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			}
			version, err := db.SchemaVersion(ctx, sqlDB)
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			pending, err := db.PendingMigrations(ctx, sqlDB)
			if err != nil {
				return fmt.Errorf("pending migrations: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema version %d\n", version)
			if len(pending) == 0 {
				fmt.Fprintln(out, "no pending migrations")
			} else {
				fmt.Fprintf(out, "pending: %v\n", pending)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report the schema version without applying migrations")
	return cmd
}
