package main

// Apply database migrations, or list pending ones:
//   go run ./cmd/migrate [-status]

import (
	"context"
	"flag"
	"os"
	"time"

	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/storage/db"
	"probate-backend/internal/shared/telemetry"
)

func main() {
	status := flag.Bool("status", false, "print the schema version and pending migrations without applying them")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	os.Exit(run(*status, *timeout))
}

func run(statusOnly bool, timeout time.Duration) int {
	defer telemetry.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
	if err != nil {
		telemetry.Error("migrate.connect.failed", map[string]any{"err": err})
		return 1
	}
	defer sqlDB.Close()

	if !statusOnly {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"err": err})
			return 1
		}
	}

	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		telemetry.Error("migrate.version.failed", map[string]any{"err": err})
		return 1
	}
	pending, err := db.PendingMigrations(ctx, sqlDB)
	if err != nil {
		telemetry.Error("migrate.pending.failed", map[string]any{"err": err})
		return 1
	}
	telemetry.Info("migrate.done", map[string]any{
		"version": version,
		"pending": pending,
		"applied": !statusOnly,
	})
	return 0
}
