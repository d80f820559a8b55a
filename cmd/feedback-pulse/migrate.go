package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/feedback-pulse/internal/adapter/postgres"
	"github.com/pscheid92/feedback-pulse/internal/platform/config"
	"github.com/pscheid92/feedback-pulse/internal/platform/logging"
)

const migrateTimeout = 2 * time.Minute

func runMigrate(ctx context.Context) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	result, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return err
	}

	if result.From == result.To {
		slog.Info("Schema already up to date", "version", result.To)
	} else {
		slog.Info("Schema migrated", "from", result.From, "to", result.To)
	}
	return nil
}
