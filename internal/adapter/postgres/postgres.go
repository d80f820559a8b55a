// Package postgres implements the feedback store on PostgreSQL.
//
// Uses pgxpool for connections and tern for embedded migrations.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	// migrationLockID is the advisory lock serializing migrations across replicas.
	// Value: 0x666565646261 ("feedba" in ASCII hex)
	migrationLockID     = 0x666565646261
	lockReleaseTimeout  = 5 * time.Second
	schemaVersionTable  = "public.schema_version"
	defaultConnLifetime = 30 * time.Minute
)

// Connect opens a pool against the feedback store and verifies it with a ping.
// When m is non-nil every query is timed through a tracer.
func Connect(ctx context.Context, databaseURL string, m *metrics.PostgresMetrics) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if poolCfg.MaxConnLifetime == 0 {
		poolCfg.MaxConnLifetime = defaultConnLifetime
	}
	if m != nil {
		poolCfg.ConnConfig.Tracer = &queryTracer{metrics: m}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"sslmode", sslMode(databaseURL),
		"max_conns", poolCfg.MaxConns,
	)
	return pool, nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	if mode := strings.ToLower(u.Query().Get("sslmode")); mode != "" {
		return mode
	}
	return "prefer (default)"
}

// HealthCheck returns a readiness probe for the pool.
func HealthCheck(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
		return nil
	}
}

// MigrationResult reports the schema version before and after a run.
type MigrationResult struct {
	From int32
	To   int32
}

// Migrate applies the embedded migrations while holding migrationLockID, so
// replicas starting together migrate once.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (MigrationResult, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	unlock, err := acquireMigrationLock(ctx, conn.Conn())
	if err != nil {
		return MigrationResult{}, err
	}
	defer unlock()

	return runMigrations(ctx, conn.Conn())
}

func runMigrations(ctx context.Context, conn *pgx.Conn) (MigrationResult, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, schemaVersionTable)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.LoadMigrations(sub); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to load migrations: %w", err)
	}

	var result MigrationResult
	if result.From, err = migrator.GetCurrentVersion(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := migrator.Migrate(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to migrate database: %w", err)
	}

	if result.To, err = migrator.GetCurrentVersion(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("Database migrations applied", "from_version", result.From, "to_version", result.To)
	return result, nil
}

func acquireMigrationLock(ctx context.Context, conn *pgx.Conn) (func(), error) {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
		defer cancel()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("Failed to release migration lock", "error", err)
		}
	}, nil
}
