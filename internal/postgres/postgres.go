// Package postgres connects to a Postgres database, such as the one behind Supabase, and bootstraps the tables the
// load estimator needs.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

const (
	maxConns        = 10
	maxConnLifetime = time.Hour
	maxConnIdleTime = 30 * time.Minute
)

// NewPool connects to url, creates missing tables and upserts the exercise catalog. The schema statements are
// idempotent so NewPool can run on every start.
func NewPool(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to postgres",
		slog.String("host", poolConfig.ConnConfig.Host),
		slog.String("database", poolConfig.ConnConfig.Database))

	start := time.Now()
	if _, err = pool.Exec(ctx, schemaDefinition); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	if _, err = pool.Exec(ctx, fixtures); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply fixtures: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "bootstrapped postgres schema", slog.Duration("duration", time.Since(start)))

	return pool, nil
}
