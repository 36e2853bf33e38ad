package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"divyashree/internal/config"
	"divyashree/internal/permission"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schema string

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// Migrate applies the schema and seeds the default role permission
// templates. It is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	seeded := 0
	for _, rp := range permission.Defaults() {
		tag, err := pool.Exec(ctx, `
			INSERT INTO role_permissions (role, permissions, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (role) DO NOTHING
		`, string(rp.Role), rp.Permissions, rp.Description)
		if err != nil {
			return fmt.Errorf("failed to seed permissions for %s: %w", rp.Role, err)
		}
		seeded += int(tag.RowsAffected())
	}

	logger.Info().Int("roles_seeded", seeded).Msg("database schema up to date")

	return nil
}
