package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
)

const (
	pgConnectTimeout  = 10 * time.Second
	pgHealthPeriod    = 30 * time.Second
	pgMaxConnIdleTime = 5 * time.Minute
)

// NewPostgresPool opens the pool backing the question catalog, the answer
// ledger and the result store. Every answer turn holds one connection for a
// single INSERT, so a small warm minimum keeps first answers fast.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MinConns = min(2, cfg.MaxDBConns)
	poolCfg.HealthCheckPeriod = pgHealthPeriod
	poolCfg.MaxConnIdleTime = pgMaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = pgConnectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "exstem-quiz"

	connectCtx, cancel := context.WithTimeout(ctx, pgConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("PostgreSQL connected")

	return pool, nil
}
