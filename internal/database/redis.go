package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
)

const redisDialTimeout = 5 * time.Second

// NewRedisClient opens the client used for the question cache, live monitor
// events and the result event queue. The monitor SSE streams each hold a
// Pub/Sub connection outside the pool.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opt.ClientName = "exstem-quiz"
	opt.DialTimeout = redisDialTimeout

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// Pinger is satisfied by both *pgxpool.Pool and a Redis ping adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts a Redis client to Pinger.
type RedisPinger struct{ Client *redis.Client }

func (p RedisPinger) Ping(ctx context.Context) error { return p.Client.Ping(ctx).Err() }

// Check pings every dependency and returns the name of each one that failed.
func Check(ctx context.Context, deps map[string]Pinger) map[string]string {
	failed := make(map[string]string)
	for name, p := range deps {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	return failed
}
