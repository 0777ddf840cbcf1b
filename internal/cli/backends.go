package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"quiz-arena/internal/app"
	"quiz-arena/internal/auth"
	"quiz-arena/internal/config"
	"quiz-arena/internal/infra/csvfile"
	"quiz-arena/internal/infra/memory"
	"quiz-arena/internal/infra/postgres"
	redisinfra "quiz-arena/internal/infra/redis"
	"quiz-arena/internal/infra/sqlite"
)

// backends holds the external connections named in the config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
	db    *bun.DB
	close []func() error
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.close = append(b.close, b.redis.Close)
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pool = pool
		b.close = append(b.close, func() error { pool.Close(); return nil })

		b.db = postgres.OpenDB(cfg.Postgres.URL)
		b.close = append(b.close, b.db.Close)
	}
	return b, nil
}

func (b *backends) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		_ = b.close[i]()
	}
}

// resultSink builds the configured ResultSink.
func (b *backends) resultSink(ctx context.Context, cfg config.Config) (app.ResultSink, error) {
	switch driver := cfg.ResultsDriver(); driver {
	case config.ResultsCSV:
		path := cfg.Results.Path
		if path == "" {
			path = "results.csv"
		}
		return csvfile.NewResultSink(path), nil
	case config.ResultsSQLite:
		sink, err := sqlite.Open(ctx, cfg.Results.Path)
		if err != nil {
			return nil, err
		}
		b.close = append(b.close, sink.Close)
		return sink, nil
	case config.ResultsPostgres:
		if b.db == nil {
			return nil, fmt.Errorf("results driver %s needs postgres.url", driver)
		}
		return postgres.NewResultSink(b.db), nil
	case config.ResultsRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("results driver %s needs redis.addr", driver)
		}
		return redisinfra.NewResultSink(b.redis), nil
	case config.ResultsMemory:
		return memory.NewResultSink(), nil
	default:
		return nil, fmt.Errorf("unknown results driver %q", driver)
	}
}

// players returns nil when no JWT secret is configured.
func (b *backends) players(cfg config.Config) *auth.Service {
	if cfg.Auth.JWTSecret == "" {
		return nil
	}
	var store auth.CredentialStore = memory.NewCredentialStore()
	switch {
	case b.db != nil:
		store = postgres.NewCredentialStore(b.db)
	case b.redis != nil:
		store = redisinfra.NewCredentialStore(b.redis)
	}
	return auth.NewService(store, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
}
