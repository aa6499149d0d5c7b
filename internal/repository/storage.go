package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/config"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

// NewStorage opens the backend selected by cfg. The returned func releases its
// connections.
func NewStorage(ctx context.Context, cfg config.Storage) (port.Storage, func(), error) {
	noop := func() {}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("cfg.Validate: %w", err)
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStorage(), noop, nil

	case config.BackendFile:
		storage, err := NewFileStorage(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("NewFileStorage: %w", err)
		}
		return storage, noop, nil

	case config.BackendRedis:
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("NewRedisClient: %w", err)
		}

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("client.Ping: %w", err)
		}

		storage, err := NewRedisStorage(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("NewRedisStorage: %w", err)
		}
		return storage, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}

		storage, err := NewPostgresStorage(pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("NewPostgresStorage: %w", err)
		}
		return storage, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("storage backend[%s] is not valid", cfg.Backend)
	}
}
