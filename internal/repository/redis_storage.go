package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

type redisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) (port.Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}

	return &redisStorage{client: client}, nil
}

// NewRedisClient accepts either a redis:// URL or a plain host:port address.
func NewRedisClient(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("addr is empty")
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	return redis.NewClient(opts), nil
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("client.Get: %w", err)
	}

	return value, true, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}
