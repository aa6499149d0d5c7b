package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

type memoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() port.Storage {
	return &memoryStorage{
		values: make(map[string]string),
	}
}

func (s *memoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]

	return value, ok, nil
}

func (s *memoryStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}
