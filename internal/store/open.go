package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/gomarketplace-cart/internal/config"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
)

// OpenWithConfig wires a store from cfg and starts loading the persisted cart.
// The returned close func closes the store and then its storage.
func OpenWithConfig(ctx context.Context, cfg config.Config) (*Store, func(context.Context) error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("cfg.Validate: %w", err)
	}

	mode, err := ParseWriteMode(cfg.WriteMode)
	if err != nil {
		return nil, nil, fmt.Errorf("ParseWriteMode: %w", err)
	}

	policy, err := ParseErrorPolicy(cfg.ErrorPolicy)
	if err != nil {
		return nil, nil, fmt.Errorf("ParseErrorPolicy: %w", err)
	}

	logger := config.NewLogger(cfg.LogLevel).
		WithField("storage", cfg.Storage.Backend).
		WithField("key", cfg.Storage.Key)

	storage, closeStorage, err := repository.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("repository.NewStorage: %w", err)
	}

	repo, err := repository.NewCart(storage, cfg.Storage.Key)
	if err != nil {
		closeStorage()
		return nil, nil, fmt.Errorf("repository.NewCart: %w", err)
	}

	s, err := New(repo, WithLogger(logger), WithWriteMode(mode), WithErrorPolicy(policy))
	if err != nil {
		closeStorage()
		return nil, nil, fmt.Errorf("New: %w", err)
	}

	s.Open(ctx)

	return s, func(ctx context.Context) error {
		var errs []error

		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("s.Close: %w", err))
		}
		closeStorage()

		return errors.Join(errs...)
	}, nil
}
