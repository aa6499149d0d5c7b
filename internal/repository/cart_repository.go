package repository

import (
	"context"
	"fmt"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

type cartRepository struct {
	storage port.Storage
	key     string
}

// NewCart returns a repository keeping the whole cart as a single value under key.
func NewCart(storage port.Storage, key string) (port.CartRepository, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is nil")
	}

	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	return &cartRepository{
		storage: storage,
		key:     key,
	}, nil
}

func (r *cartRepository) Load(ctx context.Context) (domain.Cart, bool, error) {
	value, found, err := r.storage.Get(ctx, r.key)
	if err != nil {
		return nil, false, fmt.Errorf("storage.Get: %w", err)
	}

	if !found {
		return nil, false, nil
	}

	cart, err := UnmarshalCart(value)
	if err != nil {
		return nil, false, fmt.Errorf("UnmarshalCart: %w", err)
	}

	return cart, true, nil
}

func (r *cartRepository) Save(ctx context.Context, cart domain.Cart) error {
	value, err := MarshalCart(cart)
	if err != nil {
		return fmt.Errorf("MarshalCart: %w", err)
	}

	if err := r.storage.Set(ctx, r.key, value); err != nil {
		return fmt.Errorf("storage.Set: %w", err)
	}

	return nil
}
