package port

import (
	"context"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
)

// Storage is an asynchronous key-value store holding serialized values.
// Get reports found=false with a nil error when the key is absent.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

type CartRepository interface {
	Load(ctx context.Context) (domain.Cart, bool, error)
	Save(ctx context.Context, cart domain.Cart) error
}
