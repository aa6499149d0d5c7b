package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartKey = "@gomarketplace/cart"

func TestNewCart(t *testing.T) {
	tests := []struct {
		name      string
		storage   port.Storage
		key       string
		wantError string
	}{
		{
			name:    "new cart repository: ok",
			storage: repository.NewMemoryStorage(),
			key:     cartKey,
		},
		{
			name:      "new cart repository with nil storage: error",
			key:       cartKey,
			wantError: "storage is nil",
		},
		{
			name:      "new cart repository with empty key: error",
			storage:   repository.NewMemoryStorage(),
			key:       "",
			wantError: "key is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := repository.NewCart(tt.storage, tt.key)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, repo)
		})
	}
}

func TestCartRepository_Load(t *testing.T) {
	tests := []struct {
		name      string
		stored    *string
		want      domain.Cart
		wantFound bool
		wantError error
	}{
		{
			name:      "load absent cart: not found",
			wantFound: false,
		},
		{
			name:      "load stored cart: ok",
			stored:    ptr(`[{"id":"1","title":"Shirt","image_url":"u","price":10,"quantity":2}]`),
			want:      domain.Cart{{Product: domain.Product{ID: "1", Title: "Shirt", ImageURL: "u", Price: decimal.NewFromInt(10)}, Quantity: 2}},
			wantFound: true,
		},
		{
			name:      "load malformed cart: error",
			stored:    ptr(`{not json`),
			wantError: repository.ErrMalformedCart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			storage := repository.NewMemoryStorage()

			if tt.stored != nil {
				require.NoError(t, storage.Set(ctx, cartKey, *tt.stored))
			}

			repo, err := repository.NewCart(storage, cartKey)
			require.NoError(t, err)

			got, found, err := repo.Load(ctx)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assertCart(t, tt.want, got)
			}
		})
	}
}

func TestCartRepository_StorageErrors(t *testing.T) {
	ctx := t.Context()
	storageErr := errors.New("disk full")

	repo, err := repository.NewCart(failingStorage{err: storageErr}, cartKey)
	require.NoError(t, err)

	_, _, err = repo.Load(ctx)
	require.ErrorIs(t, err, storageErr)
	assert.ErrorContains(t, err, "storage.Get")

	err = repo.Save(ctx, domain.Cart{randomCartItem()})
	require.ErrorIs(t, err, storageErr)
	assert.ErrorContains(t, err, "storage.Set")
}

type failingStorage struct {
	err error
}

func (s failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, s.err
}

func (s failingStorage) Set(context.Context, string, string) error {
	return s.err
}

func randomCartItem() domain.CartItem {
	return domain.CartItem{
		Product: domain.Product{
			ID:       uuid.NewString(),
			Title:    gofakeit.ProductName(),
			ImageURL: gofakeit.URL(),
			Price:    decimal.NewFromFloat(gofakeit.Price(1, 100)),
		},
		Quantity: gofakeit.IntRange(1, 10),
	}
}

func withQuantity(item domain.CartItem, quantity int) domain.CartItem {
	item.Quantity = quantity
	return item
}

func ptr[T any](v T) *T {
	return &v
}

func assertCart(t *testing.T, expected, actual domain.Cart) {
	t.Helper()

	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	diff := cmp.Diff(expected, actual, decimalComparer)
	assert.Empty(t, diff)
}
