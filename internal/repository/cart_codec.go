package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrMalformedCart = errors.New("malformed cart")

// cartItemRecord is the persisted shape of a cart item. Price is written as a
// JSON number, not as a quoted decimal.
type cartItemRecord struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func MarshalCart(cart domain.Cart) (string, error) {
	records := make([]cartItemRecord, 0, len(cart))

	for _, item := range cart {
		records = append(records, mapDomainToRecord(item))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	return string(data), nil
}

func UnmarshalCart(value string) (domain.Cart, error) {
	var records []cartItemRecord

	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return nil, fmt.Errorf("%w: json.Unmarshal: %w", ErrMalformedCart, err)
	}

	cart := make(domain.Cart, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, record := range records {
		item, err := mapRecordToDomain(record)
		if err != nil {
			return nil, fmt.Errorf("%w: item[%d]: %w", ErrMalformedCart, i, err)
		}

		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("%w: item[%d]: duplicate id[%s]", ErrMalformedCart, i, item.ID)
		}
		seen[item.ID] = struct{}{}

		cart = append(cart, item)
	}

	return cart, nil
}

func mapDomainToRecord(item domain.CartItem) cartItemRecord {
	return cartItemRecord{
		ID:       item.ID,
		Title:    item.Title,
		ImageURL: item.ImageURL,
		Price:    json.Number(item.Price.String()),
		Quantity: item.Quantity,
	}
}

func mapRecordToDomain(record cartItemRecord) (domain.CartItem, error) {
	price := decimal.Zero

	if record.Price != "" {
		parsed, err := decimal.NewFromString(record.Price.String())
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("price[%s] is not valid: %w", record.Price, err)
		}
		price = parsed
	}

	if record.Quantity < 0 {
		return domain.CartItem{}, fmt.Errorf("quantity[%d] is negative", record.Quantity)
	}

	return domain.CartItem{
		Product: domain.Product{
			ID:       record.ID,
			Title:    record.Title,
			ImageURL: record.ImageURL,
			Price:    price,
		},
		Quantity: record.Quantity,
	}, nil
}
