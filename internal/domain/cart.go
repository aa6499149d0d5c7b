package domain

import (
	"github.com/shopspring/decimal"
)

// Product describes a catalog entry as it is added to the cart, without a quantity.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

type CartItem struct {
	Product

	Quantity int
}

// Cart is an ordered list of items, at most one item per product ID.
type Cart []CartItem

func (c Cart) Find(id string) (CartItem, bool) {
	for _, item := range c {
		if item.ID == id {
			return item, true
		}
	}

	return CartItem{}, false
}

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}

	out := make(Cart, len(c))
	copy(out, c)

	return out
}

// AddProduct returns a new cart where the product's quantity is increased by one.
// An existing entry keeps its title, image and price; a new entry is appended.
func AddProduct(c Cart, p Product) Cart {
	if _, ok := c.Find(p.ID); ok {
		return IncrementItem(c, p.ID)
	}

	out := make(Cart, len(c), len(c)+1)
	copy(out, c)

	return append(out, CartItem{Product: p, Quantity: 1})
}

func IncrementItem(c Cart, id string) Cart {
	return mapItem(c, id, func(item CartItem) CartItem {
		item.Quantity++
		return item
	})
}

// DecrementItem never removes an entry, quantity stops at zero.
func DecrementItem(c Cart, id string) Cart {
	return mapItem(c, id, func(item CartItem) CartItem {
		if item.Quantity > 0 {
			item.Quantity--
		}
		return item
	})
}

func mapItem(c Cart, id string, fn func(CartItem) CartItem) Cart {
	out := make(Cart, len(c))

	for i, item := range c {
		if item.ID == id {
			item = fn(item)
		}
		out[i] = item
	}

	return out
}
