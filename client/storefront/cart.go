package storefront

import (
	"errors"
	"sync"

	"github.com/sing3demons/go-order-admin/product"
)

var ErrAlreadyInCart = errors.New("product already added to the cart")

type Cart struct {
	mu    sync.Mutex
	items []product.Product
}

func NewCart() *Cart {
	return &Cart{}
}

// AddToCart appends p unless a product with the same id is already there.
func (c *Cart) AddToCart(p product.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == p.ID {
			return ErrAlreadyInCart
		}
	}
	c.items = append(c.items, p)
	return nil
}

func (c *Cart) Items() []product.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]product.Product(nil), c.items...)
}

// ProductIDs lists the cart content the way an order references it.
func (c *Cart) ProductIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.items))
	for _, item := range c.items {
		ids = append(ids, item.ID.Hex())
	}
	return ids
}

// Total sums the current prices of the cart.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, item := range c.items {
		total += item.NewPrice
	}
	return total
}
