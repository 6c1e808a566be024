package domain

import (
	"errors"
	"fmt"
)

// Product is what a caller hands to the cart: a CartItem without quantity.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Items is the ordered cart. Ids are unique and order is insertion order.
// Every With* method returns a fresh slice and leaves the receiver untouched.
type Items []CartItem

var ErrInvalidItems = errors.New("invalid cart items")

func (it Items) IndexOf(id string) int {
	for i := range it {
		if it[i].ID == id {
			return i
		}
	}
	return -1
}

func (it Items) Clone() Items {
	out := make(Items, len(it))
	copy(out, it)
	return out
}

// WithAdded appends p with quantity 1, or increments the existing line when
// p.ID is already present. The stored title, image and price win.
func (it Items) WithAdded(p Product) Items {
	if it.IndexOf(p.ID) != -1 {
		return it.WithIncrement(p.ID)
	}

	out := make(Items, len(it), len(it)+1)
	copy(out, it)
	return append(out, CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	})
}

func (it Items) WithIncrement(id string) Items {
	out := it.Clone()
	if idx := out.IndexOf(id); idx != -1 {
		out[idx].Quantity++
	}
	return out
}

// WithDecrement lowers the quantity by one and drops the line once it would
// reach zero.
func (it Items) WithDecrement(id string) Items {
	idx := it.IndexOf(id)
	if idx == -1 {
		return it.Clone()
	}

	if it[idx].Quantity >= 2 {
		out := it.Clone()
		out[idx].Quantity--
		return out
	}

	out := make(Items, 0, len(it)-1)
	out = append(out, it[:idx]...)
	return append(out, it[idx+1:]...)
}

func (it Items) TotalQuantity() int {
	total := 0
	for _, item := range it {
		total += item.Quantity
	}
	return total
}

func (it Items) Validate() error {
	seen := make(map[string]struct{}, len(it))
	for i, item := range it {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d: empty id", ErrInvalidItems, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %s: quantity must be positive, got %d", ErrInvalidItems, item.ID, item.Quantity)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidItems, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
