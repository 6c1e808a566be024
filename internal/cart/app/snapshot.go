package app

import (
	"encoding/json"
	"fmt"

	"github.com/dwikikusuma/cartstore/internal/cart/domain"
)

const (
	KeyGoMarketPlace = "@GoMarketPlace:cart"
	KeyCartProducts  = "@Cart:Products"

	DefaultKey = KeyGoMarketPlace
)

func encodeSnapshot(items domain.Items) ([]byte, error) {
	if items == nil {
		items = domain.Items{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot returns an empty list for absent or "null" data and an error
// for anything that is not a valid cart.
func decodeSnapshot(data []byte) (domain.Items, error) {
	if len(data) == 0 {
		return domain.Items{}, nil
	}

	var items domain.Items
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if items == nil {
		return domain.Items{}, nil
	}
	if err := items.Validate(); err != nil {
		return nil, err
	}
	return items, nil
}
