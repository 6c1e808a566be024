package app

import (
	"context"
)

// KVStore is the persistence slot the cart is mirrored to.
// Read returns (nil, nil) when the key has never been written.
type KVStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}
