package memory

import (
	"context"
	"sync"
)

// KV keeps values in process memory. Useful for tests and for running the
// store without any device storage.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

func (m *KV) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *KV) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v := make([]byte, len(data))
	copy(v, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = v
	return nil
}
