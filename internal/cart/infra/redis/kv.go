package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

type Options struct {
	// MaxAttempts bounds the Initialize ping loop. Zero means 30.
	MaxAttempts int
	// MaxBackoff caps the wait between pings. Zero means 30s.
	MaxBackoff time.Duration
}

type KV struct {
	client *redis.Client
	opts   Options
}

// NewKV accepts either a redis:// URL or a bare host:port address.
func NewKV(addr string, opts Options) (*KV, error) {
	if addr == "" {
		return nil, errors.New("redis kv: empty address")
	}

	ropts, err := redis.ParseURL(addr)
	if err != nil {
		ropts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     4,
		}
	}
	return NewKVFromClient(redis.NewClient(ropts), opts), nil
}

func NewKVFromClient(client *redis.Client, opts Options) *KV {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 30
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &KV{client: client, opts: opts}
}

// Initialize pings the server until it answers, backing off exponentially.
func (r *KV) Initialize(ctx context.Context) error {
	for i := 0; i < r.opts.MaxAttempts; i++ {
		if r.Ping(ctx) {
			slog.Debug("redis kv: ping ok", slog.Int("attempt", i+1))
			return nil
		}

		backoff := time.Duration(100*(1<<uint(i))) * time.Millisecond
		if backoff > r.opts.MaxBackoff || backoff <= 0 {
			backoff = r.opts.MaxBackoff
		}
		slog.Warn("redis kv: ping failed, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis kv: no answer after %d attempts", r.opts.MaxAttempts)
}

func (r *KV) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.client.Ping(pingCtx).Err() == nil
}

func (r *KV) Close() error {
	return r.client.Close()
}

func (r *KV) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return val, nil
}

func (r *KV) Write(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
