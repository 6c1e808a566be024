package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dwikikusuma/cartstore/internal/cart/app"
	"github.com/dwikikusuma/cartstore/internal/cart/infra/file"
	"github.com/dwikikusuma/cartstore/internal/cart/infra/memory"
	"github.com/dwikikusuma/cartstore/internal/cart/infra/redis"
	"github.com/dwikikusuma/cartstore/internal/cart/infra/sqlite"
	"github.com/dwikikusuma/cartstore/internal/cart/infra/traced"
	"github.com/dwikikusuma/cartstore/pkg/config"
)

const (
	backendMemory = "memory"
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendRedis  = "redis"
)

// backend is an opened KVStore plus whatever it needs to release.
type backend struct {
	kv    app.KVStore
	file  *file.KV
	close func() error
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (backend, error) {
	b, err := openRawBackend(ctx, cfg)
	if err != nil {
		return backend{}, err
	}
	log.Debug("cart backend opened", slog.String("backend", cfg.Cart.Backend))
	b.kv = traced.Wrap(b.kv, cfg.Cart.Backend)
	return b, nil
}

func openRawBackend(ctx context.Context, cfg config.Config) (backend, error) {
	noop := func() error { return nil }

	switch cfg.Cart.Backend {
	case backendMemory:
		return backend{kv: memory.NewKV(), close: noop}, nil

	case backendFile:
		kv, err := file.NewKV(cfg.Cart.Dir)
		if err != nil {
			return backend{}, err
		}
		return backend{kv: kv, file: kv, close: noop}, nil

	case backendSQLite:
		kv, err := sqlite.Open(cfg.Cart.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		return backend{kv: kv, close: kv.Close}, nil

	case backendRedis:
		kv, err := redis.NewKV(cfg.Redis.Addr, redis.Options{MaxAttempts: cfg.Redis.MaxAttempts})
		if err != nil {
			return backend{}, err
		}
		if err := kv.Initialize(ctx); err != nil {
			_ = kv.Close()
			return backend{}, err
		}
		return backend{kv: kv, close: kv.Close}, nil

	default:
		return backend{}, fmt.Errorf("unknown cart backend %q (want memory, file, sqlite or redis)", cfg.Cart.Backend)
	}
}
