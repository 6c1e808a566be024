package traced

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwikikusuma/cartstore/internal/cart/app"
)

const instrumentationName = "github.com/dwikikusuma/cartstore/internal/cart/infra/traced"

type Option func(*KV)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(k *KV) {
		if tp != nil {
			k.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// KV wraps another KVStore and records a span per Read and Write.
type KV struct {
	next    app.KVStore
	backend string
	tracer  trace.Tracer
}

func Wrap(next app.KVStore, backend string, opts ...Option) *KV {
	k := &KV{
		next:    next,
		backend: backend,
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *KV) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, span := k.tracer.Start(ctx, "cart.kv.read", trace.WithAttributes(
		attribute.String("kv.backend", k.backend),
		attribute.String("kv.key", key),
	))
	defer span.End()

	data, err := k.next.Read(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("kv.found", data != nil),
		attribute.Int("kv.bytes", len(data)),
	)
	return data, nil
}

func (k *KV) Write(ctx context.Context, key string, data []byte) error {
	ctx, span := k.tracer.Start(ctx, "cart.kv.write", trace.WithAttributes(
		attribute.String("kv.backend", k.backend),
		attribute.String("kv.key", key),
		attribute.Int("kv.bytes", len(data)),
	))
	defer span.End()

	if err := k.next.Write(ctx, key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
