package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dwikikusuma/cartstore/internal/cart/domain"
)

var (
	ErrNoStore      = errors.New("cart store not provided")
	ErrNotReady     = errors.New("cart store not hydrated")
	ErrInvalidInput = errors.New("invalid input")
	ErrHydrate      = errors.New("hydrate cart")
	ErrPersist      = errors.New("persist cart")
)

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseHydrating
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseHydrating:
		return "hydrating"
	case PhaseReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRejectUntilReady makes mutations fail with ErrNotReady instead of
// waiting for hydration.
func WithRejectUntilReady() Option {
	return func(s *Store) {
		s.rejectUntilReady = true
	}
}

// Store owns the cart list and mirrors it to a single key of a KVStore.
// A mutation is written to the backend before it becomes visible in memory.
type Store struct {
	kv               KVStore
	key              string
	log              *slog.Logger
	rejectUntilReady bool

	// writeMu serializes hydration and mutations together with their write.
	writeMu sync.Mutex

	mu    sync.RWMutex
	items domain.Items
	phase Phase
	subs  map[*subscriber]struct{}

	ready chan struct{}
}

type subscriber struct {
	ch chan domain.Items
}

// offer replaces any unread snapshot with items. Callers hold Store.mu.
func (sub *subscriber) offer(items domain.Items) {
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- items
}

func NewStore(kv KVStore, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   DefaultKey,
		log:   slog.Default(),
		items: domain.Items{},
		subs:  make(map[*subscriber]struct{}),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "cart"), slog.String("key", s.key))
	return s
}

func (s *Store) Key() string {
	if s == nil {
		return ""
	}
	return s.key
}

func (s *Store) Phase() Phase {
	if s == nil {
		return PhaseUninitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Ready is closed once hydration has completed.
func (s *Store) Ready() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ready
}

// Products returns a copy of the current cart.
func (s *Store) Products() domain.Items {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

// Hydrate loads the persisted cart. Absent or malformed data leaves the cart
// empty. A read error keeps the store unhydrated so Hydrate can be retried.
func (s *Store) Hydrate(ctx context.Context) error {
	if s == nil {
		return ErrNoStore
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Phase() == PhaseReady {
		return nil
	}
	s.setPhase(PhaseHydrating)

	data, err := s.kv.Read(ctx, s.key)
	if err != nil {
		s.setPhase(PhaseUninitialized)
		s.log.Error("cart read failed", slog.Any("err", err))
		return fmt.Errorf("%w: %w", ErrHydrate, err)
	}

	items, err := decodeSnapshot(data)
	if err != nil {
		s.log.Warn("discarding malformed cart snapshot", slog.Any("err", err), slog.Int("bytes", len(data)))
		items = domain.Items{}
	}

	s.mu.Lock()
	s.phase = PhaseReady
	s.publishLocked(items)
	s.mu.Unlock()
	close(s.ready)

	s.log.Info("cart hydrated", slog.Int("lines", len(items)), slog.Int("quantity", items.TotalQuantity()))
	return nil
}

// AddToCart appends p with quantity 1, or increments the line that already
// carries p.ID.
func (s *Store) AddToCart(ctx context.Context, p domain.Product) error {
	if s == nil {
		return ErrNoStore
	}
	if p.ID == "" {
		return ErrInvalidInput
	}
	return s.mutate(ctx, "add", func(items domain.Items) (domain.Items, bool) {
		return items.WithAdded(p), true
	})
}

// Increment is a no-op for an id that is not in the cart.
func (s *Store) Increment(ctx context.Context, id string) error {
	if s == nil {
		return ErrNoStore
	}
	return s.mutate(ctx, "increment", func(items domain.Items) (domain.Items, bool) {
		if items.IndexOf(id) == -1 {
			return items, false
		}
		return items.WithIncrement(id), true
	})
}

// Decrement removes the line once its quantity would drop to zero. It is a
// no-op for an id that is not in the cart.
func (s *Store) Decrement(ctx context.Context, id string) error {
	if s == nil {
		return ErrNoStore
	}
	return s.mutate(ctx, "decrement", func(items domain.Items) (domain.Items, bool) {
		if items.IndexOf(id) == -1 {
			return items, false
		}
		return items.WithDecrement(id), true
	})
}

// Subscribe streams cart snapshots, starting with the current one. A slow
// reader only sees the newest snapshot. The channel is closed when ctx ends.
func (s *Store) Subscribe(ctx context.Context) (<-chan domain.Items, error) {
	if s == nil {
		return nil, ErrNoStore
	}

	sub := &subscriber{ch: make(chan domain.Items, 1)}

	s.mu.Lock()
	sub.ch <- s.items.Clone()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, sub)
		close(sub.ch)
		s.mu.Unlock()
	}()

	return sub.ch, nil
}

func (s *Store) mutate(ctx context.Context, op string, next func(domain.Items) (domain.Items, bool)) error {
	if err := s.awaitReady(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	updated, changed := next(s.Products())
	if !changed {
		s.log.Debug("cart unchanged", slog.String("op", op))
		return nil
	}

	data, err := encodeSnapshot(updated)
	if err != nil {
		return err
	}
	if err := s.kv.Write(ctx, s.key, data); err != nil {
		s.log.Error("cart write failed", slog.String("op", op), slog.Any("err", err))
		return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}

	s.mu.Lock()
	s.publishLocked(updated)
	s.mu.Unlock()

	s.log.Debug("cart updated", slog.String("op", op), slog.Int("lines", len(updated)))
	return nil
}

func (s *Store) awaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}

	if s.rejectUntilReady {
		return ErrNotReady
	}

	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Store) publishLocked(items domain.Items) {
	s.items = items
	for sub := range s.subs {
		sub.offer(items.Clone())
	}
}
