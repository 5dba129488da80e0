package naming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type AllocatorOptions struct {
	// Prefix is used to recognize existing keys when reseeding a lost
	// counter. Defaults to DefaultPrefix.
	Prefix string
	Logger *slog.Logger
}

// Allocator hands out a strictly increasing sequence of key suffixes. Each
// value is durably recorded before it is returned, so no value is ever
// issued twice, even across crashes.
type Allocator struct {
	cs     CounterStore
	prefix string
	logger *slog.Logger

	mu      sync.Mutex
	counter uint64
}

// NewAllocator loads the persisted counter. A missing counter starts at the
// root value; an unreadable one is logged and reinitialized. Whenever the
// counter is (re)initialized and cs also implements KeyLister, it is moved
// past the largest existing key suffix. Only I/O failures are returned.
func NewAllocator(cs CounterStore, o AllocatorOptions) (*Allocator, error) {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	a := &Allocator{cs: cs, prefix: o.Prefix, logger: o.Logger}

	v, err := cs.ReadCounter()
	switch {
	case err == nil:
		a.counter = v
		return a, nil
	case errors.Is(err, ErrNotFound):
		v = rootSuffix
	case errors.Is(err, ErrCorruptData):
		a.logger.LogAttrs(context.Background(), slog.LevelWarn, "naming: counter unreadable, reinitializing", slog.Any("err", err))
		v = rootSuffix
	default:
		return nil, fmt.Errorf("naming: loading counter: %w", err)
	}

	if kl, ok := cs.(KeyLister); ok {
		keys, err := kl.Keys()
		if err != nil {
			return nil, fmt.Errorf("naming: reseeding counter: %w", err)
		}
		for _, k := range keys {
			if n, ok := k.Suffix(o.Prefix); ok && n > v {
				v = n
			}
		}
		if v != rootSuffix {
			a.logger.LogAttrs(context.Background(), slog.LevelWarn, "naming: counter reseeded from existing keys", slog.Uint64("counter", v))
		}
	}

	if err := cs.WriteCounter(v); err != nil {
		return nil, fmt.Errorf("naming: initializing counter: %w", err)
	}
	a.counter = v
	return a, nil
}

// Next returns the next value. The new value is persisted before it becomes
// visible; if persisting fails, the counter is unchanged and the error is
// returned.
func (a *Allocator) Next() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.counter + 1
	if n == 0 {
		return 0, errors.New("naming: key counter overflow")
	}
	if err := a.cs.WriteCounter(n); err != nil {
		return 0, err
	}
	a.counter = n
	return n, nil
}

// NextKey is Next formatted with the allocator's prefix.
func (a *Allocator) NextKey() (ObjectKey, error) {
	n, err := a.Next()
	if err != nil {
		return "", err
	}
	return makeKey(a.prefix, n), nil
}

// Current returns the last issued value (or the starting value).
func (a *Allocator) Current() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}
