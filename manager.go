package naming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/singleflight"
)

type Options struct {
	Prefix     string // object key prefix, defaults to DefaultPrefix
	Codec      Codec  // defaults to MsgPackCodec
	Registry   *Registry
	Logger     *slog.Logger
	Verbose    bool
	CreateRoot bool // register an empty root container on Open
}

// Manager is the activation cache: it materializes persisted containers on
// demand and guarantees that at most one live Container exists per key.
//
// Lookups go through a map guarded by a single mutex. Concurrent first
// activations of the same key share one load, and every insertion into the
// map re-checks for an existing instance under the mutex, so the loser of
// any race receives the winner's instance. Instances are never evicted
// except by DropCache.
type Manager struct {
	store    Store
	codec    Codec
	prefix   string
	alloc    *Allocator
	registry *Registry
	logger   *slog.Logger
	verbose  bool

	mu    sync.Mutex
	cache map[ObjectKey]*Container
	loads singleflight.Group

	HitCount  atomic.Uint64
	LoadCount atomic.Uint64
}

func Open(store Store, opt Options) (*Manager, error) {
	if opt.Prefix == "" {
		opt.Prefix = DefaultPrefix
	}
	if opt.Codec == nil {
		opt.Codec = MsgPackCodec{}
	}
	if opt.Registry == nil {
		opt.Registry = NewRegistry()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if err := ValidateKey(makeKey(opt.Prefix, rootSuffix)); err != nil {
		return nil, fmt.Errorf("naming: invalid prefix %q: %w", opt.Prefix, err)
	}

	alloc, err := NewAllocator(store, AllocatorOptions{
		Prefix: opt.Prefix,
		Logger: opt.Logger,
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:    store,
		codec:    opt.Codec,
		prefix:   opt.Prefix,
		alloc:    alloc,
		registry: opt.Registry,
		logger:   opt.Logger,
		verbose:  opt.Verbose,
		cache:    make(map[ObjectKey]*Container),
	}
	if opt.CreateRoot {
		if _, err := m.EnsureRoot(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) Store() Store {
	return m.store
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// RootKey returns the fixed key of the root container, prefix + "0".
func (m *Manager) RootKey() ObjectKey {
	return makeKey(m.prefix, rootSuffix)
}

// NewKey mints a key that has never been issued by this store.
func (m *Manager) NewKey() (ObjectKey, error) {
	key, err := m.alloc.NextKey()
	if err != nil {
		return "", fmt.Errorf("naming: allocating key: %w", err)
	}
	if m.verbose {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: NEWKEY", slog.String("key", string(key)))
	}
	return key, nil
}

// Activate returns the live container for key, loading it on first access.
// A missing record yields an error matching ErrNotFound; unreadable and
// undecodable records yield errors matching ErrIOFailure and ErrCorruptData.
func (m *Manager) Activate(key ObjectKey) (*Container, error) {
	if err := ValidateKey(key); err != nil {
		return nil, storeErr("activate", key, err)
	}
	if c := m.cached(key); c != nil {
		m.HitCount.Add(1)
		return c, nil
	}
	v, err := m.loads.Do(string(key), func() (interface{}, error) {
		return m.load(key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Container), nil
}

func (m *Manager) load(key ObjectKey) (*Container, error) {
	if c := m.cached(key); c != nil {
		return c, nil
	}
	rec, err := m.loadRecord(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if m.verbose {
				m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: ACTIVATE.NOTFOUND", slog.String("key", string(key)))
			}
			return nil, storeErr("activate", key, ErrNotFound)
		}
		m.logger.LogAttrs(context.Background(), slog.LevelError, "naming: activation failed", slog.String("key", string(key)), slog.Any("err", err))
		return nil, err
	}
	m.LoadCount.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	c, _ := m.install_locked(key, rec)
	if m.verbose {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: ACTIVATE", slog.String("key", string(key)), slog.Int("bindings", c.Len()))
	}
	return c, nil
}

func (m *Manager) loadRecord(key ObjectKey) (*ContainerRecord, error) {
	payload, err := m.store.Load(key)
	if err != nil {
		return nil, err
	}
	rec, err := m.codec.DecodeRecord(payload)
	if err != nil {
		if !errors.Is(err, ErrCorruptData) {
			err = dataErrf(payload, 0, err, "failed to decode container record")
		}
		return nil, storeErr("decode", key, err)
	}
	return rec, nil
}

// Register persists a container that the caller has just built in memory.
//
// Creation conflicts are resolved in favor of the existing record: if key is
// already cached or persisted, rec is discarded and the existing container
// is returned instead. Callers that need to know can compare the result's
// Record with rec.
func (m *Manager) Register(key ObjectKey, rec *ContainerRecord) (*Container, error) {
	if err := ValidateKey(key); err != nil {
		return nil, storeErr("register", key, err)
	}
	payload, err := m.codec.EncodeRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("naming: register %v: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.cache[key]; c != nil {
		m.logger.LogAttrs(context.Background(), slog.LevelInfo, "naming: register conflict, keeping active container", slog.String("key", string(key)))
		return c, nil
	}

	err = m.store.Save(key, payload)
	if errors.Is(err, ErrExists) {
		m.logger.LogAttrs(context.Background(), slog.LevelInfo, "naming: register conflict, keeping persisted record", slog.String("key", string(key)))
		existing, err := m.loadRecord(key)
		if err != nil {
			return nil, err
		}
		m.LoadCount.Add(1)
		c, _ := m.install_locked(key, existing)
		return c, nil
	} else if err != nil {
		return nil, err
	}

	c, _ := m.install_locked(key, rec)
	if m.verbose {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: REGISTER", slog.String("key", string(key)), slog.Int("bindings", rec.Len()))
	}
	return c, nil
}

// Update overwrites the persisted record for key without any conflict check
// and makes the live container match it. The live instance keeps its
// identity; enumerators opened earlier keep their snapshots.
func (m *Manager) Update(key ObjectKey, rec *ContainerRecord) error {
	return m.update(key, rec, nil)
}

// Persist writes c's current bindings to the store. The bindings are read
// under the same lock that orders store writes, so concurrent Persist calls
// on one container always leave the newest table on disk.
func (m *Manager) Persist(c *Container) error {
	return m.update(c.Key(), nil, c)
}

// update writes rec, or inst's current table when inst is non-nil.
func (m *Manager) update(key ObjectKey, rec *ContainerRecord, inst *Container) error {
	if err := ValidateKey(key); err != nil {
		return storeErr("update", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if inst != nil {
		rec = inst.Record()
	}
	payload, err := m.codec.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("naming: update %v: %w", key, err)
	}
	if err := m.store.Overwrite(key, payload); err != nil {
		return err
	}

	// Installing even when nothing was cached makes a concurrent load that
	// read the previous record adopt this instance instead of its own.
	c := m.cache[key]
	switch {
	case c == nil && inst != nil:
		m.cache[key] = inst
	case c == nil:
		m.install_locked(key, rec)
	case c != inst:
		c.replace(rec)
	}
	if m.verbose {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: UPDATE", slog.String("key", string(key)), slog.Int("bindings", rec.Len()))
	}
	return nil
}

// Release is called by request dispatch when it is done with a container.
// Containers are never evicted, so this only logs.
func (m *Manager) Release(c *Container) {
	if m.verbose && c != nil {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: RELEASE", slog.String("key", string(c.Key())))
	}
}

// DropCache forgets every live container. Containers handed out earlier
// stay usable but are no longer the canonical instance for their key.
func (m *Manager) DropCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.cache)
}

func (m *Manager) CachedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

func (m *Manager) cached(key ObjectKey) *Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[key]
}

func (m *Manager) install_locked(key ObjectKey, rec *ContainerRecord) (*Container, bool) {
	if c := m.cache[key]; c != nil {
		return c, false
	}
	c := newContainer(key, rec)
	m.cache[key] = c
	return c, true
}

// OpenEnumerator snapshots c's bindings into a new enumerator registered with
// the manager's Registry, and returns it with its handle.
func (m *Manager) OpenEnumerator(c *Container) (*Enumerator, string) {
	e := NewEnumerator(c.Bindings())
	return e, m.registry.Open(e)
}

// List returns up to howMany bindings of c directly. If more remain, they
// are returned through a registered enumerator; otherwise e is nil and the
// handle is empty.
func (m *Manager) List(c *Container, howMany int) (first []Binding, e *Enumerator, handle string) {
	all := c.Bindings()
	howMany = max(0, min(howMany, len(all)))
	first = all[:howMany:howMany]
	if rest := all[howMany:]; len(rest) > 0 {
		e = NewEnumerator(rest)
		handle = m.registry.Open(e)
	}
	return first, e, handle
}
