package naming

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks open enumerators by handle, standing in for whatever
// collaborator exposes them to remote callers. Destroying an enumerator
// removes it from its registry.
type Registry struct {
	mu    sync.Mutex
	items map[string]*Enumerator
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Enumerator)}
}

// Open registers e under a fresh UUIDv7 handle. An enumerator can belong to
// one registry only.
func (r *Registry) Open(e *Enumerator) string {
	id := uuid.Must(uuid.NewV7()).String()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.onDestroy != nil {
		panic("enumerator is already registered")
	}
	if !e.destroyed {
		e.onDestroy = func() { r.remove(id) }
		r.mu.Lock()
		r.items[id] = e
		r.mu.Unlock()
	}
	return id
}

// Lookup returns the live enumerator registered under id.
func (r *Registry) Lookup(id string) (*Enumerator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, found := r.items[id]
	return e, found
}

// Destroy destroys the enumerator registered under id. It returns
// ErrNotFound for unknown or already destroyed handles.
func (r *Registry) Destroy(id string) error {
	e, found := r.Lookup(id)
	if !found {
		return ErrNotFound
	}
	return e.Destroy()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}
