package naming

import (
	"fmt"
	"sync"
)

// Container is the live, activated instance of one persisted binding table.
// Manager guarantees at most one Container per key.
//
// Bind, Rebind and Unbind only change memory. A caller using them directly
// must call Manager.Persist and undo the change if that fails, or the cached
// instance stops matching the store. Manager.Bind, Manager.Rebind and
// Manager.Unbind do both.
type Container struct {
	key ObjectKey

	mu  sync.RWMutex
	rec *ContainerRecord
}

func newContainer(key ObjectKey, rec *ContainerRecord) *Container {
	return &Container{key: key, rec: rec.Clone()}
}

func (c *Container) Key() ObjectKey {
	return c.key
}

func (c *Container) String() string {
	return string(c.key)
}

// Record returns a copy of the current binding table.
func (c *Container) Record() *ContainerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rec.Clone()
}

func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rec.Len()
}

// Bindings returns a snapshot of the table, sorted by name.
func (c *Container) Bindings() []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rec.sortedBindings()
}

func (c *Container) Resolve(name NameComponent) (BindingValue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bv, found := c.rec.Bindings[name]
	if !found {
		return BindingValue{}, fmt.Errorf("%v in %v: %w", name, c.key, ErrNotFound)
	}
	return bv, nil
}

// Bind adds a new binding, failing with ErrAlreadyBound if name is taken.
func (c *Container) Bind(name NameComponent, bv BindingValue) error {
	if err := validateBinding(name, bv); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.rec.Bindings[name]; found {
		return fmt.Errorf("%v in %v: %w", name, c.key, ErrAlreadyBound)
	}
	c.rec.Bindings[name] = bv
	return nil
}

// Rebind adds or replaces a binding.
func (c *Container) Rebind(name NameComponent, bv BindingValue) error {
	if err := validateBinding(name, bv); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec.Bindings[name] = bv
	return nil
}

// Unbind removes a binding. The container it pointed to, if any, is left
// in place.
func (c *Container) Unbind(name NameComponent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.rec.Bindings[name]; !found {
		return fmt.Errorf("%v in %v: %w", name, c.key, ErrNotFound)
	}
	delete(c.rec.Bindings, name)
	return nil
}

func (c *Container) replace(rec *ContainerRecord) {
	rec = rec.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec = rec
}

func validateBinding(name NameComponent, bv BindingValue) error {
	if name.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidName)
	}
	switch bv.Type {
	case ObjectBinding:
		return nil
	case ContextBinding:
		if err := ValidateKey(ObjectKey(bv.Ref)); err != nil {
			return fmt.Errorf("%v: context reference %q: %w", name, bv.Ref, err)
		}
		return nil
	default:
		return fmt.Errorf("%v: cannot bind %v", name, bv.Type)
	}
}
