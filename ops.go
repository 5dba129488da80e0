package naming

import (
	"fmt"
)

// EnsureRoot activates the root container, creating an empty one if the
// store has none.
func (m *Manager) EnsureRoot() (*Container, error) {
	return m.Register(m.RootKey(), NewRecord())
}

// NewContext creates, persists and activates an empty container under a
// freshly allocated key.
func (m *Manager) NewContext() (*Container, error) {
	key, err := m.NewKey()
	if err != nil {
		return nil, err
	}
	return m.Register(key, NewRecord())
}

// Bind binds name in parent and persists parent. If persisting fails, the
// binding is removed again and the error is returned.
func (m *Manager) Bind(parent *Container, name NameComponent, bv BindingValue) error {
	if err := parent.Bind(name, bv); err != nil {
		return err
	}
	if err := m.Persist(parent); err != nil {
		parent.Unbind(name)
		return err
	}
	return nil
}

// Rebind binds name in parent, replacing any existing binding, and persists
// parent. If persisting fails, the previous binding (or its absence) is
// restored.
func (m *Manager) Rebind(parent *Container, name NameComponent, bv BindingValue) error {
	old, oldErr := parent.Resolve(name)
	if err := parent.Rebind(name, bv); err != nil {
		return err
	}
	if err := m.Persist(parent); err != nil {
		if oldErr == nil {
			parent.Rebind(name, old)
		} else {
			parent.Unbind(name)
		}
		return err
	}
	return nil
}

// Unbind removes name from parent and persists parent. A sub-container that
// name referred to is not deleted.
func (m *Manager) Unbind(parent *Container, name NameComponent) error {
	old, err := parent.Resolve(name)
	if err != nil {
		return err
	}
	if err := parent.Unbind(name); err != nil {
		return err
	}
	if err := m.Persist(parent); err != nil {
		parent.Rebind(name, old)
		return err
	}
	return nil
}

// BindContext binds name in parent to an existing container.
func (m *Manager) BindContext(parent *Container, name NameComponent, child *Container) error {
	return m.Bind(parent, name, BindingValue{ContextBinding, string(child.Key())})
}

// BindNewContext creates an empty container and binds it as name in parent.
//
// The name is checked before the container is created, but if another
// caller binds the same name in between, the new container stays behind
// unreferenced.
func (m *Manager) BindNewContext(parent *Container, name NameComponent) (*Container, error) {
	if _, err := parent.Resolve(name); err == nil {
		return nil, fmt.Errorf("%v in %v: %w", name, parent.Key(), ErrAlreadyBound)
	}
	child, err := m.NewContext()
	if err != nil {
		return nil, err
	}
	if err := m.BindContext(parent, name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// ResolvePath walks path starting at start, following context bindings.
// Every component except the last must name a context; otherwise the error
// matches ErrNotContext. An empty path resolves to start itself.
func (m *Manager) ResolvePath(start *Container, path []NameComponent) (BindingValue, error) {
	if len(path) == 0 {
		return BindingValue{ContextBinding, string(start.Key())}, nil
	}
	cur := start
	for i, nc := range path {
		bv, err := cur.Resolve(nc)
		if err != nil {
			return BindingValue{}, err
		}
		if i == len(path)-1 {
			return bv, nil
		}
		if bv.Type != ContextBinding {
			return BindingValue{}, fmt.Errorf("%v in %v: %w", nc, cur.Key(), ErrNotContext)
		}
		cur, err = m.Activate(ObjectKey(bv.Ref))
		if err != nil {
			return BindingValue{}, fmt.Errorf("following %v: %w", nc, err)
		}
	}
	panic("unreachable")
}

// ResolveContext is ResolvePath for paths that must end at a context, and
// returns the activated container.
func (m *Manager) ResolveContext(start *Container, path []NameComponent) (*Container, error) {
	bv, err := m.ResolvePath(start, path)
	if err != nil {
		return nil, err
	}
	if bv.Type != ContextBinding {
		return nil, fmt.Errorf("%v: %w", path[len(path)-1], ErrNotContext)
	}
	return m.Activate(ObjectKey(bv.Ref))
}
