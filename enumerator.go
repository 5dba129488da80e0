package naming

import (
	"sync"
)

// Enumerator is a single-use cursor over a snapshot of a container's
// bindings. Changes to the container after the snapshot is taken are not
// visible through the enumerator.
//
// After exhaustion Advance keeps returning the sentinel binding (empty name,
// NoObject) with hasMore == false. After Destroy every operation except
// Destroy itself fails with ErrIteratorMisuse.
type Enumerator struct {
	mu        sync.Mutex
	bindings  []Binding
	pos       int
	size      int
	destroyed bool
	onDestroy func()
}

// NewEnumerator snapshots bindings; the caller's slice is not retained.
func NewEnumerator(bindings []Binding) *Enumerator {
	snap := make([]Binding, len(bindings))
	for i, b := range bindings {
		b.Name = append([]NameComponent(nil), b.Name...)
		snap[i] = b
	}
	return &Enumerator{bindings: snap, size: len(snap)}
}

// Advance returns the next binding and true, or the sentinel and false once
// the snapshot is exhausted.
func (e *Enumerator) Advance() (Binding, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return Binding{}, false, ErrIteratorMisuse
	}
	if e.pos >= len(e.bindings) {
		return Binding{}, false, nil
	}
	b := e.bindings[e.pos]
	e.bindings[e.pos] = Binding{}
	e.pos++
	return b, true, nil
}

// AdvanceN returns up to n bindings. hasMore is false when the result is
// empty, i.e. the enumerator was already exhausted. n must be positive.
func (e *Enumerator) AdvanceN(n int) ([]Binding, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, false, ErrIteratorMisuse
	}
	if n <= 0 {
		return nil, false, ErrInvalidBatchSize
	}
	end := len(e.bindings)
	if n < end-e.pos {
		end = e.pos + n
	}
	if e.pos >= end {
		return nil, false, nil
	}
	result := make([]Binding, end-e.pos)
	copy(result, e.bindings[e.pos:end])
	clear(e.bindings[e.pos:end])
	e.pos = end
	return result, true, nil
}

// RemainingCount returns the number of bindings not yet yielded.
func (e *Enumerator) RemainingCount() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return 0, ErrIteratorMisuse
	}
	return len(e.bindings) - e.pos, nil
}

// Size returns the number of bindings in the snapshot, regardless of how
// many have been yielded.
func (e *Enumerator) Size() int {
	return e.size
}

// Destroy releases the snapshot and deregisters the enumerator from the
// Registry it was opened through. Calling it again is a no-op.
func (e *Enumerator) Destroy() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil
	}
	e.destroyed = true
	e.bindings = nil
	hook := e.onDestroy
	e.onDestroy = nil
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (e *Enumerator) IsDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}
