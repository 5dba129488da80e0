package naming

import (
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestEnumerator_twoBindings(t *testing.T) {
	m := setup(t, NewMemStore())
	c := must(m.Register("NC1", record(
		obj("foo", "0", "ref1"),
		ctx("bar", "1", "NC2"),
	)))

	e, handle := m.OpenEnumerator(c)
	if handle == "" {
		t.Fatalf("** empty handle")
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		b, more, err := e.Advance()
		ensure(err)
		if !more {
			t.Fatalf("** Advance #%d: hasMore = false, wanted true", i+1)
		}
		got[b.String()] = true
	}
	deepEqual(t, got, map[string]bool{
		"foo.0 -> object:ref1": true,
		"bar.1 -> context:NC2": true,
	})

	b, more, err := e.Advance()
	ensure(err)
	if more || !b.IsSentinel() {
		t.Errorf("** got (%v, %v), wanted exhausted sentinel", b, more)
	}
	deepEqual(t, b.Type, NoObject)
	deepEqual(t, len(b.Name), 0)
}

func TestEnumerator_completeness(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var bindings []Binding
			for i := 0; i < n; i++ {
				bindings = append(bindings, obj(fmt.Sprintf("n%03d", i), "", fmt.Sprint(i)))
			}
			e := NewEnumerator(bindings)
			deepEqual(t, e.Size(), n)

			seen := map[string]bool{}
			for i := 0; i < n; i++ {
				deepEqual(t, must(e.RemainingCount()), n-i)
				b, more, err := e.Advance()
				ensure(err)
				if !more {
					t.Fatalf("** Advance #%d returned hasMore = false", i+1)
				}
				if seen[b.String()] {
					t.Fatalf("** duplicate binding %v", b)
				}
				seen[b.String()] = true
			}
			deepEqual(t, len(seen), n)
			deepEqual(t, must(e.RemainingCount()), 0)
			deepEqual(t, e.Size(), n)

			for i := 0; i < 3; i++ {
				b, more, err := e.Advance()
				ensure(err)
				if more || !b.IsSentinel() {
					t.Fatalf("** over-advance #%d: got (%v, %v), wanted sentinel", i+1, b, more)
				}
			}
		})
	}
}

func TestEnumerator_advanceN(t *testing.T) {
	e := NewEnumerator([]Binding{obj("a", "", "1"), obj("b", "", "2"), obj("c", "", "3")})

	batch, more, err := e.AdvanceN(2)
	ensure(err)
	deepEqual(t, more, true)
	deepEqual(t, batch, []Binding{obj("a", "", "1"), obj("b", "", "2")})

	batch, more, err = e.AdvanceN(5)
	ensure(err)
	deepEqual(t, more, true)
	deepEqual(t, batch, []Binding{obj("c", "", "3")})

	batch, more, err = e.AdvanceN(5)
	ensure(err)
	deepEqual(t, more, false)
	deepEqual(t, len(batch), 0)

	_, _, err = e.AdvanceN(0)
	isErr(t, err, ErrInvalidBatchSize)
}

func TestEnumerator_advanceNHugeBatch(t *testing.T) {
	e := NewEnumerator([]Binding{obj("a", "", "1"), obj("b", "", "2"), obj("c", "", "3")})
	_, _, err := e.Advance()
	ensure(err)

	batch, more, err := e.AdvanceN(math.MaxInt)
	ensure(err)
	deepEqual(t, more, true)
	deepEqual(t, batch, []Binding{obj("b", "", "2"), obj("c", "", "3")})
	deepEqual(t, must(e.RemainingCount()), 0)
}

func TestEnumerator_snapshotIsolation(t *testing.T) {
	m := setup(t, NewMemStore())
	c := must(m.Register("NC1", record(obj("a", "", "1"), obj("b", "", "2"))))
	e, _ := m.OpenEnumerator(c)

	ensure(m.Bind(c, NameComponent{ID: "c"}, BindingValue{ObjectBinding, "3"}))
	ensure(m.Update("NC1", NewRecord()))
	deepEqual(t, c.Len(), 0)

	deepEqual(t, must(e.RemainingCount()), 2)
	var names []string
	for {
		b, more, err := e.Advance()
		ensure(err)
		if !more {
			break
		}
		names = append(names, b.Name[0].ID)
	}
	slices.Sort(names)
	deepEqual(t, names, []string{"a", "b"})
}

func TestEnumerator_callerSliceNotRetained(t *testing.T) {
	bindings := []Binding{obj("a", "", "1")}
	e := NewEnumerator(bindings)
	bindings[0].Name[0].ID = "changed"
	b, _, _ := e.Advance()
	deepEqual(t, b.Name[0].ID, "a")
}

func TestEnumerator_misuseAfterDestroy(t *testing.T) {
	e := NewEnumerator([]Binding{obj("a", "", "1")})
	ensure(e.Destroy())
	if !e.IsDestroyed() {
		t.Errorf("** IsDestroyed = false after Destroy")
	}

	_, more, err := e.Advance()
	isErr(t, err, ErrIteratorMisuse)
	deepEqual(t, more, false)

	_, _, err = e.AdvanceN(1)
	isErr(t, err, ErrIteratorMisuse)

	_, err = e.RemainingCount()
	isErr(t, err, ErrIteratorMisuse)

	ensure(e.Destroy())
}

func TestRegistry_deregistersOnDestroy(t *testing.T) {
	m := setup(t, NewMemStore())
	c := must(m.Register("NC1", record(obj("a", "", "1"))))
	reg := m.Registry()

	e1, h1 := m.OpenEnumerator(c)
	e2, h2 := m.OpenEnumerator(c)
	if h1 == h2 {
		t.Fatalf("** duplicate handles %q", h1)
	}
	deepEqual(t, reg.Len(), 2)

	found, ok := reg.Lookup(h1)
	if !ok || found != e1 {
		t.Errorf("** Lookup(%q) = (%p, %v), wanted (%p, true)", h1, found, ok, e1)
	}

	ensure(e1.Destroy())
	deepEqual(t, reg.Len(), 1)
	_, ok = reg.Lookup(h1)
	deepEqual(t, ok, false)

	ensure(reg.Destroy(h2))
	deepEqual(t, e2.IsDestroyed(), true)
	deepEqual(t, reg.Len(), 0)
	isErr(t, reg.Destroy(h2), ErrNotFound)
}

func TestRegistry_openDestroyedEnumerator(t *testing.T) {
	reg := NewRegistry()
	e := NewEnumerator(nil)
	ensure(e.Destroy())
	h := reg.Open(e)
	_, ok := reg.Lookup(h)
	deepEqual(t, ok, false)
	deepEqual(t, reg.Len(), 0)
}

func TestRegistry_doubleOpenPanics(t *testing.T) {
	reg := NewRegistry()
	e := NewEnumerator(nil)
	reg.Open(e)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	reg.Open(e)
}
