package model

import (
	"reflect"
	"sync/atomic"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
)

// Element is one classified member position of a parsed type. Elements are
// immutable once the tree is built, except for the mapping memo.
type Element struct {
	desc      Descriptor
	node      bool
	marker    arbor.Marker
	acc       accessor.Accessor
	ctor      accessor.Constructor
	shared    *Shared
	unordered bool

	mapping atomic.Pointer[mapping]
}

type mapping struct {
	key   any
	value any
}

// Descriptor returns the member identity.
func (e *Element) Descriptor() Descriptor { return e.desc }

// Name returns the member name, or the type name for the root.
func (e *Element) Name() string { return e.desc.Name }

// IsNode reports whether the element roots a sub-tree.
func (e *Element) IsNode() bool { return e.node }

// IsLeaf reports whether the element carries a marker.
func (e *Element) IsLeaf() bool { return !e.node }

// Marker returns the leaf marker; nodes return arbor.NoMarker.
func (e *Element) Marker() arbor.Marker { return e.marker }

// Accessor returns the bound accessor.
func (e *Element) Accessor() accessor.Accessor { return e.acc }

// Constructor returns the constructor of the node target type, or nil for leaves.
func (e *Element) Constructor() accessor.Constructor { return e.ctor }

// Shared returns the tree's shared table.
func (e *Element) Shared() *Shared { return e.shared }

// Unordered reports whether the children of this node may be processed in
// any order.
func (e *Element) Unordered() bool { return e.unordered }

// IsCollection reports whether the member is a slice or an array.
func (e *Element) IsCollection() bool { return e.acc.IsCollection() }

// Type returns the declared member type.
func (e *Element) Type() reflect.Type { return e.desc.Type }

// Get reads the member from container.
func (e *Element) Get(container reflect.Value) (reflect.Value, error) {
	return e.acc.Get(container)
}

// Set writes value into the member of container.
func (e *Element) Set(container, value reflect.Value) error {
	return e.acc.Set(container, value)
}

// New creates an instance of the node target type and returns a pointer to it.
func (e *Element) New(args ...any) (reflect.Value, error) {
	if e.ctor == nil {
		return reflect.Value{}, arbor.AccessError(typeName(e.desc.Owner), e.desc.Name,
			arbor.ErrUnsupportedOperation)
	}
	return e.ctor.New(args...)
}

// Mapped returns the value memoized for key, computing it with fn when the
// memo is empty or holds another key. The element keeps one entry only: a
// different key replaces it.
//
// The memo assumes fn is a pure function of key and element. It never checks
// this: a visitor whose mapping changes between calls keeps receiving the
// first result. Callers sharing an element between goroutines must use a
// pure fn; the memo itself is race free but may compute more than once.
func (e *Element) Mapped(key any, fn func(*Element) (any, error)) (value any, hit bool, err error) {
	if m := e.mapping.Load(); m != nil && m.key == key {
		return m.value, true, nil
	}
	v, err := fn(e)
	if err != nil {
		return nil, false, err
	}
	e.mapping.Store(&mapping{key: key, value: v})
	return v, false, nil
}

// ForgetMapping clears the mapping memo.
func (e *Element) ForgetMapping() {
	e.mapping.Store(nil)
}

func (e *Element) String() string {
	if e.node {
		return e.desc.Name + " (node)"
	}
	return e.desc.Name + " [" + string(e.marker) + "]"
}
