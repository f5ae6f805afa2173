package model

import "sync"

// Shared is the key/value table attached to one tree. Every element of the
// tree sees the same table, so visitors can coordinate across elements
// during a pass. Trees are shared between callers through the cache;
// visitors running concurrently over the same tree must agree on their keys.
type Shared struct {
	m sync.Map
}

// NewShared creates an empty table.
func NewShared() *Shared {
	return &Shared{}
}

// Load returns the value stored under key.
func (s *Shared) Load(key any) (any, bool) {
	return s.m.Load(key)
}

// Store sets the value for key.
func (s *Shared) Store(key, value any) {
	s.m.Store(key, value)
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores and returns value. loaded is true if the value was already there.
func (s *Shared) LoadOrStore(key, value any) (actual any, loaded bool) {
	return s.m.LoadOrStore(key, value)
}

// Delete removes key.
func (s *Shared) Delete(key any) {
	s.m.Delete(key)
}

// Range calls fn for each entry until fn returns false.
func (s *Shared) Range(fn func(key, value any) bool) {
	s.m.Range(fn)
}

// Key is a typed key into a Shared table. Two keys are equal only if they
// are the same value returned by NewKey.
type Key[T any] struct {
	name *string
}

// NewKey creates a key whose values are of type T.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: &name}
}

// String returns the key name.
func (k Key[T]) String() string {
	if k.name == nil {
		return ""
	}
	return *k.name
}

// Load returns the value stored under k in s.
func (k Key[T]) Load(s *Shared) (T, bool) {
	v, ok := s.Load(k)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Store sets the value of k in s.
func (k Key[T]) Store(s *Shared, v T) {
	s.Store(k, v)
}

// LoadOrStore returns the existing value of k in s, or stores v.
func (k Key[T]) LoadOrStore(s *Shared, v T) (T, bool) {
	actual, loaded := s.LoadOrStore(k, v)
	return actual.(T), loaded
}
