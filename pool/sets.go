package pool

import "sync"

// MapPool provides pooled maps for temporary use, such as visited sets.
type MapPool[K comparable, V any] struct {
	pool sync.Pool
	cap  int
}

// NewMapPool creates a new pool for maps with the given initial capacity.
func NewMapPool[K comparable, V any](initialCap int) *MapPool[K, V] {
	return &MapPool[K, V]{
		pool: sync.Pool{
			New: func() any {
				return make(map[K]V, initialCap)
			},
		},
		cap: initialCap,
	}
}

// Acquire gets an empty map from the pool.
func (p *MapPool[K, V]) Acquire() map[K]V {
	return p.pool.Get().(map[K]V)
}

// Release clears m and returns it to the pool.
func (p *MapPool[K, V]) Release(m map[K]V) {
	if m == nil {
		return
	}
	// Oversized maps keep their buckets after clear; drop them instead.
	if len(m) > p.cap*4 {
		return
	}
	clear(m)
	p.pool.Put(m)
}

// SlicePool provides pooled slices of T.
type SlicePool[T any] struct {
	pool   sync.Pool
	maxCap int
}

// NewSlicePool creates a pool of slices with the given initial capacity.
// Slices that grew beyond maxCap are not returned to the pool.
func NewSlicePool[T any](initialCap, maxCap int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any {
				s := make([]T, 0, initialCap)
				return &s
			},
		},
		maxCap: maxCap,
	}
}

// Acquire gets an empty slice from the pool.
func (p *SlicePool[T]) Acquire() *[]T {
	s := p.pool.Get().(*[]T)
	*s = (*s)[:0]
	return s
}

// Release zeroes the slice contents and returns it to the pool.
func (p *SlicePool[T]) Release(s *[]T) {
	if s == nil || cap(*s) > p.maxCap {
		return
	}
	clear((*s)[:cap(*s)])
	*s = (*s)[:0]
	p.pool.Put(s)
}
