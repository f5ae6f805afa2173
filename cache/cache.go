// Package cache provides a generic, thread-safe LRU cache bounded by total
// weight, with idle expiry and built-in metrics.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Reason tells an eviction callback why an entry left the cache.
type Reason int

const (
	// Evicted entries were removed to bring the total weight under the bound.
	Evicted Reason = iota
	// Expired entries were idle for longer than the TTL.
	Expired
	// Removed entries were deleted explicitly.
	Removed
)

func (r Reason) String() string {
	switch r {
	case Evicted:
		return "evicted"
	case Expired:
		return "expired"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Weigher returns the approximate weight of an entry. Weights below 1 count as 1.
type Weigher[K comparable, V any] func(key K, value V) int64

// Cache is a generic thread-safe LRU cache. Instead of counting entries it
// sums their weights and evicts from the least recently used end until the
// total fits under maxWeight. An entry not read or written for longer than
// the TTL is dropped on its next access or on PurgeExpired.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	items     map[K]*list.Element
	order     *list.List
	weight    int64
	maxWeight int64
	ttl       time.Duration
	weigher   Weigher[K, V]
	now       func() time.Time
	onEvict   func(K, V, Reason)

	// Metrics (lock-free using atomics)
	hits    atomic.Uint64
	misses  atomic.Uint64
	evicts  atomic.Uint64
	expires atomic.Uint64
	sets    atomic.Uint64
}

// entry holds a cached value with its weight and last access time.
type entry[K comparable, V any] struct {
	key      K
	value    V
	weight   int64
	accessed time.Time
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets the idle expiry. Zero disables expiry.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithWeigher sets the function computing entry weights.
func WithWeigher[K comparable, V any](w Weigher[K, V]) Option[K, V] {
	return func(c *Cache[K, V]) {
		if w != nil {
			c.weigher = w
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvictCallback registers fn to be called, outside the lock, for every
// entry leaving the cache.
func WithEvictCallback[K comparable, V any](fn func(K, V, Reason)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a new Cache bounded by maxWeight. With the default weigher
// every entry weighs 1, which makes maxWeight a plain capacity.
func New[K comparable, V any](maxWeight int64, opts ...Option[K, V]) *Cache[K, V] {
	if maxWeight <= 0 {
		maxWeight = 100
	}
	c := &Cache[K, V]{
		items:     make(map[K]*list.Element),
		order:     list.New(),
		maxWeight: maxWeight,
		weigher:   func(K, V) int64 { return 1 },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type dropped[K comparable, V any] struct {
	key    K
	value  V
	reason Reason
}

// Get retrieves a value from the cache.
// Returns the value and true if found, zero value and false otherwise.
// A hit refreshes the entry's position and idle timer.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var out []dropped[K, V]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	now := c.now()
	if c.expired(e, now) {
		out = append(out, c.remove(el, Expired))
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	e.accessed = now
	c.order.MoveToFront(el)
	return e.value, true
}

// Peek returns the value for key without touching recency or metrics.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		if !c.expired(e, c.now()) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Set adds or updates a value in the cache, then evicts least recently used
// entries until the total weight fits. The entry just written is never
// evicted by its own Set, even if it alone exceeds the bound.
func (c *Cache[K, V]) Set(key K, value V) {
	c.sets.Add(1)

	var out []dropped[K, V]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.weigher(key, value)
	if w < 1 {
		w = 1
	}

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		c.weight += w - e.weight
		e.value = value
		e.weight = w
		e.accessed = c.now()
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry[K, V]{key: key, value: value, weight: w, accessed: c.now()})
		c.items[key] = el
		c.weight += w
	}

	out = c.shrink(out)
}

// shrink evicts from the back until the weight fits, keeping the front entry.
// Must be called with mu held.
func (c *Cache[K, V]) shrink(out []dropped[K, V]) []dropped[K, V] {
	for c.weight > c.maxWeight && c.order.Len() > 1 {
		out = append(out, c.remove(c.order.Back(), Evicted))
		c.evicts.Add(1)
	}
	return out
}

// remove unlinks el. Must be called with mu held.
func (c *Cache[K, V]) remove(el *list.Element, reason Reason) dropped[K, V] {
	e := el.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.order.Remove(el)
	c.weight -= e.weight
	if reason == Expired {
		c.expires.Add(1)
	}
	return dropped[K, V]{key: e.key, value: e.value, reason: reason}
}

func (c *Cache[K, V]) expired(e *entry[K, V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.accessed) > c.ttl
}

func (c *Cache[K, V]) notify(out []dropped[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, d := range out {
		c.onEvict(d.key, d.value, d.reason)
	}
}

// Delete removes an item from the cache.
func (c *Cache[K, V]) Delete(key K) {
	var out []dropped[K, V]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		out = append(out, c.remove(el, Removed))
	}
}

// PurgeExpired drops every idle entry and returns how many were dropped.
func (c *Cache[K, V]) PurgeExpired() int {
	var out []dropped[K, V]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return 0
	}
	now := c.now()
	// Recency order is also access-time order, so the scan stops at the
	// first live entry from the back.
	for el := c.order.Back(); el != nil; {
		e := el.Value.(*entry[K, V])
		if !c.expired(e, now) {
			break
		}
		prev := el.Prev()
		out = append(out, c.remove(el, Expired))
		el = prev
	}
	return len(out)
}

// Len returns the current number of items in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Weight returns the current total weight.
func (c *Cache[K, V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

// Clear removes all items from the cache.
func (c *Cache[K, V]) Clear() {
	var out []dropped[K, V]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		out = append(out, dropped[K, V]{key: e.key, value: e.value, reason: Removed})
	}
	c.items = make(map[K]*list.Element)
	c.order.Init()
	c.weight = 0
}

// Stats holds cache statistics.
type Stats struct {
	Size      int     `json:"size" yaml:"size"`
	Weight    int64   `json:"weight" yaml:"weight"`
	MaxWeight int64   `json:"maxWeight" yaml:"maxWeight"`
	Hits      uint64  `json:"hits" yaml:"hits"`
	Misses    uint64  `json:"misses" yaml:"misses"`
	Evicts    uint64  `json:"evicts" yaml:"evicts"`
	Expires   uint64  `json:"expires" yaml:"expires"`
	Sets      uint64  `json:"sets" yaml:"sets"`
	HitRate   float64 `json:"hitRate" yaml:"hitRate"`
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	size := len(c.items)
	weight := c.weight
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:      size,
		Weight:    weight,
		MaxWeight: c.maxWeight,
		Hits:      hits,
		Misses:    misses,
		Evicts:    c.evicts.Load(),
		Expires:   c.expires.Load(),
		Sets:      c.sets.Load(),
		HitRate:   hitRate,
	}
}

// Keys returns all keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Range calls fn for each item from most to least recently used.
// If fn returns false, iteration stops. fn must not call back into c.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		if !fn(e.key, e.value) {
			break
		}
	}
}
