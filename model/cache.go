package model

import (
	"fmt"
	"reflect"
	"time"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/gofhir/arbor/cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes parsed trees per type. Concurrent misses for one type share
// a single parse; every waiter receives the same tree or the same error.
// Failures are not cached. Evicting a tree never affects callers already
// holding it.
type Cache struct {
	parser  *Parser
	store   *cache.Cache[reflect.Type, *Tree]
	group   singleflight.Group
	log     logrus.FieldLogger
	metrics *arbor.Metrics
}

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	maxWeight int64
	ttl       time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
	metrics   *arbor.Metrics
}

// WithMaxWeight bounds the total element count of cached trees.
func WithMaxWeight(w int64) CacheOption {
	return func(c *cacheConfig) {
		if w > 0 {
			c.maxWeight = w
		}
	}
}

// WithTTL sets how long an unused tree stays cached.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) CacheOption {
	return func(c *cacheConfig) {
		c.now = now
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(log logrus.FieldLogger) CacheOption {
	return func(c *cacheConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCacheMetrics records hits, misses and evictions into m.
func WithCacheMetrics(m *arbor.Metrics) CacheOption {
	return func(c *cacheConfig) {
		c.metrics = m
	}
}

// NewCache creates a cache loading trees with parser.
func NewCache(parser *Parser, opts ...CacheOption) *Cache {
	def := arbor.DefaultOptions()
	cfg := &cacheConfig{
		maxWeight: def.CacheMaxWeight,
		ttl:       def.CacheTTL,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Cache{
		parser:  parser,
		log:     cfg.log,
		metrics: cfg.metrics,
	}
	c.store = cache.New[reflect.Type, *Tree](cfg.maxWeight,
		cache.WithTTL[reflect.Type, *Tree](cfg.ttl),
		cache.WithClock[reflect.Type, *Tree](cfg.now),
		cache.WithWeigher(func(_ reflect.Type, t *Tree) int64 { return int64(t.Len()) }),
		cache.WithEvictCallback(c.evicted),
	)
	return c
}

func (c *Cache) evicted(t reflect.Type, tr *Tree, reason cache.Reason) {
	if reason != cache.Removed {
		c.metrics.RecordCacheEviction()
	}
	c.log.WithFields(logrus.Fields{
		"type":   t.String(),
		"weight": tr.Len(),
	}).Debugf("tree %s", reason)
}

// Get returns the tree of t, parsing it on a miss. Parse failures are
// returned wrapped in a CacheError.
func (c *Cache) Get(t reflect.Type) (*Tree, error) {
	if t == nil {
		return nil, arbor.CacheError("", arbor.ConfigurationError("", "", errNilType))
	}
	t = accessor.Indirect(t)
	if tr, ok := c.store.Get(t); ok {
		c.metrics.RecordCacheHit()
		return tr, nil
	}
	c.metrics.RecordCacheMiss()

	v, err, _ := c.group.Do(flightKey(t), func() (any, error) {
		// A concurrent flight may have stored the tree since the miss.
		if tr, ok := c.store.Peek(t); ok {
			return tr, nil
		}
		c.log.WithField("type", t.String()).Debug("loading tree")
		tr, err := c.parser.Parse(t)
		if err != nil {
			return nil, arbor.CacheError(typeName(t), err)
		}
		c.store.Set(t, tr)
		return tr, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tree), nil
}

// Stats returns the storage statistics.
func (c *Cache) Stats() cache.Stats {
	return c.store.Stats()
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Invalidate drops the tree of t.
func (c *Cache) Invalidate(t reflect.Type) {
	c.store.Delete(accessor.Indirect(t))
}

// Purge drops every tree.
func (c *Cache) Purge() {
	c.store.Clear()
}

// PurgeExpired drops idle trees and returns how many were dropped.
func (c *Cache) PurgeExpired() int {
	return c.store.PurgeExpired()
}

// flightKey distinguishes distinct types sharing a printed name.
func flightKey(t reflect.Type) string {
	return fmt.Sprintf("%s#%p", t, t)
}
