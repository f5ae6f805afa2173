package arbor

import (
	"sync/atomic"
	"time"
)

// Metrics tracks parse, cache and traversal counters using lock-free atomic
// operations. All methods are safe for concurrent use. A nil *Metrics
// ignores every Record call.
type Metrics struct {
	// Parse counts
	parsesTotal  atomic.Uint64
	parsesFailed atomic.Uint64

	// Parse timing (stored as nanoseconds)
	parseTimeTotal atomic.Uint64
	parseTimeMin   atomic.Uint64
	parseTimeMax   atomic.Uint64

	// Cache metrics
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	cacheEvictions atomic.Uint64

	// Traversal metrics
	traversals     atomic.Uint64
	leavesVisited  atomic.Uint64
	leavesSkipped  atomic.Uint64
	nodesVisited   atomic.Uint64
	instantiations atomic.Uint64

	// Visitor mapping memo
	mappingHits   atomic.Uint64
	mappingMisses atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.parseTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordParse records a completed parse.
func (m *Metrics) RecordParse(duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.parsesTotal.Add(1)
	if !ok {
		m.parsesFailed.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.parseTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.parseTimeMin.Load()
		if ns >= old {
			break
		}
		if m.parseTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.parseTimeMax.Load()
		if ns <= old {
			break
		}
		if m.parseTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordCacheHit records a tree cache hit.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.cacheHits.Add(1)
	}
}

// RecordCacheMiss records a tree cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.cacheMisses.Add(1)
	}
}

// RecordCacheEviction records a tree leaving the cache.
func (m *Metrics) RecordCacheEviction() {
	if m != nil {
		m.cacheEvictions.Add(1)
	}
}

// RecordTraversal records the start of a traversal.
func (m *Metrics) RecordTraversal() {
	if m != nil {
		m.traversals.Add(1)
	}
}

// RecordLeaf records a leaf that was visited or skipped.
func (m *Metrics) RecordLeaf(visited bool) {
	if m == nil {
		return
	}
	if visited {
		m.leavesVisited.Add(1)
	} else {
		m.leavesSkipped.Add(1)
	}
}

// RecordNode records a node visit.
func (m *Metrics) RecordNode() {
	if m != nil {
		m.nodesVisited.Add(1)
	}
}

// RecordInstantiation records a node instance created for a nil member.
func (m *Metrics) RecordInstantiation() {
	if m != nil {
		m.instantiations.Add(1)
	}
}

// RecordMapping records a visitor mapping lookup.
func (m *Metrics) RecordMapping(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.mappingHits.Add(1)
	} else {
		m.mappingMisses.Add(1)
	}
}

// --- Query Methods ---

// ParsesTotal returns the total number of parses performed.
func (m *Metrics) ParsesTotal() uint64 {
	return m.parsesTotal.Load()
}

// ParsesFailed returns the number of parses that failed.
func (m *Metrics) ParsesFailed() uint64 {
	return m.parsesFailed.Load()
}

// AverageParseTime returns the average parse duration.
func (m *Metrics) AverageParseTime() time.Duration {
	total := m.parsesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.parseTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinParseTime returns the minimum parse duration.
func (m *Metrics) MinParseTime() time.Duration {
	minVal := m.parseTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MaxParseTime returns the maximum parse duration.
func (m *Metrics) MaxParseTime() time.Duration {
	return time.Duration(m.parseTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// CacheHits returns the total cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheEvictions returns the number of trees evicted or expired.
func (m *Metrics) CacheEvictions() uint64 {
	return m.cacheEvictions.Load()
}

// CacheHitRate returns the cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Traversals returns the number of traversals started.
func (m *Metrics) Traversals() uint64 {
	return m.traversals.Load()
}

// LeavesVisited returns the number of leaves handed to a visitor.
func (m *Metrics) LeavesVisited() uint64 {
	return m.leavesVisited.Load()
}

// LeavesSkipped returns the number of leaves whose marker was not accepted.
func (m *Metrics) LeavesSkipped() uint64 {
	return m.leavesSkipped.Load()
}

// NodesVisited returns the number of node visits.
func (m *Metrics) NodesVisited() uint64 {
	return m.nodesVisited.Load()
}

// Instantiations returns the number of nodes constructed during traversal.
func (m *Metrics) Instantiations() uint64 {
	return m.instantiations.Load()
}

// MappingHitRate returns the visitor mapping memo hit rate (0.0 to 1.0).
func (m *Metrics) MappingHitRate() float64 {
	hits := m.mappingHits.Load()
	total := hits + m.mappingMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	ParsesTotal    uint64 `json:"parses_total" yaml:"parsesTotal"`
	ParsesFailed   uint64 `json:"parses_failed" yaml:"parsesFailed"`
	AvgParseTimeNs uint64 `json:"avg_parse_time_ns" yaml:"avgParseTimeNs"`
	MinParseTimeNs uint64 `json:"min_parse_time_ns" yaml:"minParseTimeNs"`
	MaxParseTimeNs uint64 `json:"max_parse_time_ns" yaml:"maxParseTimeNs"`

	CacheHits      uint64  `json:"cache_hits" yaml:"cacheHits"`
	CacheMisses    uint64  `json:"cache_misses" yaml:"cacheMisses"`
	CacheEvictions uint64  `json:"cache_evictions" yaml:"cacheEvictions"`
	CacheHitRate   float64 `json:"cache_hit_rate" yaml:"cacheHitRate"`

	Traversals     uint64 `json:"traversals" yaml:"traversals"`
	LeavesVisited  uint64 `json:"leaves_visited" yaml:"leavesVisited"`
	LeavesSkipped  uint64 `json:"leaves_skipped" yaml:"leavesSkipped"`
	NodesVisited   uint64 `json:"nodes_visited" yaml:"nodesVisited"`
	Instantiations uint64 `json:"instantiations" yaml:"instantiations"`

	MappingHits   uint64 `json:"mapping_hits" yaml:"mappingHits"`
	MappingMisses uint64 `json:"mapping_misses" yaml:"mappingMisses"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	total := m.parsesTotal.Load()

	var avg uint64
	if total > 0 {
		avg = m.parseTimeTotal.Load() / total
	}

	minTime := m.parseTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:      time.Now(),
		ParsesTotal:    total,
		ParsesFailed:   m.parsesFailed.Load(),
		AvgParseTimeNs: avg,
		MinParseTimeNs: minTime,
		MaxParseTimeNs: m.parseTimeMax.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		CacheEvictions: m.cacheEvictions.Load(),
		CacheHitRate:   m.CacheHitRate(),
		Traversals:     m.traversals.Load(),
		LeavesVisited:  m.leavesVisited.Load(),
		LeavesSkipped:  m.leavesSkipped.Load(),
		NodesVisited:   m.nodesVisited.Load(),
		Instantiations: m.instantiations.Load(),
		MappingHits:    m.mappingHits.Load(),
		MappingMisses:  m.mappingMisses.Load(),
	}
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.parsesTotal.Store(0)
	m.parsesFailed.Store(0)
	m.parseTimeTotal.Store(0)
	m.parseTimeMin.Store(^uint64(0))
	m.parseTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.cacheEvictions.Store(0)
	m.traversals.Store(0)
	m.leavesVisited.Store(0)
	m.leavesSkipped.Store(0)
	m.nodesVisited.Store(0)
	m.instantiations.Store(0)
	m.mappingHits.Store(0)
	m.mappingMisses.Store(0)
}
