package arbor

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy selects how a traversal treats null nodes, node boundaries and
// leaves. The zero value visits accepted leaves only and skips null branches.
type Policy struct {
	// IncludeNullBranches descends into nodes whose instance is nil.
	IncludeNullBranches bool `yaml:"includeNullBranches"`

	// InstantiateMissingNodes constructs and assigns an instance for a nil
	// node before descending into it.
	InstantiateMissingNodes bool `yaml:"instantiateMissingNodes"`

	// VisitNodes invokes the visitor at node boundaries as well as leaves.
	VisitNodes bool `yaml:"visitNodes"`

	// IgnoreLeaves skips every leaf.
	IgnoreLeaves bool `yaml:"ignoreLeaves"`
}

// Backend names an accessor backend.
type Backend string

// Accessor backends.
const (
	// BackendAuto tries the fast path and falls back to reflection.
	BackendAuto Backend = "auto"
	// BackendReflect uses the reflect package only.
	BackendReflect Backend = "reflect"
	// BackendFast uses offset-based access through reflect2.
	BackendFast Backend = "fast"
)

// IsValid reports whether b names a known backend.
func (b Backend) IsValid() bool {
	switch b {
	case BackendAuto, BackendReflect, BackendFast:
		return true
	default:
		return false
	}
}

// DefaultTagKey is the struct tag carrying markers.
const DefaultTagKey = "arbor"

// Option configures the engine.
type Option func(*Options)

// Options holds all configuration for the engine.
type Options struct {
	// Tree cache
	CacheMaxWeight int64
	CacheTTL       time.Duration

	// Classification
	TagKey       string
	Markers      []Marker
	NodeMemoSize int

	// Access
	Backend Backend

	// Traversal
	Policy   Policy
	Parallel bool
	Workers  int

	Logger logrus.FieldLogger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		CacheMaxWeight: 100_000,
		CacheTTL:       30 * time.Minute,

		TagKey:       DefaultTagKey,
		NodeMemoSize: 1024,

		Backend: BackendAuto,

		Parallel: false,
		Workers:  runtime.NumCPU(),

		Logger: logrus.StandardLogger(),
	}
}

// Apply applies opts to a copy of the defaults.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// --- Cache Options ---

// WithCacheMaxWeight bounds the total weight of cached trees.
// The weight of a tree is its element count.
func WithCacheMaxWeight(weight int64) Option {
	return func(o *Options) {
		if weight > 0 {
			o.CacheMaxWeight = weight
		}
	}
}

// WithCacheTTL sets the idle time after which a cached tree expires.
// Use 0 to disable expiry.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.CacheTTL = ttl
	}
}

// --- Classification Options ---

// WithTagKey sets the struct tag key carrying markers.
func WithTagKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.TagKey = key
		}
	}
}

// WithMarkers restricts the tag values that count as markers.
// With no markers configured every tag value is a marker.
func WithMarkers(markers ...Marker) Option {
	return func(o *Options) {
		o.Markers = append(o.Markers[:0:0], markers...)
	}
}

// WithNodeMemoSize sets the size of the classifier's nested-leaf memo.
func WithNodeMemoSize(size int) Option {
	return func(o *Options) {
		o.NodeMemoSize = size
	}
}

// --- Access Options ---

// WithBackend selects the accessor backend.
func WithBackend(b Backend) Option {
	return func(o *Options) {
		if b.IsValid() {
			o.Backend = b
		}
	}
}

// --- Traversal Options ---

// WithPolicy sets the default traversal policy.
func WithPolicy(p Policy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithParallel enables parallel processing of unordered branches.
func WithParallel(enable bool) Option {
	return func(o *Options) {
		o.Parallel = enable
	}
}

// WithWorkers sets the parallelism limit for unordered branches and batches.
// If n <= 0, runtime.NumCPU() is used.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.Workers = n
	}
}

// WithLogger sets the logger used by every component.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
