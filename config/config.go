// Package config loads engine settings from YAML files.
//
//	cache:
//	  maxWeight: 50000
//	  ttl: 10m
//	classification:
//	  tagKey: arbor
//	  markers: [sum, copy]
//	access:
//	  backend: fast
//	traversal:
//	  policy:
//	    instantiateMissingNodes: true
//	  parallel: true
//	  workers: 4
//	log:
//	  verbose: true
//
// Missing settings take the engine defaults. When several files are loaded,
// later files override earlier ones key by key.
package config

import (
	"os"
	"time"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/pkg/logger"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML document.
type File struct {
	Cache          Cache          `yaml:"cache"`
	Classification Classification `yaml:"classification"`
	Access         Access         `yaml:"access"`
	Traversal      Traversal      `yaml:"traversal"`
	Log            Log            `yaml:"log"`
}

// Cache configures the tree cache.
type Cache struct {
	MaxWeight int64         `yaml:"maxWeight"`
	TTL       time.Duration `yaml:"ttl"`
}

// Classification configures member classification.
type Classification struct {
	TagKey       string         `yaml:"tagKey"`
	Markers      []arbor.Marker `yaml:"markers"`
	NodeMemoSize int            `yaml:"nodeMemoSize"`
}

// Access selects the accessor backend.
type Access struct {
	Backend arbor.Backend `yaml:"backend"`
}

// Traversal configures the walker.
type Traversal struct {
	Policy   arbor.Policy `yaml:"policy"`
	Parallel bool         `yaml:"parallel"`
	Workers  int          `yaml:"workers"`
}

// Log configures the logger.
type Log struct {
	Verbose      bool `yaml:"verbose"`
	Trace        bool `yaml:"trace"`
	JSON         bool `yaml:"json"`
	DisableColor bool `yaml:"disableColor"`
}

// Default returns the settings matching arbor.DefaultOptions.
func Default() *File {
	def := arbor.DefaultOptions()
	return &File{
		Cache: Cache{
			MaxWeight: def.CacheMaxWeight,
			TTL:       def.CacheTTL,
		},
		Classification: Classification{
			TagKey:       def.TagKey,
			NodeMemoSize: def.NodeMemoSize,
		},
		Access: Access{Backend: def.Backend},
		Traversal: Traversal{
			Policy:   def.Policy,
			Parallel: def.Parallel,
			Workers:  def.Workers,
		},
	}
}

// Parse decodes one document and fills unset values from Default.
func Parse(data []byte) (*File, error) {
	f, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(f, Default()); err != nil {
		return nil, errors.Wrap(err, "apply defaults")
	}
	return f, f.Validate()
}

// Load reads paths in order, each overriding the values set by the ones
// before it, and fills unset values from Default. Every file is decoded onto
// the same document, so only the keys a file names replace earlier values;
// an explicit false or zero overrides as well.
func Load(paths ...string) (*File, error) {
	merged := &File{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, merged); err != nil {
			return nil, errors.Wrapf(err, "config %s: decode yaml", path)
		}
	}
	if err := mergo.Merge(merged, Default()); err != nil {
		return nil, errors.Wrap(err, "apply defaults")
	}
	return merged, merged.Validate()
}

func decode(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	return f, nil
}

// Validate checks values the engine options would silently ignore.
func (f *File) Validate() error {
	if !f.Access.Backend.IsValid() {
		return errors.Errorf("unknown backend %q", f.Access.Backend)
	}
	if f.Cache.MaxWeight < 0 {
		return errors.Errorf("cache.maxWeight must not be negative, got %d", f.Cache.MaxWeight)
	}
	if f.Cache.TTL < 0 {
		return errors.Errorf("cache.ttl must not be negative, got %s", f.Cache.TTL)
	}
	return nil
}

// Options converts the settings to engine options.
func (f *File) Options() []arbor.Option {
	opts := []arbor.Option{
		arbor.WithCacheMaxWeight(f.Cache.MaxWeight),
		arbor.WithCacheTTL(f.Cache.TTL),
		arbor.WithTagKey(f.Classification.TagKey),
		arbor.WithNodeMemoSize(f.Classification.NodeMemoSize),
		arbor.WithBackend(f.Access.Backend),
		arbor.WithPolicy(f.Traversal.Policy),
		arbor.WithParallel(f.Traversal.Parallel),
		arbor.WithWorkers(f.Traversal.Workers),
	}
	if len(f.Classification.Markers) > 0 {
		opts = append(opts, arbor.WithMarkers(f.Classification.Markers...))
	}
	return opts
}

// LogOptions converts the log settings for logger.Init.
func (f *File) LogOptions() logger.LogOptions {
	return logger.LogOptions{
		Verbose:      f.Log.Verbose,
		Trace:        f.Log.Trace,
		JSON:         f.Log.JSON,
		DisableColor: f.Log.DisableColor,
	}
}
