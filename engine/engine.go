// Package engine wires classification, parsing, the tree cache and the
// walker into a single entry point.
package engine

import (
	"context"
	"iter"
	"reflect"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/gofhir/arbor/cache"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/walker"
	"github.com/gofhir/arbor/worker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine is the arbor entry point. It parses types on first use, caches
// their trees and runs traversals over instances. It is safe for concurrent
// use.
type Engine struct {
	// Configuration
	options *arbor.Options

	// Classification and access
	oracle   *model.TagOracle
	registry *accessor.Registry
	lexer    *model.Lexer
	parser   *model.Parser

	// Trees
	trees *model.Cache

	// Traversal
	walker *walker.Walker

	// Metrics
	metrics *arbor.Metrics
	log     logrus.FieldLogger
}

// New creates an Engine with the specified options.
func New(opts ...arbor.Option) (*Engine, error) {
	options := arbor.Apply(opts...)
	if !options.Backend.IsValid() {
		return nil, errors.Errorf("engine: unknown backend %q", options.Backend)
	}

	e := &Engine{
		options:  options,
		oracle:   model.NewTagOracle(options.TagKey, options.Markers...),
		registry: accessor.NewRegistry(),
		metrics:  arbor.NewMetrics(),
		log:      options.Logger,
	}

	lexer, err := model.NewLexer(e.oracle, options.NodeMemoSize, e.log)
	if err != nil {
		return nil, errors.Wrap(err, "engine: create lexer")
	}
	e.lexer = lexer
	e.parser = model.NewParser(lexer, e.backend(),
		model.WithParserLogger(e.log),
		model.WithParserMetrics(e.metrics),
	)
	e.trees = model.NewCache(e.parser,
		model.WithMaxWeight(options.CacheMaxWeight),
		model.WithTTL(options.CacheTTL),
		model.WithCacheLogger(e.log),
		model.WithCacheMetrics(e.metrics),
	)

	wopts := []walker.Option{
		walker.WithPolicy(options.Policy),
		walker.WithLogger(e.log),
		walker.WithMetrics(e.metrics),
	}
	if options.Parallel {
		wopts = append(wopts, walker.WithParallel(options.Workers))
	}
	e.walker = walker.New(wopts...)

	e.log.WithFields(logrus.Fields{
		"backend":  options.Backend,
		"tagKey":   e.oracle.Key(),
		"parallel": options.Parallel,
	}).Debug("engine created")
	return e, nil
}

// backend resolves the configured accessor backend. Registered functions
// always take precedence.
func (e *Engine) backend() accessor.Backend {
	switch e.options.Backend {
	case arbor.BackendReflect:
		return accessor.Memoize(accessor.Chain(e.registry, accessor.Reflect()))
	case arbor.BackendFast:
		return accessor.Memoize(accessor.Chain(e.registry, accessor.Fast()))
	default:
		return accessor.Memoize(accessor.Chain(e.registry, accessor.Fast(), accessor.Reflect()))
	}
}

// Options returns the configuration the engine was created with.
func (e *Engine) Options() arbor.Options {
	return *e.options
}

// Registry returns the registry consulted before the configured backend.
// Register functions before the owning type is first parsed.
func (e *Engine) Registry() *accessor.Registry {
	return e.registry
}

// Oracle returns the tag oracle, for registering ordering directives.
func (e *Engine) Oracle() *model.TagOracle {
	return e.oracle
}

// Metrics returns the engine metrics.
func (e *Engine) Metrics() *arbor.Metrics {
	return e.metrics
}

// CacheStats returns the tree cache statistics.
func (e *Engine) CacheStats() cache.Stats {
	return e.trees.Stats()
}

// Tree returns the tree of t, parsing it on first use.
func (e *Engine) Tree(t reflect.Type) (*model.Tree, error) {
	return e.trees.Get(t)
}

// TreeOf returns the tree of T.
func TreeOf[T any](e *Engine) (*model.Tree, error) {
	return e.Tree(reflect.TypeFor[T]())
}

// Invalidate drops the cached tree of t.
func (e *Engine) Invalidate(t reflect.Type) {
	e.trees.Invalidate(t)
}

// Purge drops every cached tree.
func (e *Engine) Purge() {
	e.trees.Purge()
}

// Walker returns the engine's walker with opts applied on top of the
// configured policy and parallelism.
func (e *Engine) Walker(opts ...walker.Option) *walker.Walker {
	if len(opts) == 0 {
		return e.walker
	}
	return e.walker.With(opts...)
}

// PreOrder walks instance, a pointer to a struct, with v.
func (e *Engine) PreOrder(instance any, v walker.Visitor, args ...any) error {
	tr, err := e.treeFor(instance)
	if err != nil {
		return err
	}
	return e.walker.PreOrder(tr, v, instance, args...)
}

// PostOrder walks instance with v and returns the root node result.
func (e *Engine) PostOrder(instance any, v walker.Visitor, args ...any) (any, error) {
	tr, err := e.treeFor(instance)
	if err != nil {
		return nil, err
	}
	return e.walker.PostOrder(tr, v, instance, args...)
}

// Leaves streams the leaves of instance that v accepts.
func (e *Engine) Leaves(instance any, v walker.Visitor, args ...any) iter.Seq2[*walker.Visit, error] {
	tr, err := e.treeFor(instance)
	if err != nil {
		return func(yield func(*walker.Visit, error) bool) {
			yield(nil, err)
		}
	}
	return e.walker.Leaves(tr, v, instance, args...)
}

// Run runs a single job. It makes the engine a worker.Runner.
func (e *Engine) Run(ctx context.Context, job worker.Job) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch job.Order {
	case worker.PostOrder:
		return e.PostOrder(job.Instance, job.Visitor, job.Args...)
	default:
		return nil, e.PreOrder(job.Instance, job.Visitor, job.Args...)
	}
}

// Batch runs jobs with the configured number of workers.
func (e *Engine) Batch(ctx context.Context, jobs []worker.Job) *worker.BatchResult {
	return worker.Batch(ctx, e, jobs, e.options.Workers)
}

// NewPool starts a worker pool running jobs on the engine. The caller must
// close it.
func (e *Engine) NewPool() *worker.Pool {
	return worker.NewPool(e, e.options.Workers)
}

func (e *Engine) treeFor(instance any) (*model.Tree, error) {
	t, err := typeOf(instance)
	if err != nil {
		return nil, err
	}
	return e.trees.Get(t)
}

// typeOf returns the struct type an instance designates.
func typeOf(instance any) (reflect.Type, error) {
	var t reflect.Type
	if rv, ok := instance.(reflect.Value); ok {
		if !rv.IsValid() {
			return nil, arbor.AccessError("", "", errors.New("nil instance"))
		}
		t = rv.Type()
	} else {
		t = reflect.TypeOf(instance)
	}
	if t == nil {
		return nil, arbor.AccessError("", "", errors.New("nil instance"))
	}
	return accessor.Indirect(t), nil
}
