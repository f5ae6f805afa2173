package walker

import (
	"iter"
	"reflect"
	"runtime"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/pool"
	"github.com/gofhir/arbor/tree"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// errStopped unwinds a streaming traversal whose consumer stopped.
var errStopped = errors.New("walker: stopped")

// resultSlices recycles the child result slices of node visits.
var resultSlices = pool.NewSlicePool[any](8, 256)

// Walker runs traversals. It is immutable and safe for concurrent use.
type Walker struct {
	policy   arbor.Policy
	parallel bool
	workers  int
	log      logrus.FieldLogger
	metrics  *arbor.Metrics
}

// Option configures a Walker.
type Option func(*Walker)

// WithPolicy sets the null-branch and node-visit policy.
func WithPolicy(p arbor.Policy) Option {
	return func(w *Walker) {
		w.policy = p
	}
}

// WithParallel lets children of unordered nodes run concurrently, at most
// workers at a time per node. Zero or less means runtime.NumCPU().
// Streaming traversals always run sequentially.
func WithParallel(workers int) Option {
	return func(w *Walker) {
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		w.parallel = true
		w.workers = workers
	}
}

// WithSequential disables parallel traversal.
func WithSequential() Option {
	return func(w *Walker) {
		w.parallel = false
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Walker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithMetrics records traversal counters into m.
func WithMetrics(m *arbor.Metrics) Option {
	return func(w *Walker) {
		w.metrics = m
	}
}

// New creates a Walker. The default policy skips null branches, visits
// leaves only and runs sequentially.
func New(opts ...Option) *Walker {
	w := &Walker{
		workers: runtime.NumCPU(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// With returns a copy of w with opts applied.
func (w *Walker) With(opts ...Option) *Walker {
	c := *w
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Policy returns the walker's policy.
func (w *Walker) Policy() arbor.Policy {
	return w.policy
}

// PreOrder walks instance along tr, visiting nodes (if the policy says so)
// before their children. instance is a pointer to a value of the tree's
// type; a struct value is walked on a copy.
func (w *Walker) PreOrder(tr *model.Tree, v Visitor, instance any, args ...any) error {
	_, err := w.run(tr, v, instance, args, false, nil)
	return err
}

// PostOrder walks instance along tr, visiting nodes (if the policy says so)
// after their children, and returns the result of the root node visit.
func (w *Walker) PostOrder(tr *model.Tree, v Visitor, instance any, args ...any) (any, error) {
	return w.run(tr, v, instance, args, true, nil)
}

// Leaves returns an iterator over the leaves v accepts, in pre-order. The
// visitor's VisitLeaf is not called: the consumer handles each Visit. A
// failure is yielded once, with a nil Visit, and ends the iteration.
func (w *Walker) Leaves(tr *model.Tree, v Visitor, instance any, args ...any) iter.Seq2[*Visit, error] {
	return func(yield func(*Visit, error) bool) {
		_, err := w.run(tr, v, instance, args, false, func(vis *Visit) bool {
			return yield(vis, nil)
		})
		if err != nil && err != errStopped {
			yield(nil, err)
		}
	}
}

func (w *Walker) run(tr *model.Tree, v Visitor, instance any, args []any, post bool, yield func(*Visit) bool) (any, error) {
	if tr == nil || v == nil {
		return nil, errors.New("walker: nil tree or visitor")
	}
	root, err := rootValue(tr, instance)
	if err != nil {
		return nil, err
	}

	w.metrics.RecordTraversal()
	w.log.WithFields(logrus.Fields{
		"type":    tr.Type().String(),
		"visitor": visitorName(v),
	}).Trace("traversal started")

	p := &pass{
		w:       w,
		visitor: v,
		key:     reflect.TypeOf(v),
		args:    args,
		post:    post,
		yield:   yield,
		shared:  tr.Shared(),
		path:    pool.AcquirePath(tr.Type().Name()),
	}
	defer p.path.Release()
	p.leafV, _ = v.(LeafVisitor)
	p.nodeV, _ = v.(NodeVisitor)
	p.mapper, _ = v.(Mapper)

	return p.node(tr.Root(), root, 0, -1)
}

// rootValue resolves instance to an addressable struct of the tree's type.
func rootValue(tr *model.Tree, instance any) (reflect.Value, error) {
	rv, ok := instance.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(instance)
	}
	name := tr.Type().Name()
	if !rv.IsValid() {
		return reflect.Value{}, arbor.AccessError(name, "", errors.New("nil instance"))
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, arbor.AccessError(name, "", errors.New("nil instance"))
		}
		rv = rv.Elem()
	}
	if rv.Type() != tr.Type() {
		return reflect.Value{}, arbor.AccessError(name, "", errors.Errorf("instance is %s, want %s", rv.Type(), tr.Type()))
	}
	if !rv.CanAddr() {
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		rv = cp
	}
	return rv, nil
}

// pass is the state of one traversal. Parallel branches work on shallow
// copies holding their own path.
type pass struct {
	w       *Walker
	visitor Visitor
	leafV   LeafVisitor
	nodeV   NodeVisitor
	mapper  Mapper
	key     reflect.Type
	args    []any
	post    bool
	yield   func(*Visit) bool
	shared  *model.Shared
	path    *pool.Path
}

func (p *pass) visitNodes() bool {
	return p.w.policy.VisitNodes && p.yield == nil
}

// node processes node n held by container. For the root, container is the
// instance itself.
func (p *pass) node(n *tree.Node[*model.Element], container reflect.Value, depth, index int) (any, error) {
	e := n.Data()

	var inst reflect.Value
	null := false
	switch {
	case n.IsRoot():
		inst = container
	case !container.IsValid():
		null = true
	default:
		val, err := e.Get(container)
		if err != nil {
			return nil, err
		}
		inst = val
		if isNil(val) {
			null = true
			if p.w.policy.InstantiateMissingNodes {
				if inst, err = p.instantiate(e, container); err != nil {
					return nil, err
				}
				null = false
			}
		}
	}
	if null && !p.w.policy.IncludeNullBranches {
		return nil, nil
	}

	var target reflect.Value
	writeBack := false
	if !null {
		target, writeBack = addressable(inst)
	}

	if !p.post && p.visitNodes() {
		if _, err := p.visitNode(n, container, inst, null, depth, index, nil, nil); err != nil {
			return nil, err
		}
	}

	var (
		results []any
		items   [][]any
		bufs    []*[]any
		err     error
	)
	defer func() {
		for _, b := range bufs {
			resultSlices.Release(b)
		}
	}()
	if e.IsCollection() && target.IsValid() {
		items, bufs, err = p.items(n, target, depth, index)
	} else {
		var buf *[]any
		buf, err = p.children(n, target, depth, index)
		if buf != nil {
			bufs = append(bufs, buf)
			results = *buf
		}
	}
	if err != nil {
		return nil, err
	}

	if writeBack && !n.IsRoot() {
		if err := e.Set(container, target); err != nil {
			return nil, err
		}
	}

	if p.post && p.visitNodes() {
		return p.visitNode(n, container, inst, null, depth, index, results, items)
	}
	return nil, nil
}

// items processes every item of collection node n. The returned buffers
// back the item results and go back to the pool after the node visit.
func (p *pass) items(n *tree.Node[*model.Element], coll reflect.Value, depth, index int) ([][]any, []*[]any, error) {
	e := n.Data()
	out := make([][]any, coll.Len())
	bufs := make([]*[]any, 0, len(out))
	for i := range out {
		item := coll.Index(i)
		if item.Kind() == reflect.Pointer {
			if item.IsNil() && p.w.policy.InstantiateMissingNodes {
				fresh, err := e.New()
				if err != nil {
					return nil, bufs, err
				}
				item.Set(fresh)
				p.w.metrics.RecordInstantiation()
			}
			if item.IsNil() {
				if !p.w.policy.IncludeNullBranches {
					continue
				}
				item = reflect.Value{}
			} else {
				item = item.Elem()
			}
		}

		p.path.PushIndex(i)
		buf, err := p.children(n, item, depth, i)
		p.path.Pop()
		if buf != nil {
			bufs = append(bufs, buf)
		}
		if err != nil {
			return nil, bufs, err
		}
		out[i] = *buf
	}
	return out, bufs, nil
}

// children processes the children of n against container. The results
// live in a pooled buffer owned by the caller.
func (p *pass) children(n *tree.Node[*model.Element], container reflect.Value, depth, index int) (*[]any, error) {
	kids := n.Children()
	buf := resultSlices.Acquire()
	if cap(*buf) < len(kids) {
		*buf = make([]any, len(kids))
	} else {
		*buf = (*buf)[:len(kids)]
	}
	results := *buf

	if p.w.parallel && p.yield == nil && n.Data().Unordered() && len(kids) > 1 {
		g := new(errgroup.Group)
		g.SetLimit(p.w.workers)
		for i, c := range kids {
			sub := *p
			sub.path = p.path.Fork()
			g.Go(func() error {
				defer sub.path.Release()
				r, err := sub.child(c, container, depth+1, index)
				results[i] = r
				return err
			})
		}
		return buf, g.Wait()
	}

	for i, c := range kids {
		r, err := p.child(c, container, depth+1, index)
		if err != nil {
			return buf, err
		}
		results[i] = r
	}
	return buf, nil
}

func (p *pass) child(c *tree.Node[*model.Element], container reflect.Value, depth, index int) (any, error) {
	p.path.Push(c.Data().Name())
	defer p.path.Pop()
	if c.Data().IsLeaf() {
		return p.leaf(c, container, depth, index)
	}
	return p.node(c, container, depth, index)
}

func (p *pass) leaf(n *tree.Node[*model.Element], container reflect.Value, depth, index int) (any, error) {
	e := n.Data()
	if p.w.policy.IgnoreLeaves {
		return nil, nil
	}
	if !p.visitor.Accepts(e.Marker()) {
		p.w.metrics.RecordLeaf(false)
		return nil, nil
	}
	mapped, err := p.mapping(e)
	if err != nil {
		return nil, err
	}

	vis := acquireVisit()
	defer vis.release()
	vis.Element = e
	vis.Node = n
	vis.Mapped = mapped
	vis.Container = container
	vis.Depth = depth
	vis.Index = index
	vis.Args = p.args
	vis.Shared = p.shared
	vis.null = !container.IsValid()
	vis.path = p.path
	p.w.metrics.RecordLeaf(true)

	if p.yield != nil {
		if !p.yield(vis) {
			return nil, errStopped
		}
		return nil, nil
	}
	if p.leafV == nil {
		return nil, arbor.UnsupportedOperationError(visitorName(p.visitor), "VisitLeaf")
	}
	return p.leafV.VisitLeaf(vis)
}

func (p *pass) visitNode(n *tree.Node[*model.Element], container, inst reflect.Value, null bool, depth, index int, results []any, items [][]any) (any, error) {
	if p.nodeV == nil {
		return nil, arbor.UnsupportedOperationError(visitorName(p.visitor), "VisitNode")
	}

	e := n.Data()
	vis := acquireVisit()
	defer vis.release()
	vis.Element = e
	vis.Node = n
	vis.Mapped = e
	vis.Container = container
	vis.Depth = depth
	vis.Index = index
	vis.Args = p.args
	vis.Results = results
	vis.Items = items
	vis.Shared = p.shared
	vis.null = null
	vis.instance = inst
	vis.path = p.path
	p.w.metrics.RecordNode()

	return p.nodeV.VisitNode(vis)
}

// mapping returns the visitor's memoized view of e.
func (p *pass) mapping(e *model.Element) (any, error) {
	if p.mapper == nil {
		return e, nil
	}
	v, hit, err := e.Mapped(p.key, func(el *model.Element) (any, error) {
		return p.mapper.Map(el)
	})
	if err != nil {
		return nil, err
	}
	p.w.metrics.RecordMapping(hit)
	return v, nil
}

// instantiate assigns a fresh instance to the nil node e of container.
func (p *pass) instantiate(e *model.Element, container reflect.Value) (reflect.Value, error) {
	var fresh reflect.Value
	switch t := e.Type(); t.Kind() {
	case reflect.Slice:
		fresh = reflect.MakeSlice(t, 0, 0)
	case reflect.Pointer:
		v, err := e.New()
		if err != nil {
			return reflect.Value{}, err
		}
		fresh = v
	default:
		return reflect.Value{}, arbor.AccessError(typeName(e), e.Name(), errors.Errorf("cannot instantiate %s", t))
	}
	if err := e.Set(container, fresh); err != nil {
		return reflect.Value{}, err
	}
	p.w.metrics.RecordInstantiation()
	return fresh, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// addressable returns the value children are read from: the pointee of a
// pointer, or an addressable copy of a struct or array that is not. The
// flag reports that the copy must be written back.
func addressable(inst reflect.Value) (reflect.Value, bool) {
	switch inst.Kind() {
	case reflect.Pointer:
		return inst.Elem(), false
	case reflect.Struct, reflect.Array:
		if inst.CanAddr() {
			return inst, false
		}
		cp := reflect.New(inst.Type()).Elem()
		cp.Set(inst)
		return cp, true
	default:
		return inst, false
	}
}
