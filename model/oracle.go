package model

import (
	"reflect"
	"sync"

	"github.com/gofhir/arbor"
)

// Directive holds the per-type hints read once at parse time.
type Directive struct {
	// Order lists the member names of the type in the order elements must
	// appear. Empty means declaration order.
	Order []string
	// Unordered marks the children of the type's elements as independent,
	// allowing parallel traversal.
	Unordered bool
}

// IsZero reports whether the directive carries no hint.
func (d Directive) IsZero() bool {
	return len(d.Order) == 0 && !d.Unordered
}

// Oracle answers the classification questions about declared members.
type Oracle interface {
	// LeafMarkers returns the markers member f of owner carries. More
	// than one marker makes the member ambiguous.
	LeafMarkers(owner reflect.Type, f reflect.StructField) []arbor.Marker

	// Directive returns the ordering directive of struct type t.
	Directive(t reflect.Type) Directive
}

// Excluder is implemented by oracles that can hide members entirely.
// Excluded members are neither leaves nor nodes.
type Excluder interface {
	Excluded(owner reflect.Type, f reflect.StructField) bool
}

// ElementOrderer is implemented by types declaring their element order.
type ElementOrderer interface {
	ElementOrder() []string
}

// UnorderedElementer is implemented by types whose elements may be
// processed in any order.
type UnorderedElementer interface {
	UnorderedElements() bool
}

var (
	ordererType   = reflect.TypeOf((*ElementOrderer)(nil)).Elem()
	unorderedType = reflect.TypeOf((*UnorderedElementer)(nil)).Elem()
)

// TagOracle reads markers from a struct tag:
//
//	type Line struct {
//		Price int    `arbor:"sum"`
//		Note  string `arbor:"copy"`
//		Cache []byte `arbor:"-"`
//	}
//
// Markers are comma separated; a tag value of "-" excludes the member.
// Directives come from ElementOrder and UnorderedElements methods, or from
// SetDirective, which takes precedence.
type TagOracle struct {
	key     string
	allowed arbor.MarkerSet

	mu         sync.RWMutex
	directives map[reflect.Type]Directive
}

// NewTagOracle creates an oracle reading tag key. When markers are given,
// only those names count as markers and any other name in the tag is
// ignored.
func NewTagOracle(key string, markers ...arbor.Marker) *TagOracle {
	if key == "" {
		key = arbor.DefaultTagKey
	}
	o := &TagOracle{
		key:        key,
		directives: make(map[reflect.Type]Directive),
	}
	if len(markers) > 0 {
		o.allowed = arbor.NewMarkerSet(markers...)
	}
	return o
}

// Key returns the struct tag key.
func (o *TagOracle) Key() string {
	return o.key
}

// SetDirective registers d for struct type t.
func (o *TagOracle) SetDirective(t reflect.Type, d Directive) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.directives[t] = d
}

func (o *TagOracle) LeafMarkers(_ reflect.Type, f reflect.StructField) []arbor.Marker {
	tag, ok := f.Tag.Lookup(o.key)
	if !ok || tag == "-" {
		return nil
	}
	markers := arbor.ParseMarkers(tag)
	if o.allowed == nil {
		return markers
	}
	kept := markers[:0]
	for _, m := range markers {
		if o.allowed.Has(m) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (o *TagOracle) Excluded(_ reflect.Type, f reflect.StructField) bool {
	return f.Tag.Get(o.key) == "-"
}

func (o *TagOracle) Directive(t reflect.Type) Directive {
	o.mu.RLock()
	d, ok := o.directives[t]
	o.mu.RUnlock()
	if ok {
		return d
	}
	return methodDirective(t)
}

// methodDirective reads ElementOrder and UnorderedElements from a fresh
// instance of t, with either value or pointer receivers.
func methodDirective(t reflect.Type) Directive {
	var d Directive
	if t.Kind() != reflect.Struct {
		return d
	}
	pt := reflect.PointerTo(t)
	if !pt.Implements(ordererType) && !pt.Implements(unorderedType) {
		return d
	}
	v := reflect.New(t).Interface()
	if o, ok := v.(ElementOrderer); ok {
		d.Order = append([]string(nil), o.ElementOrder()...)
	}
	if u, ok := v.(UnorderedElementer); ok {
		d.Unordered = u.UnorderedElements()
	}
	return d
}
