package model

import (
	"reflect"
	"sync"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/pool"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Kind is the classification of a member.
type Kind int

const (
	// None members are ignored.
	None Kind = iota
	// Leaf members carry exactly one marker.
	Leaf
	// Node members hold a leaf at some depth.
	Node
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Node:
		return "node"
	default:
		return "none"
	}
}

// Path is the set of struct types on the current search path.
type Path map[reflect.Type]struct{}

// search is a memoized nested-leaf outcome. explored lists every type the
// search entered; the outcome holds for any path disjoint from it.
type search struct {
	found    bool
	explored []reflect.Type
}

// Lexer classifies members. It is safe for concurrent use.
type Lexer struct {
	oracle  Oracle
	memo    *lru.Cache
	members sync.Map // reflect.Type -> []reflect.StructField
	sets    *pool.MapPool[reflect.Type, struct{}]
	log     logrus.FieldLogger
}

// NewLexer creates a Lexer backed by oracle. memoSize bounds the number of
// remembered nested-leaf outcomes.
func NewLexer(oracle Oracle, memoSize int, log logrus.FieldLogger) (*Lexer, error) {
	if memoSize <= 0 {
		memoSize = 1024
	}
	memo, err := lru.New(memoSize)
	if err != nil {
		return nil, errors.Wrap(err, "create lexer memo")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lexer{
		oracle: oracle,
		memo:   memo,
		sets:   pool.NewMapPool[reflect.Type, struct{}](16),
		log:    log,
	}, nil
}

// Oracle returns the oracle the lexer consults.
func (l *Lexer) Oracle() Oracle {
	return l.oracle
}

// Classify returns the kind of member d and, for leaves, its marker. path
// holds the struct types currently being expanded; they count as leaf-less.
func (l *Lexer) Classify(d Descriptor, path Path) (Kind, arbor.Marker, error) {
	if l.excluded(d) {
		return None, arbor.NoMarker, nil
	}
	leaf, marker, err := l.IsLeaf(d)
	if err != nil || leaf {
		return Leaf, marker, err
	}
	if l.IsNode(d, path) {
		return Node, arbor.NoMarker, nil
	}
	return None, arbor.NoMarker, nil
}

// IsLeaf reports whether d carries exactly one marker. Two or more markers
// make the member ambiguous and yield a configuration error.
func (l *Lexer) IsLeaf(d Descriptor) (bool, arbor.Marker, error) {
	markers := l.oracle.LeafMarkers(d.Owner, d.Field())
	switch len(markers) {
	case 0:
		return false, arbor.NoMarker, nil
	case 1:
		return true, markers[0], nil
	default:
		l.log.WithFields(logrus.Fields{
			"type":   typeName(d.Owner),
			"member": d.Name,
		}).Warnf("ambiguous member carries %d markers", len(markers))
		return false, arbor.NoMarker, arbor.ConfigurationError(typeName(d.Owner), d.Name,
			errors.Errorf("member carries %d markers %v, want exactly one", len(markers), markers))
	}
}

// IsNode reports whether d is not a leaf and its target struct type holds a
// leaf at some depth. Maps are never nodes.
func (l *Lexer) IsNode(d Descriptor, path Path) bool {
	if l.excluded(d) {
		return false
	}
	if markers := l.oracle.LeafMarkers(d.Owner, d.Field()); len(markers) > 0 {
		return false
	}
	t := d.Target()
	if t.Kind() != reflect.Struct {
		return false
	}
	return l.HasNestedLeaf(t, path)
}

// HasNestedLeaf reports whether struct type t holds a leaf at some depth,
// treating the types in path as leaf-less.
func (l *Lexer) HasNestedLeaf(t reflect.Type, path Path) bool {
	onPath := l.sets.Acquire()
	defer l.sets.Release(onPath)
	for p := range path {
		onPath[p] = struct{}{}
	}
	found, _ := l.nested(t, onPath)
	return found
}

// nested runs the depth-first search and reports whether it touched a type
// on the path it was given.
func (l *Lexer) nested(t reflect.Type, onPath map[reflect.Type]struct{}) (found, cut bool) {
	if _, ok := onPath[t]; ok {
		return false, true
	}
	if v, ok := l.memo.Get(t); ok {
		s := v.(search)
		if disjoint(s.explored, onPath) {
			return s.found, false
		}
	}

	onPath[t] = struct{}{}
	explored := []reflect.Type{t}
	defer delete(onPath, t)

	for _, f := range l.Members(t) {
		d := DescriptorOf(t, f)
		if l.excluded(d) {
			continue
		}
		if len(l.oracle.LeafMarkers(t, f)) > 0 {
			found = true
			break
		}
		target := d.Target()
		if target.Kind() != reflect.Struct {
			continue
		}
		sub, subCut := l.nested(target, onPath)
		explored = append(explored, l.explored(target)...)
		cut = cut || subCut
		if sub {
			found = true
			break
		}
	}

	// Cuts against types entered by this very search are the same from
	// any starting path; only cuts against the caller's path are not.
	if !cut || found {
		l.memo.Add(t, search{found: found, explored: dedupe(explored)})
	}
	return found, cut && !found
}

// explored returns the explored set recorded for t, or t alone.
func (l *Lexer) explored(t reflect.Type) []reflect.Type {
	if v, ok := l.memo.Peek(t); ok {
		return v.(search).explored
	}
	return []reflect.Type{t}
}

// Members returns the members of struct type t with ancestors flattened,
// base first. Index paths are relative to t. A member shadowed by a
// shallower one of the same name is dropped, as are same-depth conflicts.
func (l *Lexer) Members(t reflect.Type) []reflect.StructField {
	if v, ok := l.members.Load(t); ok {
		return v.([]reflect.StructField)
	}
	fields := l.flatten(t, nil, map[reflect.Type]bool{})
	fields = resolveShadowing(fields)
	v, _ := l.members.LoadOrStore(t, fields)
	return v.([]reflect.StructField)
}

func (l *Lexer) flatten(t reflect.Type, prefix []int, seen map[reflect.Type]bool) []reflect.StructField {
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	var ancestors, own []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		f.Index = append(append(make([]int, 0, len(prefix)+1), prefix...), i)
		if l.isAncestor(t, f) {
			ancestors = append(ancestors, l.flatten(f.Type, f.Index, seen)...)
			continue
		}
		own = append(own, f)
	}
	return append(ancestors, own...)
}

// isAncestor reports whether f is an embedded value struct without marker.
func (l *Lexer) isAncestor(owner reflect.Type, f reflect.StructField) bool {
	if !f.Anonymous || f.Type.Kind() != reflect.Struct {
		return false
	}
	if ex, ok := l.oracle.(Excluder); ok && ex.Excluded(owner, f) {
		return false
	}
	return len(l.oracle.LeafMarkers(owner, f)) == 0
}

func (l *Lexer) excluded(d Descriptor) bool {
	ex, ok := l.oracle.(Excluder)
	return ok && d.Owner != nil && ex.Excluded(d.Owner, d.Field())
}

func resolveShadowing(fields []reflect.StructField) []reflect.StructField {
	depth := make(map[string]int, len(fields))
	count := make(map[string]int, len(fields))
	for _, f := range fields {
		d, ok := depth[f.Name]
		switch {
		case !ok || len(f.Index) < d:
			depth[f.Name] = len(f.Index)
			count[f.Name] = 1
		case len(f.Index) == d:
			count[f.Name]++
		}
	}
	out := make([]reflect.StructField, 0, len(fields))
	for _, f := range fields {
		if len(f.Index) == depth[f.Name] && count[f.Name] == 1 {
			out = append(out, f)
		}
	}
	return out
}

func disjoint(types []reflect.Type, set map[reflect.Type]struct{}) bool {
	for _, t := range types {
		if _, ok := set[t]; ok {
			return false
		}
	}
	return true
}

func dedupe(types []reflect.Type) []reflect.Type {
	seen := make(map[reflect.Type]struct{}, len(types))
	out := types[:0]
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
