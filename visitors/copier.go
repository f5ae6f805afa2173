package visitors

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/tree"
	"github.com/gofhir/arbor/walker"
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
)

// Copier builds a deep copy of an instance during a post-order traversal.
// Leaves return a copy of their value, nodes assemble a fresh instance from
// the results of their children. Members that are neither leaves nor nodes
// are left at their zero value in the copy.
//
// The walker must visit nodes; use Copy or CopyOf rather than walking a
// Copier directly.
type Copier struct {
	markers arbor.MarkerSet
}

// NewCopier creates a Copier copying the leaves carrying markers.
func NewCopier(markers ...arbor.Marker) *Copier {
	return &Copier{markers: arbor.NewMarkerSet(markers...)}
}

func (c *Copier) Accepts(m arbor.Marker) bool {
	return accepts(c.markers, m)
}

func (c *Copier) VisitLeaf(v *walker.Visit) (any, error) {
	val, err := v.Value()
	if err != nil || !val.IsValid() {
		return nil, err
	}
	if val.Kind() == reflect.Interface && val.IsNil() {
		return nil, nil
	}
	dup, err := copyValue(val)
	if err != nil {
		return nil, arbor.AccessError(v.Element.Descriptor().Owner.Name(), v.Element.Name(), err)
	}
	if !dup.IsValid() {
		return nil, nil
	}
	return dup, nil
}

// copyValue deep-copies val. Types whose state is fully reachable through
// exported fields go through copystructure. copystructure skips unexported
// fields, so other types are copied member by member here. Copiers
// registered with copystructure apply to both.
func copyValue(val reflect.Value) (reflect.Value, error) {
	d := deepCopy{ptrs: make(map[pointerKey]reflect.Value)}
	return d.value(val)
}

type pointerKey struct {
	typ reflect.Type
	ptr unsafe.Pointer
}

// deepCopy copies opaque values. Pointers already copied are reused, which
// keeps sharing and ends cycles.
type deepCopy struct {
	ptrs map[pointerKey]reflect.Value
}

func (d *deepCopy) value(val reflect.Value) (reflect.Value, error) {
	t := val.Type()
	switch t.Kind() {
	case reflect.Interface:
		if val.IsNil() {
			return reflect.Zero(t), nil
		}
		return d.value(val.Elem())
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return assigned(val), nil
	}
	if fn, ok := copystructure.Copiers[t]; ok {
		dup, err := fn(val.Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(dup), nil
	}
	if _, ok := copystructure.ShallowCopiers[t]; ok {
		return assigned(val), nil
	}
	if !opaque(t) {
		dup, err := copystructure.Copy(val.Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.ValueOf(dup)
		if !out.IsValid() {
			return reflect.Zero(t), nil
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if val.IsNil() {
			return reflect.Zero(t), nil
		}
		key := pointerKey{typ: t, ptr: val.UnsafePointer()}
		if out, ok := d.ptrs[key]; ok {
			return out, nil
		}
		out := reflect.New(t.Elem())
		d.ptrs[key] = out
		elem, err := d.value(val.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Elem().Set(elem)
		return out, nil
	case reflect.Slice:
		if val.IsNil() {
			return reflect.Zero(t), nil
		}
		out := reflect.MakeSlice(t, val.Len(), val.Len())
		return out, d.items(out, val)
	case reflect.Array:
		out := reflect.New(t).Elem()
		return out, d.items(out, val)
	case reflect.Map:
		if val.IsNil() {
			return reflect.Zero(t), nil
		}
		out := reflect.MakeMapWithSize(t, val.Len())
		it := val.MapRange()
		for it.Next() {
			item, err := d.value(it.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(it.Key(), item)
		}
		return out, nil
	case reflect.Struct:
		src := val
		if !src.CanAddr() {
			src = assigned(val)
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			f, err := d.value(field(src, i))
			if err != nil {
				return reflect.Value{}, err
			}
			field(out, i).Set(f)
		}
		return out, nil
	default:
		return assigned(val), nil
	}
}

func (d *deepCopy) items(dst, src reflect.Value) error {
	for i := 0; i < src.Len(); i++ {
		item, err := d.value(src.Index(i))
		if err != nil {
			return err
		}
		dst.Index(i).Set(item)
	}
	return nil
}

// assigned returns an addressable copy of val.
func assigned(val reflect.Value) reflect.Value {
	out := reflect.New(val.Type()).Elem()
	out.Set(val)
	return out
}

// field returns field i of the addressable struct v, settable even when
// unexported.
func field(v reflect.Value, i int) reflect.Value {
	f := v.Field(i)
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

// opaqueTypes memoizes opaque per type.
var opaqueTypes sync.Map // reflect.Type -> bool

// opaque reports whether t reaches a struct with unexported fields.
func opaque(t reflect.Type) bool {
	if v, ok := opaqueTypes.Load(t); ok {
		return v.(bool)
	}
	found := hasUnexported(t, make(map[reflect.Type]bool))
	opaqueTypes.Store(t, found)
	return found
}

func hasUnexported(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return hasUnexported(t.Elem(), seen)
	case reflect.Map:
		return hasUnexported(t.Key(), seen) || hasUnexported(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || hasUnexported(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

func (c *Copier) VisitNode(v *walker.Visit) (any, error) {
	e := v.Element
	if !e.IsCollection() {
		ptr, err := c.build(v.Node, v.Results)
		if err != nil {
			return nil, err
		}
		if e.Type().Kind() == reflect.Pointer {
			return ptr, nil
		}
		return ptr.Elem(), nil
	}

	var coll reflect.Value
	switch t := e.Type(); t.Kind() {
	case reflect.Slice:
		coll = reflect.MakeSlice(t, len(v.Items), len(v.Items))
	case reflect.Array:
		coll = reflect.New(t).Elem()
	default:
		return nil, errors.Errorf("copier: unexpected collection kind %s", t.Kind())
	}
	for i, results := range v.Items {
		if results == nil {
			continue
		}
		ptr, err := c.build(v.Node, results)
		if err != nil {
			return nil, err
		}
		item := coll.Index(i)
		if item.Kind() == reflect.Pointer {
			item.Set(ptr)
		} else {
			item.Set(ptr.Elem())
		}
	}
	return coll, nil
}

// build creates an instance of the target type of n and stores the child
// results into it.
func (c *Copier) build(n *tree.Node[*model.Element], results []any) (reflect.Value, error) {
	ptr, err := n.Data().New()
	if err != nil {
		return reflect.Value{}, err
	}
	for i, child := range n.Children() {
		if i >= len(results) {
			break
		}
		r, ok := results[i].(reflect.Value)
		if !ok || !r.IsValid() {
			continue
		}
		if err := child.Data().Set(ptr, r); err != nil {
			return reflect.Value{}, err
		}
	}
	return ptr, nil
}

// Copy deep-copies src along tr and returns a pointer to the copy. Only
// leaves carrying markers (every leaf when none are given) and the nodes
// leading to them are copied. Nil nodes stay nil.
func Copy(w *walker.Walker, tr *model.Tree, src any, markers ...arbor.Marker) (any, error) {
	policy := w.Policy()
	policy.VisitNodes = true
	policy.IncludeNullBranches = false
	policy.InstantiateMissingNodes = false
	policy.IgnoreLeaves = false

	res, err := w.With(walker.WithPolicy(policy)).PostOrder(tr, NewCopier(markers...), src)
	if err != nil {
		return nil, err
	}
	root, ok := res.(reflect.Value)
	if !ok || !root.IsValid() {
		return nil, errors.New("copier: no root result")
	}
	if root.Kind() != reflect.Pointer {
		ptr := reflect.New(root.Type())
		ptr.Elem().Set(root)
		root = ptr
	}
	return root.Interface(), nil
}

// CopyOf is the typed form of Copy.
func CopyOf[T any](w *walker.Walker, tr *model.Tree, src *T, markers ...arbor.Marker) (*T, error) {
	out, err := Copy(w, tr, src, markers...)
	if err != nil {
		return nil, err
	}
	dst, ok := out.(*T)
	if !ok {
		return nil, errors.Errorf("copier: copy is %T, want %T", out, dst)
	}
	return dst, nil
}
