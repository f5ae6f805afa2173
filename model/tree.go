package model

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gofhir/arbor/tree"
)

// Tree is the parsed, immutable element tree of a struct type. It is safe to
// share between goroutines.
type Tree struct {
	root   *tree.Node[*Element]
	typ    reflect.Type
	shared *Shared
	size   int
	byPath map[string]*tree.Node[*Element]
}

func newTree(t reflect.Type, root *tree.Node[*Element], shared *Shared) *Tree {
	tr := &Tree{
		root:   root,
		typ:    t,
		shared: shared,
		byPath: make(map[string]*tree.Node[*Element]),
	}
	var names []string
	root.Walk(func(n *tree.Node[*Element]) bool {
		tr.size++
		if !n.IsRoot() {
			names = append(names, n.Data().Name())
			tr.byPath[strings.Join(names, ".")] = n
		}
		return true
	}, func(n *tree.Node[*Element]) {
		if !n.IsRoot() {
			names = names[:len(names)-1]
		}
	})
	return tr
}

// Root returns the root node; its element stands for the type itself.
func (t *Tree) Root() *tree.Node[*Element] { return t.root }

// Type returns the parsed struct type.
func (t *Tree) Type() reflect.Type { return t.typ }

// Shared returns the table shared by every element of the tree.
func (t *Tree) Shared() *Shared { return t.shared }

// Len returns the number of elements, root included. It is the weight of
// the tree in the cache.
func (t *Tree) Len() int { return t.size }

// Elements returns every element in pre-order, root first.
func (t *Tree) Elements() []*Element {
	out := make([]*Element, 0, t.size)
	out = append(out, t.root.Data())
	return t.root.DrainTo(out, nil)
}

// Leaves returns the leaf elements in pre-order.
func (t *Tree) Leaves() []*Element {
	return t.root.DrainTo(nil, (*Element).IsLeaf)
}

// Find returns the node at a dot separated member path relative to the
// root, such as "Inner.Y".
func (t *Tree) Find(path string) (*tree.Node[*Element], bool) {
	if path == "" {
		return t.root, true
	}
	n, ok := t.byPath[path]
	return n, ok
}

// String renders an indented outline of the tree.
func (t *Tree) String() string {
	var b strings.Builder
	t.root.Walk(func(n *tree.Node[*Element]) bool {
		e := n.Data()
		b.WriteString(strings.Repeat("  ", n.Depth()))
		switch {
		case n.IsRoot():
			fmt.Fprintf(&b, "%s", t.typ)
		case e.IsLeaf():
			fmt.Fprintf(&b, "%s %s [%s]", e.Name(), e.Type(), e.Marker())
		case e.IsCollection():
			fmt.Fprintf(&b, "%s %s (collection)", e.Name(), e.Type())
		default:
			fmt.Fprintf(&b, "%s %s", e.Name(), e.Type())
		}
		if e.IsNode() && e.Unordered() {
			b.WriteString(" unordered")
		}
		b.WriteByte('\n')
		return true
	}, nil)
	return b.String()
}
