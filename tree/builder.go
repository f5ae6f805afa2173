package tree

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrBuilt is returned by Build when the tree was already built.
var ErrBuilt = errors.New("tree: already built")

// Builder assembles a tree depth first. Every Builder returned by AddChild
// shares the frozen state of its root: once any of them calls Build, the
// whole tree is frozen.
type Builder[E any] struct {
	node  *Node[E]
	root  *Node[E]
	built *atomic.Bool
}

// NewBuilder starts a tree whose root holds data.
func NewBuilder[E any](data E) *Builder[E] {
	root := &Node[E]{data: data}
	return &Builder[E]{
		node:  root,
		root:  root,
		built: &atomic.Bool{},
	}
}

// AddChild appends a child holding data to the builder's current node and
// returns a builder positioned at that child. It panics after Build.
func (b *Builder[E]) AddChild(data E) *Builder[E] {
	if b.built.Load() {
		panic("tree: AddChild after Build")
	}
	child := &Node[E]{data: data, parent: b.node}
	b.node.children = append(b.node.children, child)
	return &Builder[E]{node: child, root: b.root, built: b.built}
}

// Parent returns a builder positioned at the current node's parent, or nil
// at the root.
func (b *Builder[E]) Parent() *Builder[E] {
	if b.node.parent == nil {
		return nil
	}
	return &Builder[E]{node: b.node.parent, root: b.root, built: b.built}
}

// Data returns the data of the current node.
func (b *Builder[E]) Data() E {
	return b.node.data
}

// Build freezes the tree and returns its root. It may be called once per
// tree, from any builder of that tree.
func (b *Builder[E]) Build() (*Node[E], error) {
	if !b.built.CompareAndSwap(false, true) {
		return nil, ErrBuilt
	}
	return b.root, nil
}
