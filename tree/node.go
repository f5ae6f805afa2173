// Package tree provides a generic, immutable rooted tree.
//
// Trees are assembled with a Builder, depth first, and frozen by Build.
// After Build no node can be added, removed or changed, so a tree may be
// shared between goroutines without locking.
package tree

import "iter"

// Node is one vertex of a tree. It owns its data and its ordered children;
// the parent pointer is a non-owning back-reference kept for navigation.
type Node[E any] struct {
	data     E
	children []*Node[E]
	parent   *Node[E]
}

// Data returns the value held by the node.
func (n *Node[E]) Data() E {
	return n.data
}

// Parent returns the parent node, or nil for the root.
func (n *Node[E]) Parent() *Node[E] {
	return n.parent
}

// Children returns the ordered children. The slice must not be modified.
func (n *Node[E]) Children() []*Node[E] {
	return n.children
}

// Child returns the i-th child.
func (n *Node[E]) Child(i int) *Node[E] {
	return n.children[i]
}

// HasChildren reports whether the node has at least one child.
func (n *Node[E]) HasChildren() bool {
	return len(n.children) > 0
}

// IsRoot reports whether the node has no parent.
func (n *Node[E]) IsRoot() bool {
	return n.parent == nil
}

// Depth returns the number of edges between the node and its root.
func (n *Node[E]) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Len returns the number of nodes in the subtree rooted at n, n included.
func (n *Node[E]) Len() int {
	count := 1
	for _, c := range n.children {
		count += c.Len()
	}
	return count
}

// Traverse applies visit to every descendant of n whose data satisfies
// pred, depth first, parent before children. n itself is not visited.
// A nil pred accepts everything.
func (n *Node[E]) Traverse(visit func(*Node[E]), pred func(E) bool) {
	for _, c := range n.children {
		if pred == nil || pred(c.data) {
			visit(c)
		}
		c.Traverse(visit, pred)
	}
}

// TraversePost applies visit to every descendant of n whose data satisfies
// pred, depth first, children before parent.
func (n *Node[E]) TraversePost(visit func(*Node[E]), pred func(E) bool) {
	for _, c := range n.children {
		c.TraversePost(visit, pred)
		if pred == nil || pred(c.data) {
			visit(c)
		}
	}
}

// Walk visits the subtree rooted at n with enter and exit callbacks.
// enter is called before a node's children and may return false to skip
// them; exit is called after the children (or right after enter when they
// were skipped). Either callback may be nil.
func (n *Node[E]) Walk(enter func(*Node[E]) bool, exit func(*Node[E])) {
	descend := true
	if enter != nil {
		descend = enter(n)
	}
	if descend {
		for _, c := range n.children {
			c.Walk(enter, exit)
		}
	}
	if exit != nil {
		exit(n)
	}
}

// DrainTo appends the data of every descendant satisfying pred to dst, in
// pre-order, and returns the extended slice.
func (n *Node[E]) DrainTo(dst []E, pred func(E) bool) []E {
	n.Traverse(func(c *Node[E]) {
		dst = append(dst, c.data)
	}, pred)
	return dst
}

// All returns a pre-order iterator over the subtree rooted at n, n included.
func (n *Node[E]) All() iter.Seq[*Node[E]] {
	return func(yield func(*Node[E]) bool) {
		n.all(yield)
	}
}

func (n *Node[E]) all(yield func(*Node[E]) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !c.all(yield) {
			return false
		}
	}
	return true
}

// Path returns the nodes from the root down to n.
func (n *Node[E]) Path() []*Node[E] {
	var path []*Node[E]
	for p := n; p != nil; p = p.parent {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
