package walker

import (
	"fmt"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
)

// Visitor is the capability check every visitor implements.
type Visitor interface {
	// Accepts reports whether the visitor processes leaves carrying m.
	// Rejected leaves are skipped silently.
	Accepts(m arbor.Marker) bool
}

// Mapper is implemented by visitors that derive their own view of an
// element. The result is memoized on the element per visitor type and
// handed back in Visit.Mapped.
type Mapper interface {
	Map(e *model.Element) (any, error)
}

// LeafVisitor is implemented by visitors processing leaves.
type LeafVisitor interface {
	VisitLeaf(v *Visit) (any, error)
}

// NodeVisitor is implemented by visitors processing node boundaries.
type NodeVisitor interface {
	VisitNode(v *Visit) (any, error)
}

// Base can be embedded to satisfy both visit operations. Each of them fails
// with an unsupported operation error until overridden. Map is left out:
// visitors without a Mapper see the element itself.
type Base struct{}

func (Base) VisitLeaf(*Visit) (any, error) {
	return nil, arbor.UnsupportedOperationError("Base", "VisitLeaf")
}

func (Base) VisitNode(*Visit) (any, error) {
	return nil, arbor.UnsupportedOperationError("Base", "VisitNode")
}

// Func adapts plain functions to a visitor accepting a fixed marker set.
// Nil functions are reported as unsupported.
type Func struct {
	Markers arbor.MarkerSet
	Leaf    func(*Visit) (any, error)
	Node    func(*Visit) (any, error)
}

func (f Func) Accepts(m arbor.Marker) bool {
	return f.Markers == nil || f.Markers.Has(m)
}

func (f Func) VisitLeaf(v *Visit) (any, error) {
	if f.Leaf == nil {
		return nil, arbor.UnsupportedOperationError("Func", "VisitLeaf")
	}
	return f.Leaf(v)
}

func (f Func) VisitNode(v *Visit) (any, error) {
	if f.Node == nil {
		return nil, arbor.UnsupportedOperationError("Func", "VisitNode")
	}
	return f.Node(v)
}

func visitorName(v Visitor) string {
	return fmt.Sprintf("%T", v)
}
