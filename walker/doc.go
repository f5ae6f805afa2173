// Package walker drives visitors over element trees.
//
// A Walker takes a *model.Tree, an instance of the tree's type and a
// Visitor, and walks the instance along the tree. At every leaf whose marker
// the visitor accepts, the visitor is called with a Visit describing the
// leaf and its container. Depending on the policy, nodes are visited too.
//
// # Traversals
//
//   - PreOrder: a node is resolved (and instantiated if the policy says so),
//     optionally visited, then its children are processed against it.
//   - PostOrder: children are processed first; the node visit then sees
//     their results in Visit.Results (or Visit.Items for collections), which
//     lets a visitor build a parent from finished children.
//   - Leaves: a pull iterator over accepted leaves. Iteration stops as soon
//     as the consumer stops.
//
// # Null branches
//
// A node whose instance is nil is skipped together with its descendants,
// unless the policy asks to include null branches (children are then
// visited with an invalid container and Visit.Null reports true) or to
// instantiate missing nodes (a fresh instance is created, assigned, and
// descended into).
//
// # Usage
//
//	type sum struct{ total int }
//
//	func (s *sum) Accepts(m arbor.Marker) bool { return m == "sum" }
//
//	func (s *sum) VisitLeaf(v *walker.Visit) (any, error) {
//	    val, err := v.Value()
//	    if err != nil {
//	        return nil, err
//	    }
//	    s.total += int(val.Int())
//	    return nil, nil
//	}
//
//	err := walker.New().PreOrder(tree, &sum{}, &Pair{A: 1, B: 2})
//
// # Thread Safety
//
// A Walker holds no per-walk state and may be shared. Visits are pooled:
// a *Visit and the slices it carries are valid only during the call that
// received it. The element mapping memo assumes a visitor maps an element
// the same way every time; see model.Element.Mapped.
package walker
