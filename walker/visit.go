package walker

import (
	"reflect"
	"sync"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/pool"
	"github.com/gofhir/arbor/tree"
	"github.com/pkg/errors"
)

// Visit describes one leaf or node visit. Visits are pooled: a Visit is
// valid only during the call receiving it and must not be retained.
type Visit struct {
	// Element is the element being visited.
	Element *model.Element

	// Node is the tree node holding Element; its children are the
	// elements Results refers to.
	Node *tree.Node[*model.Element]

	// Mapped is the visitor's mapping of Element, or Element itself when
	// the visitor is not a Mapper.
	Mapped any

	// Container is the struct instance holding the member. It is invalid
	// inside a null branch.
	Container reflect.Value

	// Depth is the element depth; the root is 0.
	Depth int

	// Index is the position within the nearest enclosing collection, or -1.
	Index int

	// Args are the extra arguments given to the traversal.
	Args []any

	// Results holds, for post-order node visits, the result of each child
	// element in tree order. Skipped children contribute nil. The slice is
	// reused once the visit returns; copy it to keep it.
	Results []any

	// Items holds, for post-order visits of collection nodes, the child
	// results of each item.
	Items [][]any

	// Shared is the tree's shared table.
	Shared *model.Shared

	null     bool
	instance reflect.Value
	path     *pool.Path
}

// visitPool holds reusable Visit instances.
var visitPool = sync.Pool{
	New: func() any {
		return &Visit{}
	},
}

// acquireVisit gets a Visit from the pool.
func acquireVisit() *Visit {
	v := visitPool.Get().(*Visit)
	v.reset()
	return v
}

// release returns the Visit to the pool.
func (v *Visit) release() {
	if v == nil {
		return
	}
	v.reset()
	visitPool.Put(v)
}

func (v *Visit) reset() {
	*v = Visit{Index: -1}
}

// Path returns the instance path of the element, such as "Order.Lines[1].Price".
func (v *Visit) Path() string {
	if v.path == nil {
		return ""
	}
	return v.path.String()
}

// Null reports whether the visited value is absent: a nil node instance, or
// any element inside a null branch.
func (v *Visit) Null() bool {
	return v.null
}

// IsLeaf reports whether this is a leaf visit.
func (v *Visit) IsLeaf() bool {
	return v.Element.IsLeaf()
}

// Value returns the member value. For nodes it is the resolved instance
// (pointer, struct or collection). Inside a null branch it is invalid.
func (v *Visit) Value() (reflect.Value, error) {
	if v.Element.IsNode() {
		return v.instance, nil
	}
	if !v.Container.IsValid() {
		return reflect.Value{}, nil
	}
	return v.Element.Get(v.Container)
}

// Interface returns the member value as an interface, or nil when absent.
func (v *Visit) Interface() (any, error) {
	val, err := v.Value()
	if err != nil || !val.IsValid() {
		return nil, err
	}
	return val.Interface(), nil
}

// Set stores value into the member. An invalid value stores the zero value.
func (v *Visit) Set(value reflect.Value) error {
	if !v.Container.IsValid() {
		return arbor.AccessError(typeName(v.Element), v.Element.Name(), errors.New("no container in a null branch"))
	}
	return v.Element.Set(v.Container, value)
}

func typeName(e *model.Element) string {
	owner := e.Descriptor().Owner
	if owner == nil {
		return e.Type().Name()
	}
	return owner.Name()
}
