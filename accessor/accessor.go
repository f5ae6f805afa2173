// Package accessor defines the get/set/construct capability the parser binds
// to every element, and the backends that provide it.
//
// The core depends only on the Accessor, Constructor and Backend interfaces.
// Which implementation serves a member is decided once, at parse time:
//
//   - Reflect: universal slow path through the reflect package
//   - Fast: offset-based access through github.com/modern-go/reflect2
//   - Registry: hand-written or generated functions registered per member
//
// Chain combines backends (first success wins) and Memoize guarantees that a
// member is always served by the same accessor for the process lifetime.
package accessor

import (
	"reflect"

	"github.com/gofhir/arbor"
	"github.com/pkg/errors"
)

// Accessor reads and writes one member of a container instance.
//
// The container passed to Get and Set is the owning struct value; it must be
// addressable for Set (and for Get on the Fast backend). A pointer to the
// owning struct is accepted as well.
type Accessor interface {
	// Get returns the member value held by container.
	Get(container reflect.Value) (reflect.Value, error)

	// Set stores value into the member of container. An invalid value
	// stores the zero value.
	Set(container, value reflect.Value) error

	// Type returns the declared static type of the member.
	Type() reflect.Type

	// IsCollection reports whether the member is a slice or an array.
	IsCollection() bool

	// ComponentType returns the element type of a collection member, or nil.
	ComponentType() reflect.Type
}

// Constructor creates instances of a struct type.
type Constructor interface {
	// New returns a pointer to a fresh instance.
	New(args ...any) (reflect.Value, error)

	// Type returns the struct type being constructed.
	Type() reflect.Type
}

// Backend provides accessors and constructors.
type Backend interface {
	// AccessorFor returns the accessor of field f declared (or promoted)
	// in owner. f.Index is the full index path from owner.
	AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error)

	// ConstructorFor returns the constructor of struct type t.
	ConstructorFor(t reflect.Type) (Constructor, error)
}

// CollectionOf returns the component type of a slice or array type.
func CollectionOf(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	default:
		return nil, false
	}
}

// Indirect dereferences a pointer type once.
func Indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// errNilContainer is returned when the container holds no instance.
var errNilContainer = errors.New("nil container")

// structOf resolves container to the addressable struct value it designates.
func structOf(container reflect.Value) (reflect.Value, error) {
	if !container.IsValid() {
		return reflect.Value{}, errNilContainer
	}
	if container.Kind() == reflect.Pointer {
		if container.IsNil() {
			return reflect.Value{}, errNilContainer
		}
		container = container.Elem()
	}
	if container.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("container is %s, not a struct", container.Type())
	}
	return container, nil
}

// assign stores value into dst, converting when the types differ but are
// convertible.
func assign(dst, value reflect.Value) error {
	if !value.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	switch {
	case value.Type().AssignableTo(dst.Type()):
		dst.Set(value)
	case value.Type().ConvertibleTo(dst.Type()):
		dst.Set(value.Convert(dst.Type()))
	default:
		return errors.Errorf("cannot assign %s to %s", value.Type(), dst.Type())
	}
	return nil
}

// member holds the description shared by every accessor implementation.
type member struct {
	owner     reflect.Type
	name      string
	typ       reflect.Type
	component reflect.Type
}

func newMember(owner reflect.Type, f reflect.StructField) member {
	m := member{owner: owner, name: f.Name, typ: f.Type}
	if c, ok := CollectionOf(f.Type); ok {
		m.component = c
	}
	return m
}

func (m member) Type() reflect.Type          { return m.typ }
func (m member) IsCollection() bool          { return m.component != nil }
func (m member) ComponentType() reflect.Type { return m.component }

func (m member) fail(cause error) error {
	return arbor.AccessError(typeName(m.owner), m.name, cause)
}

// typeName returns a readable name for t, including anonymous types.
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// self is the accessor of a root element: the container is the instance.
type self struct {
	typ reflect.Type
}

// Self returns the accessor of the synthetic root element of type t.
func Self(t reflect.Type) Accessor {
	return self{typ: t}
}

func (s self) Get(container reflect.Value) (reflect.Value, error) {
	v, err := structOf(container)
	if err != nil {
		return reflect.Value{}, arbor.AccessError(typeName(s.typ), "", err)
	}
	return v, nil
}

func (s self) Set(container, value reflect.Value) error {
	v, err := structOf(container)
	if err != nil {
		return arbor.AccessError(typeName(s.typ), "", err)
	}
	if !v.CanSet() {
		return arbor.AccessError(typeName(s.typ), "", errors.New("instance is not settable"))
	}
	if value.IsValid() && value.Kind() == reflect.Pointer && value.Type().Elem() == v.Type() {
		if value.IsNil() {
			value = reflect.Value{}
		} else {
			value = value.Elem()
		}
	}
	if err := assign(v, value); err != nil {
		return arbor.AccessError(typeName(s.typ), "", err)
	}
	return nil
}

func (s self) Type() reflect.Type          { return s.typ }
func (s self) IsCollection() bool          { return false }
func (s self) ComponentType() reflect.Type { return nil }
