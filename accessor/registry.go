package accessor

import (
	"reflect"
	"sync"

	"github.com/gofhir/arbor"
	"github.com/pkg/errors"
)

// ErrNotRegistered is returned by a Registry for members it has no functions for.
var ErrNotRegistered = errors.New("not registered")

// GetFunc reads a member from a pointer to its owning struct.
type GetFunc func(owner reflect.Value) (reflect.Value, error)

// SetFunc writes a member through a pointer to its owning struct.
type SetFunc func(owner, value reflect.Value) error

// NewFunc creates a fresh instance and returns a pointer to it.
type NewFunc func(args ...any) (reflect.Value, error)

type memberKey struct {
	owner reflect.Type
	name  string
}

// Registry is a backend serving hand-written or generated functions. It is
// safe for concurrent use; registrations should happen before parsing.
type Registry struct {
	mu      sync.RWMutex
	members map[memberKey]registered
	ctors   map[reflect.Type]NewFunc
}

type registered struct {
	get GetFunc
	set SetFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[memberKey]registered),
		ctors:   make(map[reflect.Type]NewFunc),
	}
}

// Register binds get and set to the member name of owner. set may be nil for
// read-only members.
func (r *Registry) Register(owner reflect.Type, name string, get GetFunc, set SetFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[memberKey{owner: owner, name: name}] = registered{get: get, set: set}
}

// RegisterConstructor binds fn as the constructor of struct type t.
func (r *Registry) RegisterConstructor(t reflect.Type, fn NewFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[t] = fn
}

// RegisterField registers typed functions for member name of T.
func RegisterField[T, V any](r *Registry, name string, get func(*T) V, set func(*T, V)) {
	owner := reflect.TypeFor[T]()
	g := func(o reflect.Value) (reflect.Value, error) {
		p, err := ownerPointer[T](o)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(get(p)), nil
	}
	var s SetFunc
	if set != nil {
		s = func(o, value reflect.Value) error {
			p, err := ownerPointer[T](o)
			if err != nil {
				return err
			}
			var v V
			if value.IsValid() {
				vt := reflect.TypeFor[V]()
				if !value.Type().AssignableTo(vt) {
					return errors.Errorf("cannot assign %s to %s", value.Type(), vt)
				}
				v = value.Interface().(V)
			}
			set(p, v)
			return nil
		}
	}
	r.Register(owner, name, g, s)
}

func ownerPointer[T any](o reflect.Value) (*T, error) {
	v, err := structOf(o)
	if err != nil {
		return nil, err
	}
	if !v.CanAddr() {
		return nil, errors.New("container is not addressable")
	}
	p, ok := v.Addr().Interface().(*T)
	if !ok {
		return nil, errors.Errorf("container is %s", v.Type())
	}
	return p, nil
}

func (r *Registry) AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error) {
	r.mu.RLock()
	fns, ok := r.members[memberKey{owner: owner, name: f.Name}]
	r.mu.RUnlock()
	if !ok {
		return nil, arbor.AccessError(typeName(owner), f.Name, ErrNotRegistered)
	}
	return &funcAccessor{member: newMember(owner, f), fns: fns}, nil
}

func (r *Registry) ConstructorFor(t reflect.Type) (Constructor, error) {
	r.mu.RLock()
	fn, ok := r.ctors[t]
	r.mu.RUnlock()
	if !ok {
		return nil, arbor.AccessError(typeName(t), "", ErrNotRegistered)
	}
	return funcConstructor{typ: t, fn: fn}, nil
}

type funcAccessor struct {
	member
	fns registered
}

func (a *funcAccessor) Get(container reflect.Value) (reflect.Value, error) {
	v, err := a.fns.get(container)
	if err != nil {
		return reflect.Value{}, a.fail(err)
	}
	return v, nil
}

func (a *funcAccessor) Set(container, value reflect.Value) error {
	if a.fns.set == nil {
		return a.fail(errors.New("member is read-only"))
	}
	if err := a.fns.set(container, value); err != nil {
		return a.fail(err)
	}
	return nil
}

type funcConstructor struct {
	typ reflect.Type
	fn  NewFunc
}

func (c funcConstructor) New(args ...any) (reflect.Value, error) {
	v, err := c.fn(args...)
	if err != nil {
		return reflect.Value{}, arbor.AccessError(typeName(c.typ), "", err)
	}
	return v, nil
}

func (c funcConstructor) Type() reflect.Type {
	return c.typ
}
