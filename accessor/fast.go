package accessor

import (
	"reflect"
	"unsafe"

	"github.com/gofhir/arbor"
	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
)

type fastBackend struct{}

// Fast returns the offset-based backend. Member addresses are computed from
// the container address with reflect2, which reaches unexported fields as
// well. Containers must be addressable.
func Fast() Backend {
	return fastBackend{}
}

func (fastBackend) AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error) {
	st, ok := reflect2.Type2(owner).(reflect2.StructType)
	if !ok {
		return nil, arbor.AccessError(typeName(owner), f.Name, errors.New("owner is not a struct"))
	}

	// One reflect2 field per index step; every intermediate step must be an
	// embedded value struct so that offsets add up.
	path := make([]reflect2.StructField, 0, len(f.Index))
	for i, idx := range f.Index {
		field := st.Field(idx)
		path = append(path, field)
		if i == len(f.Index)-1 {
			break
		}
		next, ok := field.Type().(reflect2.StructType)
		if !ok {
			return nil, arbor.AccessError(typeName(owner), f.Name, errors.Errorf("cannot reach through %s", field.Type()))
		}
		st = next
	}

	return &fastAccessor{member: newMember(owner, f), path: path}, nil
}

func (fastBackend) ConstructorFor(t reflect.Type) (Constructor, error) {
	if t.Kind() != reflect.Struct {
		return nil, arbor.AccessError(typeName(t), "", errors.Errorf("cannot construct %s", t.Kind()))
	}
	return fastConstructor{typ: t, typ2: reflect2.Type2(t)}, nil
}

type fastAccessor struct {
	member
	path []reflect2.StructField
}

func (a *fastAccessor) addr(container reflect.Value) (unsafe.Pointer, error) {
	v, err := structOf(container)
	if err != nil {
		return nil, err
	}
	if v.Type() != a.owner {
		return nil, errors.Errorf("container is %s, want %s", v.Type(), a.owner)
	}
	if !v.CanAddr() {
		return nil, errors.New("container is not addressable")
	}
	ptr := v.Addr().UnsafePointer()
	for _, f := range a.path {
		ptr = f.UnsafeGet(ptr)
	}
	return ptr, nil
}

func (a *fastAccessor) Get(container reflect.Value) (reflect.Value, error) {
	ptr, err := a.addr(container)
	if err != nil {
		return reflect.Value{}, a.fail(err)
	}
	return reflect.NewAt(a.typ, ptr).Elem(), nil
}

func (a *fastAccessor) Set(container, value reflect.Value) error {
	ptr, err := a.addr(container)
	if err != nil {
		return a.fail(err)
	}
	if err := assign(reflect.NewAt(a.typ, ptr).Elem(), value); err != nil {
		return a.fail(err)
	}
	return nil
}

type fastConstructor struct {
	typ  reflect.Type
	typ2 reflect2.Type
}

func (c fastConstructor) New(args ...any) (reflect.Value, error) {
	if len(args) > 0 {
		return reflect.Value{}, arbor.AccessError(typeName(c.typ), "", errors.New("constructor takes no arguments"))
	}
	return reflect.NewAt(c.typ, c.typ2.UnsafeNew()), nil
}

func (c fastConstructor) Type() reflect.Type {
	return c.typ
}
