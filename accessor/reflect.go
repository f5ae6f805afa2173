package accessor

import (
	"reflect"

	"github.com/gofhir/arbor"
	"github.com/pkg/errors"
)

type reflectBackend struct{}

// Reflect returns the universal backend built on the reflect package.
// It serves exported fields only.
func Reflect() Backend {
	return reflectBackend{}
}

func (reflectBackend) AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error) {
	if !f.IsExported() {
		return nil, arbor.AccessError(typeName(owner), f.Name, errors.New("unexported field"))
	}
	return &reflectAccessor{member: newMember(owner, f), index: f.Index}, nil
}

func (reflectBackend) ConstructorFor(t reflect.Type) (Constructor, error) {
	if t.Kind() != reflect.Struct {
		return nil, arbor.AccessError(typeName(t), "", errors.Errorf("cannot construct %s", t.Kind()))
	}
	return reflectConstructor{typ: t}, nil
}

type reflectAccessor struct {
	member
	index []int
}

func (a *reflectAccessor) Get(container reflect.Value) (reflect.Value, error) {
	v, err := structOf(container)
	if err != nil {
		return reflect.Value{}, a.fail(err)
	}
	f, err := v.FieldByIndexErr(a.index)
	if err != nil {
		return reflect.Value{}, a.fail(err)
	}
	return f, nil
}

func (a *reflectAccessor) Set(container, value reflect.Value) error {
	v, err := structOf(container)
	if err != nil {
		return a.fail(err)
	}
	f, err := v.FieldByIndexErr(a.index)
	if err != nil {
		return a.fail(err)
	}
	if !f.CanSet() {
		return a.fail(errors.New("field is not settable"))
	}
	if err := assign(f, value); err != nil {
		return a.fail(err)
	}
	return nil
}

type reflectConstructor struct {
	typ reflect.Type
}

func (c reflectConstructor) New(args ...any) (reflect.Value, error) {
	if len(args) > 0 {
		return reflect.Value{}, arbor.AccessError(typeName(c.typ), "", errors.New("constructor takes no arguments"))
	}
	return reflect.New(c.typ), nil
}

func (c reflectConstructor) Type() reflect.Type {
	return c.typ
}
