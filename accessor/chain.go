package accessor

import (
	"reflect"
	"sync"

	"github.com/hashicorp/go-multierror"
)

type chain []Backend

// Chain returns a backend that asks each backend in turn and uses the first
// one that succeeds. When all fail the errors are combined.
func Chain(backends ...Backend) Backend {
	return chain(backends)
}

func (c chain) AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error) {
	var errs *multierror.Error
	for _, b := range c {
		a, err := b.AccessorFor(owner, f)
		if err == nil {
			return a, nil
		}
		errs = multierror.Append(errs, err)
	}
	return nil, errs.ErrorOrNil()
}

func (c chain) ConstructorFor(t reflect.Type) (Constructor, error) {
	var errs *multierror.Error
	for _, b := range c {
		ctor, err := b.ConstructorFor(t)
		if err == nil {
			return ctor, nil
		}
		errs = multierror.Append(errs, err)
	}
	return nil, errs.ErrorOrNil()
}

type memoKey struct {
	owner reflect.Type
	name  string
	index string
}

// memo remembers every answer of the wrapped backend, so a member is served by
// the same accessor instance for the lifetime of the process.
type memo struct {
	next      Backend
	accessors sync.Map // memoKey -> Accessor
	ctors     sync.Map // reflect.Type -> Constructor
}

// Memoize wraps b so that repeated requests return the same instances.
// Failures are not remembered.
func Memoize(b Backend) Backend {
	return &memo{next: b}
}

func (m *memo) AccessorFor(owner reflect.Type, f reflect.StructField) (Accessor, error) {
	key := memoKey{owner: owner, name: f.Name, index: indexKey(f.Index)}
	if a, ok := m.accessors.Load(key); ok {
		return a.(Accessor), nil
	}
	a, err := m.next.AccessorFor(owner, f)
	if err != nil {
		return nil, err
	}
	actual, _ := m.accessors.LoadOrStore(key, a)
	return actual.(Accessor), nil
}

func (m *memo) ConstructorFor(t reflect.Type) (Constructor, error) {
	if c, ok := m.ctors.Load(t); ok {
		return c.(Constructor), nil
	}
	c, err := m.next.ConstructorFor(t)
	if err != nil {
		return nil, err
	}
	actual, _ := m.ctors.LoadOrStore(t, c)
	return actual.(Constructor), nil
}

func indexKey(index []int) string {
	b := make([]byte, 0, len(index)*2)
	for _, i := range index {
		b = append(b, byte(i>>8), byte(i))
	}
	return string(b)
}
