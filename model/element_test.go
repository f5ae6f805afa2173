package model

import (
	"reflect"
	"sync"
	"testing"

	"github.com/gofhir/arbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement_Mapped(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Pair]())
	require.NoError(t, err)
	a := tr.Leaves()[0]

	calls := 0
	mapper := func(answer string) func(*Element) (any, error) {
		return func(e *Element) (any, error) {
			calls++
			return e.Name() + answer, nil
		}
	}

	key := reflect.TypeOf(0)
	v, hit, err := a.Mapped(key, mapper("-first"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "A-first", v)

	// Same key: the first mapping is returned even though fn would differ.
	v, hit, err = a.Mapped(key, mapper("-second"))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "A-first", v)
	assert.Equal(t, 1, calls)

	// Another key replaces the single slot.
	other := reflect.TypeOf("")
	v, hit, _ = a.Mapped(other, mapper("-other"))
	assert.False(t, hit)
	assert.Equal(t, "A-other", v)
	v, hit, _ = a.Mapped(key, mapper("-third"))
	assert.False(t, hit)
	assert.Equal(t, "A-third", v)

	a.ForgetMapping()
	_, hit, _ = a.Mapped(key, mapper("-fourth"))
	assert.False(t, hit)
}

func TestElement_MappedError(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Pair]())
	require.NoError(t, err)
	a := tr.Leaves()[0]

	boom := assert.AnError
	_, _, err = a.Mapped(1, func(*Element) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, hit, err := a.Mapped(1, func(*Element) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit, "errors are not memoized")
}

func TestElement_GetSetNew(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Outer]())
	require.NoError(t, err)

	o := &Outer{X: 5}
	x, _ := tr.Find("X")
	v, err := x.Data().Get(reflect.ValueOf(o))
	require.NoError(t, err)
	assert.Equal(t, 5, v.Interface())
	require.NoError(t, x.Data().Set(reflect.ValueOf(o), reflect.ValueOf(6)))
	assert.Equal(t, 6, o.X)

	inner, _ := tr.Find("Inner")
	nv, err := inner.Data().New()
	require.NoError(t, err)
	require.NoError(t, inner.Data().Set(reflect.ValueOf(o), nv))
	assert.NotNil(t, o.Inner)

	_, err = x.Data().New()
	assert.ErrorIs(t, err, arbor.ErrAccess)
	assert.ErrorIs(t, err, arbor.ErrUnsupportedOperation)

	assert.Equal(t, "X [sum]", x.Data().String())
	assert.Equal(t, "Inner (node)", inner.Data().String())
}

func TestShared(t *testing.T) {
	s := NewShared()
	count := NewKey[int]("count")
	other := NewKey[int]("count")

	_, ok := count.Load(s)
	assert.False(t, ok)

	count.Store(s, 2)
	v, ok := count.Load(s)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = other.Load(s)
	assert.False(t, ok, "keys with equal names are distinct")
	assert.Equal(t, "count", other.String())

	v, loaded := count.LoadOrStore(s, 9)
	assert.True(t, loaded)
	assert.Equal(t, 2, v)

	s.Store("raw", true)
	n := 0
	s.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, 2, n)

	s.Delete("raw")
	_, ok = s.Load("raw")
	assert.False(t, ok)
}

func TestShared_Concurrent(t *testing.T) {
	s := NewShared()
	key := NewKey[*sync.Mutex]("lock")

	var wg sync.WaitGroup
	results := make([]*sync.Mutex, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = key.LoadOrStore(s, &sync.Mutex{})
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestDescriptor(t *testing.T) {
	d := member(t, typeOf[Collections](), "Ptrs")
	assert.True(t, d.IsCollection())
	assert.Equal(t, typeOf[Inner](), d.Target())
	assert.True(t, d.Exported())
	assert.Equal(t, "model.Collections.Ptrs", d.String())

	r := rootDescriptor(typeOf[Pair]())
	assert.Equal(t, "Pair", r.Name)
	assert.True(t, r.Exported())
	assert.Equal(t, "model.Pair", r.String())

	assert.False(t, member(t, typeOf[private](), "secret").Exported())
}
