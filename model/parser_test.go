package model

import (
	"reflect"
	"testing"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Pair(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Pair]())
	require.NoError(t, err)

	assert.Equal(t, typeOf[Pair](), tr.Type())
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []string{"A", "B"}, names(tr))

	root := tr.Root().Data()
	assert.True(t, root.IsNode())
	assert.Equal(t, arbor.NoMarker, root.Marker())
	for _, leaf := range tr.Leaves() {
		assert.True(t, leaf.IsLeaf())
		assert.Equal(t, arbor.Marker("sum"), leaf.Marker())
		assert.Same(t, tr.Shared(), leaf.Shared())
	}
}

func TestParser_PointerType(t *testing.T) {
	tr, err := newParser(t, nil).Parse(reflect.TypeOf(&Pair{}))
	require.NoError(t, err)
	assert.Equal(t, typeOf[Pair](), tr.Type())
}

func TestParser_Nested(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Outer]())
	require.NoError(t, err)

	assert.Equal(t, []string{"Inner", "Y", "X"}, names(tr))

	n, ok := tr.Find("Inner.Y")
	require.True(t, ok)
	assert.Equal(t, "Y", n.Data().Name())
	assert.Equal(t, typeOf[Inner](), n.Data().Descriptor().Owner)

	inner, ok := tr.Find("Inner")
	require.True(t, ok)
	assert.True(t, inner.Data().IsNode())
	require.NotNil(t, inner.Data().Constructor())
	assert.Equal(t, typeOf[Inner](), inner.Data().Constructor().Type())

	_, ok = tr.Find("Nope")
	assert.False(t, ok)
	root, ok := tr.Find("")
	require.True(t, ok)
	assert.Same(t, tr.Root(), root)
}

func TestParser_Deterministic(t *testing.T) {
	p := newParser(t, nil)
	for _, typ := range []reflect.Type{typeOf[Outer](), typeOf[Collections](), typeOf[Derived](), typeOf[Deep]()} {
		a, err := p.Parse(typ)
		require.NoError(t, err)
		b, err := p.Parse(typ)
		require.NoError(t, err)
		assert.Equal(t, names(a), names(b), typ.String())
		assert.Equal(t, a.String(), b.String())
	}
}

func TestParser_Ancestors(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Derived]())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name"}, names(tr))

	d := &Derived{Base: Base{ID: 4}}
	id := tr.Leaves()[0]
	v, err := id.Get(reflect.ValueOf(d))
	require.NoError(t, err)
	assert.Equal(t, 4, v.Interface())
	assert.Equal(t, typeOf[Derived](), id.Descriptor().Owner)
}

func TestParser_Collections(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Collections]())
	require.NoError(t, err)
	assert.Equal(t, []string{"Items", "Y", "Ptrs", "Y", "Arr", "Y", "Names"}, names(tr))

	items, _ := tr.Find("Items")
	assert.True(t, items.Data().IsCollection())
	assert.Equal(t, typeOf[Inner](), items.Data().Descriptor().Target())
}

func TestParser_SkipsMapsAndExcluded(t *testing.T) {
	p := newParser(t, nil)

	tr, err := p.Parse(typeOf[Maps]())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tagged"}, names(tr))

	tr, err = p.Parse(typeOf[Skipped]())
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, names(tr))
}

func TestParser_Recursive(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[List]())
	require.NoError(t, err)
	assert.Equal(t, []string{"Value"}, names(tr))

	tr, err = newParser(t, nil).Parse(typeOf[Ping]())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pong", "V"}, names(tr))
}

func TestParser_Ambiguous(t *testing.T) {
	_, err := newParser(t, nil).Parse(typeOf[Ambiguous]())
	require.Error(t, err)
	assert.ErrorIs(t, err, arbor.ErrConfiguration)
}

func TestParser_Order(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Permuted]())
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(tr))
}

func TestParser_InvalidOrder(t *testing.T) {
	_, err := newParser(t, nil).Parse(typeOf[BadOrder]())
	require.Error(t, err)
	assert.ErrorIs(t, err, arbor.ErrInvalidOrder)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 3)
	assert.Contains(t, merr.Errors[0].Error(), `unknown name "Z"`)
	assert.Contains(t, merr.Errors[1].Error(), `duplicate name "A"`)
	assert.Contains(t, merr.Errors[2].Error(), `missing name "B"`)
}

func TestParser_OrderMissingName(t *testing.T) {
	lexer := newLexer(t, nil)
	oracle := lexer.Oracle().(*TagOracle)
	oracle.SetDirective(typeOf[Pair](), Directive{Order: []string{"B"}})

	p := NewParser(lexer, accessor.Reflect(), WithParserLogger(quietLogger()))
	_, err := p.Parse(typeOf[Pair]())
	assert.ErrorIs(t, err, arbor.ErrInvalidOrder)
	assert.Contains(t, err.Error(), `missing name "A"`)
}

func TestParser_Unordered(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Parallel]())
	require.NoError(t, err)
	assert.True(t, tr.Root().Data().Unordered())

	left, _ := tr.Find("Left")
	assert.False(t, left.Data().Unordered())
	assert.Contains(t, tr.String(), "unordered")
}

func TestParser_Backends(t *testing.T) {
	_, err := newParser(t, accessor.Reflect()).Parse(typeOf[private]())
	require.Error(t, err, "reflect cannot reach unexported members")
	assert.ErrorIs(t, err, arbor.ErrAccess)

	tr, err := newParser(t, accessor.Fast()).Parse(typeOf[private]())
	require.NoError(t, err)
	assert.Equal(t, []string{"secret"}, names(tr))
}

func TestParser_NotAStruct(t *testing.T) {
	p := newParser(t, nil)

	_, err := p.Parse(reflect.TypeOf(0))
	assert.ErrorIs(t, err, arbor.ErrConfiguration)

	_, err = p.Parse(nil)
	assert.ErrorIs(t, err, arbor.ErrConfiguration)
}

func TestParser_Metrics(t *testing.T) {
	m := arbor.NewMetrics()
	p := NewParser(newLexer(t, nil), accessor.Reflect(),
		WithParserLogger(quietLogger()), WithParserMetrics(m))

	_, err := p.Parse(typeOf[Pair]())
	require.NoError(t, err)
	_, err = p.Parse(typeOf[Ambiguous]())
	require.Error(t, err)

	assert.Equal(t, uint64(2), m.ParsesTotal())
	assert.Equal(t, uint64(1), m.ParsesFailed())
}

func TestTree_String(t *testing.T) {
	tr, err := newParser(t, nil).Parse(typeOf[Outer]())
	require.NoError(t, err)

	want := "model.Outer\n" +
		"  Inner *model.Inner\n" +
		"    Y int [sum]\n" +
		"  X int [sum]\n"
	assert.Equal(t, want, tr.String())
}
