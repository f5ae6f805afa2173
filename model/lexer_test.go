package model

import (
	"reflect"
	"testing"

	"github.com/gofhir/arbor"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(t *testing.T, owner reflect.Type, name string) Descriptor {
	t.Helper()
	f, ok := owner.FieldByName(name)
	require.True(t, ok, "no field %s", name)
	return DescriptorOf(owner, f)
}

func TestLexer_Classify(t *testing.T) {
	l := newLexer(t, nil)

	tests := []struct {
		owner  reflect.Type
		member string
		kind   Kind
		marker arbor.Marker
	}{
		{typeOf[Pair](), "A", Leaf, "sum"},
		{typeOf[Outer](), "Inner", Node, ""},
		{typeOf[Outer](), "X", Leaf, "sum"},
		{typeOf[Collections](), "Items", Node, ""},
		{typeOf[Collections](), "Ptrs", Node, ""},
		{typeOf[Collections](), "Arr", Node, ""},
		{typeOf[Collections](), "Names", Leaf, "copy"},
		{typeOf[Maps](), "M", None, ""},
		{typeOf[Maps](), "Tagged", Leaf, "copy"},
		{typeOf[Skipped](), "Hidden", None, ""},
		{typeOf[Plain](), "A", None, ""},
		{typeOf[Deep](), "Level1", Node, ""},
	}
	for _, tt := range tests {
		t.Run(tt.owner.Name()+"."+tt.member, func(t *testing.T) {
			kind, marker, err := l.Classify(member(t, tt.owner, tt.member), Path{tt.owner: {}})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.marker, marker)
		})
	}
}

func TestLexer_Ambiguous(t *testing.T) {
	log, hook := test.NewNullLogger()
	l, err := NewLexer(NewTagOracle(""), 0, log)
	require.NoError(t, err)

	_, _, err = l.IsLeaf(member(t, typeOf[Ambiguous](), "V"))
	require.Error(t, err)
	assert.ErrorIs(t, err, arbor.ErrConfiguration)
	assert.Contains(t, err.Error(), "Ambiguous.V")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "V", hook.LastEntry().Data["member"])
}

func TestLexer_AllowList(t *testing.T) {
	l := newLexer(t, NewTagOracle("arbor", "sum"))

	leaf, marker, err := l.IsLeaf(member(t, typeOf[Ambiguous](), "V"))
	require.NoError(t, err, "copy is not a marker under this allow-list")
	assert.True(t, leaf)
	assert.Equal(t, arbor.Marker("sum"), marker)

	leaf, _, err = l.IsLeaf(member(t, typeOf[Maps](), "Tagged"))
	require.NoError(t, err)
	assert.False(t, leaf)
}

func TestLexer_Cycles(t *testing.T) {
	l := newLexer(t, nil)

	// List.Next leads back to List, which is on the path.
	assert.False(t, l.IsNode(member(t, typeOf[List](), "Next"), Path{typeOf[List](): {}}))

	// From outside, List does hold a leaf.
	assert.True(t, l.HasNestedLeaf(typeOf[List](), nil))

	ping, pong := typeOf[Ping](), typeOf[Pong]()
	assert.True(t, l.IsNode(member(t, ping, "Pong"), Path{ping: {}}))
	assert.False(t, l.IsNode(member(t, pong, "Ping"), Path{pong: {}}),
		"Ping only reaches leaves through Pong, which is on the path")
}

func TestLexer_MemoRespectsPath(t *testing.T) {
	l := newLexer(t, nil)
	ping, pong := typeOf[Ping](), typeOf[Pong]()

	// Populate the memo from an empty path first.
	require.True(t, l.HasNestedLeaf(ping, nil))
	require.True(t, l.HasNestedLeaf(pong, nil))

	assert.False(t, l.HasNestedLeaf(ping, Path{pong: {}}))
	assert.True(t, l.HasNestedLeaf(ping, nil))
}

func TestLexer_Members(t *testing.T) {
	l := newLexer(t, nil)

	var got []string
	for _, f := range l.Members(typeOf[Derived]()) {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"ID", "Name"}, got, "ancestor members come first")

	fields := l.Members(typeOf[Derived]())
	assert.Equal(t, []int{0, 0}, fields[0].Index)
	assert.Equal(t, []int{1}, fields[1].Index)

	shadow := l.Members(typeOf[Shadow]())
	require.Len(t, shadow, 1)
	assert.Equal(t, reflect.TypeOf(""), shadow[0].Type, "own field shadows the promoted one")
}

func TestOracle_Directives(t *testing.T) {
	o := NewTagOracle("")

	assert.Equal(t, []string{"C", "A", "B"}, o.Directive(typeOf[Permuted]()).Order)
	assert.Equal(t, []string{"A", "Z", "A"}, o.Directive(typeOf[BadOrder]()).Order, "pointer receiver")
	assert.True(t, o.Directive(typeOf[Parallel]()).Unordered)
	assert.True(t, o.Directive(typeOf[Pair]()).IsZero())

	o.SetDirective(typeOf[Pair](), Directive{Order: []string{"B", "A"}})
	assert.Equal(t, []string{"B", "A"}, o.Directive(typeOf[Pair]()).Order)
	assert.Equal(t, "arbor", o.Key())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "leaf", Leaf.String())
	assert.Equal(t, "node", Node.String())
	assert.Equal(t, "none", None.String())
}
