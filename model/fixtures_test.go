package model

import (
	"reflect"
	"testing"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type Pair struct {
	A int `arbor:"sum"`
	B int `arbor:"sum"`
}

type Inner struct {
	Y int `arbor:"sum"`
}

type Outer struct {
	Inner *Inner
	X     int `arbor:"sum"`
}

type Ambiguous struct {
	V int `arbor:"sum,copy"`
}

type Permuted struct {
	A int `arbor:"sum"`
	B int `arbor:"sum"`
	C int `arbor:"sum"`
	D string
}

func (Permuted) ElementOrder() []string { return []string{"C", "A", "B"} }

type BadOrder struct {
	A int `arbor:"sum"`
	B int `arbor:"sum"`
}

func (*BadOrder) ElementOrder() []string { return []string{"A", "Z", "A"} }

type List struct {
	Value int `arbor:"sum"`
	Next  *List
}

type Base struct {
	ID int `arbor:"copy"`
}

type Derived struct {
	Base
	Name string `arbor:"copy"`
}

type Shadow struct {
	Base
	ID string `arbor:"copy"`
}

type Collections struct {
	Items []Inner
	Ptrs  []*Inner
	Arr   [2]Inner
	Names []string `arbor:"copy"`
}

type Maps struct {
	M      map[string]Inner
	Tagged map[string]int `arbor:"copy"`
}

type Skipped struct {
	Hidden Inner `arbor:"-"`
	X      int   `arbor:"sum"`
}

type Ping struct {
	Pong *Pong
}

type Pong struct {
	Ping *Ping
	V    int `arbor:"sum"`
}

type Plain struct {
	A int
	B string
}

type Deep struct {
	Level1 struct {
		Level2 struct {
			Z int `arbor:"sum"`
		}
	}
}

type Parallel struct {
	Left  Inner
	Right Inner
}

func (Parallel) UnorderedElements() bool { return true }

type private struct {
	secret int `arbor:"sum"`
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newLexer(t *testing.T, oracle Oracle) *Lexer {
	t.Helper()
	if oracle == nil {
		oracle = NewTagOracle(arbor.DefaultTagKey)
	}
	l, err := NewLexer(oracle, 64, quietLogger())
	require.NoError(t, err)
	return l
}

func newParser(t *testing.T, backend accessor.Backend) *Parser {
	t.Helper()
	if backend == nil {
		backend = accessor.Memoize(accessor.Chain(accessor.Reflect(), accessor.Fast()))
	}
	return NewParser(newLexer(t, nil), backend, WithParserLogger(quietLogger()))
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// names renders the elements of a tree as dot paths, pre-order, without root.
func names(tr *Tree) []string {
	var out []string
	for _, e := range tr.Elements()[1:] {
		out = append(out, e.Name())
	}
	return out
}
