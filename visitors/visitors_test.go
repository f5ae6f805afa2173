package visitors

import (
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/walker"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type Address struct {
	Street string `arbor:"required" json:"street"`
	City   string `arbor:"copy" yaml:"city"`
}

type Item struct {
	SKU   string  `arbor:"required" json:"sku"`
	Qty   int     `arbor:"sum"`
	Price float64 `arbor:"sum"`
}

type Customer struct {
	Name    string   `arbor:"required" json:"name"`
	Tags    []string `arbor:"copy" json:"tags,omitempty"`
	Home    *Address `json:"home"`
	Items   []Item   `json:"items"`
	Refs    []*Item
	Comment string
	secret  int `arbor:"copy"`
}

type Counters struct {
	Small  int8    `arbor:"sum"`
	Big    uint64  `arbor:"sum"`
	Ratio  float32 `arbor:"sum"`
	Ptr    *int    `arbor:"sum"`
	Label  string  `arbor:"sum"`
	Ignore int     `arbor:"other"`
}

type Shard struct {
	N int `arbor:"sum"`
}

type Shards struct {
	A, B, C, D Shard
}

func (Shards) UnorderedElements() bool { return true }

type money struct {
	cents int64
	cur   string
}

type ring struct {
	next *ring
	n    int
}

type Wallet struct {
	Balance money     `arbor:"copy"`
	Backup  *money    `arbor:"copy"`
	History []money   `arbor:"copy"`
	Rate    *big.Int  `arbor:"copy"`
	Opened  time.Time `arbor:"copy"`
	Ring    *ring     `arbor:"copy"`
}

type upperExporter struct {
	*Exporter
}

func (upperExporter) Map(e *model.Element) (any, error) {
	return strings.ToUpper(exportKey(e)), nil
}

func parse[T any](t *testing.T) *model.Tree {
	t.Helper()
	log, _ := test.NewNullLogger()
	lexer, err := model.NewLexer(model.NewTagOracle(""), 0, log)
	require.NoError(t, err)
	p := model.NewParser(lexer, accessor.Memoize(accessor.Chain(accessor.Fast(), accessor.Reflect())),
		model.WithParserLogger(log))
	tr, err := p.Parse(reflect.TypeFor[T]())
	require.NoError(t, err)
	return tr
}

func newWalker(opts ...walker.Option) *walker.Walker {
	log, _ := test.NewNullLogger()
	return walker.New(append([]walker.Option{walker.WithLogger(log)}, opts...)...)
}

func sample() *Customer {
	return &Customer{
		Name: "Ann",
		Tags: []string{"a", "b"},
		Home: &Address{Street: "Main", City: "Springfield"},
		Items: []Item{
			{SKU: "k1", Qty: 2, Price: 1.5},
			{SKU: "k2", Qty: 3, Price: 2},
		},
		Refs:    []*Item{{SKU: "r", Qty: 1}, nil},
		Comment: "not copied",
		secret:  7,
	}
}

func TestSummer(t *testing.T) {
	s := NewSummer("sum")
	require.NoError(t, newWalker().PreOrder(parse[Customer](t), s, sample()))

	assert.Equal(t, int64(6), s.Int())
	assert.InDelta(t, 9.5, s.Float(), 1e-9)
	assert.Equal(t, 6, s.Count())

	s.Reset()
	assert.Zero(t, s.Int())
	assert.Zero(t, s.Count())
}

func TestSummer_Kinds(t *testing.T) {
	n := 4
	c := &Counters{Small: -2, Big: 10, Ratio: 0.5, Ptr: &n, Label: "x", Ignore: 100}

	s := NewSummer("sum")
	require.NoError(t, newWalker().PreOrder(parse[Counters](t), s, c))

	assert.Equal(t, int64(12), s.Int())
	assert.InDelta(t, 12.5, s.Float(), 1e-9)
	assert.Equal(t, 4, s.Count())

	c.Ptr = nil
	s.Reset()
	require.NoError(t, newWalker().PreOrder(parse[Counters](t), s, c))
	assert.Equal(t, int64(8), s.Int())
}

func TestSummer_Parallel(t *testing.T) {
	tr := parse[Shards](t)
	src := &Shards{A: Shard{1}, B: Shard{2}, C: Shard{3}, D: Shard{4}}

	for i := 0; i < 20; i++ {
		s := NewSummer()
		require.NoError(t, newWalker(walker.WithParallel(4)).PreOrder(tr, s, src))
		assert.Equal(t, int64(10), s.Int())
	}
}

func TestCopy_RoundTrip(t *testing.T) {
	src := sample()
	dst, err := CopyOf(newWalker(), parse[Customer](t), src)
	require.NoError(t, err)

	assert.Empty(t, dst.Comment)
	want := *src
	want.Comment = ""
	assert.Equal(t, &want, dst)

	assert.NotSame(t, src.Home, dst.Home)
	assert.NotSame(t, src.Refs[0], dst.Refs[0])
	assert.Nil(t, dst.Refs[1])

	dst.Tags[0] = "changed"
	dst.Items[0].Qty = 99
	dst.Home.Street = "Elm"
	assert.Equal(t, "a", src.Tags[0])
	assert.Equal(t, 2, src.Items[0].Qty)
	assert.Equal(t, "Main", src.Home.Street)
}

func TestCopy_NilNodesStayNil(t *testing.T) {
	src := &Customer{Name: "Bob"}
	dst, err := CopyOf(newWalker(), parse[Customer](t), src)
	require.NoError(t, err)

	assert.Equal(t, "Bob", dst.Name)
	assert.Nil(t, dst.Home)
	assert.Nil(t, dst.Items)
	assert.Nil(t, dst.Refs)
}

func TestCopy_Markers(t *testing.T) {
	dst, err := CopyOf(newWalker(), parse[Customer](t), sample(), "required")
	require.NoError(t, err)

	assert.Equal(t, "Ann", dst.Name)
	assert.Nil(t, dst.Tags)
	assert.Equal(t, "Main", dst.Home.Street)
	assert.Empty(t, dst.Home.City)
	require.Len(t, dst.Items, 2)
	assert.Equal(t, Item{SKU: "k1"}, dst.Items[0])
}

func TestCopy_IgnoresWalkerPolicy(t *testing.T) {
	w := newWalker(walker.WithPolicy(arbor.Policy{InstantiateMissingNodes: true, IgnoreLeaves: true}))
	src := &Customer{Name: "Cy"}

	out, err := Copy(w, parse[Customer](t), src)
	require.NoError(t, err)
	dst, ok := out.(*Customer)
	require.True(t, ok)
	assert.Equal(t, "Cy", dst.Name)
	assert.Nil(t, dst.Home)
	assert.Nil(t, src.Home)
}

func TestCopy_UnexportedState(t *testing.T) {
	rate, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	r := &ring{n: 1}
	r.next = r
	src := &Wallet{
		Balance: money{cents: 150, cur: "EUR"},
		Backup:  &money{cents: 7, cur: "USD"},
		History: []money{{cents: 1, cur: "EUR"}, {cents: 2, cur: "GBP"}},
		Rate:    rate,
		Opened:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Ring:    r,
	}

	dst, err := CopyOf(newWalker(), parse[Wallet](t), src)
	require.NoError(t, err)

	assert.Equal(t, src.Balance, dst.Balance)
	assert.Equal(t, src.Backup, dst.Backup)
	assert.NotSame(t, src.Backup, dst.Backup)
	assert.Equal(t, src.History, dst.History)
	assert.Zero(t, src.Rate.Cmp(dst.Rate))
	assert.NotSame(t, src.Rate, dst.Rate)
	assert.True(t, src.Opened.Equal(dst.Opened))
	require.NotNil(t, dst.Ring)
	assert.NotSame(t, src.Ring, dst.Ring)
	assert.Same(t, dst.Ring, dst.Ring.next)
	assert.Equal(t, 1, dst.Ring.n)

	dst.Backup.cents = 0
	dst.History[0].cur = "JPY"
	dst.Rate.Add(dst.Rate, big.NewInt(1))
	assert.Equal(t, int64(7), src.Backup.cents)
	assert.Equal(t, "EUR", src.History[0].cur)
	assert.Equal(t, "123456789012345678901234567890", src.Rate.String())
}

func TestCopy_Parallel(t *testing.T) {
	src := &Shards{A: Shard{1}, B: Shard{2}, C: Shard{3}, D: Shard{4}}
	dst, err := CopyOf(newWalker(walker.WithParallel(4)), parse[Shards](t), src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
}

func TestExport(t *testing.T) {
	src := sample()
	src.Refs = nil

	out, err := Export(newWalker(), parse[Customer](t), src)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name": "Ann",
		"tags": []string{"a", "b"},
		"home": map[string]any{"street": "Main", "city": "Springfield"},
		"items": []any{
			map[string]any{"sku": "k1", "Qty": 2, "Price": 1.5},
			map[string]any{"sku": "k2", "Qty": 3, "Price": 2.0},
		},
		"secret": 7,
	}, out)

	data, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "street: Main")
}

func TestExport_Markers(t *testing.T) {
	out, err := Export(newWalker(), parse[Customer](t), &Customer{Name: "Dee"}, "required")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Dee"}, out)
}

func TestExport_IgnoresWalkerPolicy(t *testing.T) {
	w := newWalker(walker.WithPolicy(arbor.Policy{InstantiateMissingNodes: true, IgnoreLeaves: true}))
	src := &Customer{Name: "Cy"}

	out, err := Export(w, parse[Customer](t), src)
	require.NoError(t, err)
	assert.Equal(t, "Cy", out["name"])
	assert.NotContains(t, out, "home")
	assert.Nil(t, src.Home)
}

func TestExporter_LeafKeysFromMapping(t *testing.T) {
	w := newWalker(walker.WithPolicy(arbor.Policy{VisitNodes: true}))
	src := &Customer{Name: "Ann", Home: &Address{Street: "Main", City: "X"}}

	out, err := exportWith(w, parse[Customer](t), upperExporter{NewExporter("required")}, src)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"NAME": "Ann",
		"home": map[string]any{"STREET": "Main"},
	}, out)
}

func TestExporter_MapKey(t *testing.T) {
	tr := parse[Customer](t)
	x := NewExporter()

	for path, want := range map[string]string{
		"Name":        "name",
		"Home.City":   "city",
		"Items.Qty":   "Qty",
		"Refs":        "Refs",
		"secret":      "secret",
		"Home.Street": "street",
	} {
		n, ok := tr.Find(path)
		require.True(t, ok, path)
		key, err := x.Map(n.Data())
		require.NoError(t, err)
		assert.Equal(t, want, key, path)
	}
}

func TestResetter(t *testing.T) {
	src := sample()
	require.NoError(t, newWalker().PreOrder(parse[Customer](t), NewResetter("sum"), src))

	assert.Equal(t, "Ann", src.Name)
	for _, it := range src.Items {
		assert.Zero(t, it.Qty)
		assert.Zero(t, it.Price)
		assert.NotEmpty(t, it.SKU)
	}
	assert.Zero(t, src.Refs[0].Qty)
}

func TestValidate(t *testing.T) {
	src := &Customer{Items: []Item{{SKU: ""}, {SKU: "ok"}}}

	err := Validate(newWalker(), parse[Customer](t), src)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	var msgs []string
	for _, e := range merr.Errors {
		msgs = append(msgs, e.Error())
	}
	assert.Equal(t, []string{
		"Customer.Home.Street is required",
		"Customer.Items[0].SKU is required",
		"Customer.Name is required",
		"Customer.Refs.SKU is required",
	}, msgs)
	assert.Nil(t, src.Home)
}

func TestValidate_NilItem(t *testing.T) {
	err := Validate(newWalker(), parse[Customer](t), sample())

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	assert.EqualError(t, merr.Errors[0], "Customer.Refs[1].SKU is required")
}

func TestValidate_OK(t *testing.T) {
	src := sample()
	src.Refs = src.Refs[:1]
	assert.NoError(t, Validate(newWalker(), parse[Customer](t), src))
}

func TestValidator_Reset(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Accepts(Required))
	assert.False(t, v.Accepts("sum"))

	require.NoError(t, newWalker().PreOrder(parse[Customer](t), v, &Customer{}))
	assert.Error(t, v.Err())

	v.Reset()
	assert.NoError(t, v.Err())
}
