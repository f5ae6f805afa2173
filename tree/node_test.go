package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample builds:
//
//	a
//	├── b
//	│   ├── d
//	│   └── e
//	└── c
//	    └── f
func sample(t *testing.T) *Node[string] {
	t.Helper()

	root := NewBuilder("a")
	b := root.AddChild("b")
	b.AddChild("d")
	b.AddChild("e")
	c := root.AddChild("c")
	c.AddChild("f")

	n, err := root.Build()
	require.NoError(t, err)
	return n
}

func collect(n *Node[string], walk func(*Node[string], func(*Node[string]), func(string) bool), pred func(string) bool) []string {
	var out []string
	walk(n, func(c *Node[string]) { out = append(out, c.Data()) }, pred)
	return out
}

func TestNode_Accessors(t *testing.T) {
	root := sample(t)

	assert.Equal(t, "a", root.Data())
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.Parent())
	assert.True(t, root.HasChildren())
	assert.Len(t, root.Children(), 2)
	assert.Equal(t, 6, root.Len())

	d := root.Child(0).Child(0)
	assert.Equal(t, "d", d.Data())
	assert.False(t, d.HasChildren())
	assert.Equal(t, 2, d.Depth())
	assert.Same(t, root.Child(0), d.Parent())

	var path []string
	for _, n := range d.Path() {
		path = append(path, n.Data())
	}
	assert.Equal(t, []string{"a", "b", "d"}, path)
}

func TestNode_Traverse(t *testing.T) {
	root := sample(t)

	pre := collect(root, (*Node[string]).Traverse, nil)
	assert.Equal(t, []string{"b", "d", "e", "c", "f"}, pre)

	post := collect(root, (*Node[string]).TraversePost, nil)
	assert.Equal(t, []string{"d", "e", "b", "f", "c"}, post)

	leavesOnly := collect(root, (*Node[string]).Traverse, func(s string) bool { return s != "b" && s != "c" })
	assert.Equal(t, []string{"d", "e", "f"}, leavesOnly)
}

func TestNode_Walk(t *testing.T) {
	root := sample(t)

	var events []string
	root.Walk(func(n *Node[string]) bool {
		events = append(events, "+"+n.Data())
		return n.Data() != "c"
	}, func(n *Node[string]) {
		events = append(events, "-"+n.Data())
	})

	assert.Equal(t, []string{
		"+a", "+b", "+d", "-d", "+e", "-e", "-b", "+c", "-c", "-a",
	}, events)
}

func TestNode_DrainTo(t *testing.T) {
	root := sample(t)

	got := root.DrainTo([]string{"x"}, func(s string) bool { return s > "c" })
	assert.Equal(t, []string{"x", "d", "e", "f"}, got)
}

func TestNode_All(t *testing.T) {
	root := sample(t)

	var got []string
	for n := range root.All() {
		got = append(got, n.Data())
		if n.Data() == "e" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b", "d", "e"}, got)
}

func TestBuilder_BuildOnce(t *testing.T) {
	root := NewBuilder(1)
	child := root.AddChild(2)
	assert.Equal(t, 2, child.Data())
	assert.Same(t, root.node, child.Parent().node)
	assert.Nil(t, root.Parent())

	n, err := child.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, n.Data())

	_, err = root.Build()
	assert.ErrorIs(t, err, ErrBuilt)

	assert.Panics(t, func() { root.AddChild(3) })
}
