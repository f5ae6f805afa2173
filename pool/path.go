// Package pool provides sync.Pool backed scratch structures used while
// classifying types and walking trees.
package pool

import (
	"strconv"
	"sync"
)

// Path is a stack of element path segments such as
// "Order.lines[2].price". Segments are pushed while descending and popped
// while returning, so one Path serves a whole traversal without allocating
// per element. The string form is built only when asked for.
type Path struct {
	buf   []byte
	marks []int
}

var pathPool = sync.Pool{
	New: func() any {
		return &Path{
			buf:   make([]byte, 0, 128),
			marks: make([]int, 0, 16),
		}
	},
}

// AcquirePath gets a Path from the pool, positioned at root.
// Call Release when done to return it to the pool.
func AcquirePath(root string) *Path {
	p := pathPool.Get().(*Path)
	p.Reset()
	p.buf = append(p.buf, root...)
	return p
}

// Release returns the Path to the pool.
func (p *Path) Release() {
	if p == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(p.buf) <= 4096 && cap(p.marks) <= 256 {
		pathPool.Put(p)
	}
}

// Reset clears the path without deallocating.
func (p *Path) Reset() {
	p.buf = p.buf[:0]
	p.marks = p.marks[:0]
}

// Push appends a member segment, dot separated.
func (p *Path) Push(name string) {
	p.marks = append(p.marks, len(p.buf))
	if len(p.buf) > 0 {
		p.buf = append(p.buf, '.')
	}
	p.buf = append(p.buf, name...)
}

// PushIndex appends a collection index in brackets [n].
func (p *Path) PushIndex(index int) {
	p.marks = append(p.marks, len(p.buf))
	p.buf = append(p.buf, '[')
	p.buf = strconv.AppendInt(p.buf, int64(index), 10)
	p.buf = append(p.buf, ']')
}

// Pop removes the last pushed segment. Popping the root is a no-op.
func (p *Path) Pop() {
	if len(p.marks) == 0 {
		return
	}
	last := len(p.marks) - 1
	p.buf = p.buf[:p.marks[last]]
	p.marks = p.marks[:last]
}

// Depth returns the number of pushed segments.
func (p *Path) Depth() int {
	return len(p.marks)
}

// Fork returns a pooled copy of p, for use by a concurrent branch.
func (p *Path) Fork() *Path {
	f := pathPool.Get().(*Path)
	f.Reset()
	f.buf = append(f.buf, p.buf...)
	f.marks = append(f.marks, p.marks...)
	return f
}

// String returns the built path.
func (p *Path) String() string {
	return string(p.buf)
}

// Join joins path segments with dots.
func Join(segments ...string) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	}

	p := AcquirePath(segments[0])
	defer p.Release()
	for _, s := range segments[1:] {
		p.Push(s)
	}
	return p.String()
}
