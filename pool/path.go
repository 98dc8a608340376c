// Package pool provides pooled buffers for building element paths during
// tree walks.
package pool

import (
	"strconv"
	"sync"
)

// PathBuilder builds dotted element paths such as
// "RiskAssessment.prediction[0].probability". Segments are pushed and
// popped as a walk descends and returns, so one buffer serves a whole walk.
type PathBuilder struct {
	buf   []byte
	marks []int
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf:   make([]byte, 0, 256),
			marks: make([]int, 0, 16),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release when done.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	if cap(b.buf) <= 4096 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer and the segment stack.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
	b.marks = b.marks[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// Depth returns the number of pushed segments.
func (b *PathBuilder) Depth() int {
	return len(b.marks)
}

// Push appends a field segment, with a leading dot unless the path is
// empty, followed by "[index]" when index >= 0.
func (b *PathBuilder) Push(name string, index int) {
	b.marks = append(b.marks, len(b.buf))
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, name...)
	if index >= 0 {
		b.buf = append(b.buf, '[')
		b.buf = strconv.AppendInt(b.buf, int64(index), 10)
		b.buf = append(b.buf, ']')
	}
}

// Pop removes the most recently pushed segment. It is a no-op on an empty
// stack.
func (b *PathBuilder) Pop() {
	n := len(b.marks)
	if n == 0 {
		return
	}
	b.buf = b.buf[:b.marks[n-1]]
	b.marks = b.marks[:n-1]
}

// String returns the current path.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// Join joins path segments with dots, skipping empty ones.
func Join(segments ...string) string {
	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, s := range segments {
		if s != "" {
			pb.Push(s, -1)
		}
	}
	return pb.String()
}

// Index returns base followed by "[index]".
func Index(base string, index int) string {
	pb := AcquirePathBuilder()
	defer pb.Release()
	pb.Push(base, index)
	return pb.String()
}
