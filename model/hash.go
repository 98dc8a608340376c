package model

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the structural hash of e, computed over the whole tree on
// first use and memoized. Equal trees hash equally. Concurrent first calls
// may compute it more than once; every computation yields the same value.
func (e *Element) Hash() uint64 {
	if h := e.hash.Load(); h != 0 {
		return h
	}
	hv := &hashVisitor{root: e}
	Walk(hv, e)
	return e.hash.Load()
}

// hashVisitor folds each node's digest into its parent's. A child whose
// hash is already memoized contributes the memo without being descended.
type hashVisitor struct {
	BaseVisitor
	root   *Element
	frames []*xxhash.Digest
	spare  []*xxhash.Digest
	buf    [8]byte
}

func (h *hashVisitor) push() *xxhash.Digest {
	var d *xxhash.Digest
	if n := len(h.spare); n > 0 {
		d = h.spare[n-1]
		h.spare = h.spare[:n-1]
		d.Reset()
	} else {
		d = xxhash.New()
	}
	h.frames = append(h.frames, d)
	return d
}

func (h *hashVisitor) pop() *xxhash.Digest {
	n := len(h.frames)
	d := h.frames[n-1]
	h.frames = h.frames[:n-1]
	h.spare = append(h.spare, d)
	return d
}

func (h *hashVisitor) writeUint(d *xxhash.Digest, v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = d.Write(h.buf[:])
}

func (h *hashVisitor) VisitStart(s Step, e *Element) {
	if n := len(h.frames); n > 0 {
		parent := h.frames[n-1]
		_, _ = parent.WriteString(s.Name)
		h.writeUint(parent, uint64(int64(s.Index)))
	}
	d := h.push()
	_, _ = d.WriteString(e.typ.Name())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(e.id)
	_, _ = d.WriteString("\x00")
	if e.value != nil {
		h.writeUint(d, uint64(e.value.Kind()))
		_, _ = d.WriteString(e.value.String())
	}
}

func (h *hashVisitor) Visit(_ Step, e *Element) bool {
	return e == h.root || e.hash.Load() == 0
}

func (h *hashVisitor) VisitEnd(_ Step, e *Element) {
	d := h.pop()
	sum := e.hash.Load()
	if sum == 0 {
		sum = d.Sum64()
		if sum == 0 {
			sum = 1
		}
		e.hash.Store(sum)
	}
	if n := len(h.frames); n > 0 {
		h.writeUint(h.frames[n-1], sum)
	}
}
