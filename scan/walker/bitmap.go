package walker

import (
	"slices"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

const bitsPerUint64 = 64

// Bitmap tracks visited objects. Each bit covers one ObjectAlignment granule
// of a segment, so distinct objects never share a bit.
type Bitmap struct {
	segs []heap.Segment
	bits [][]uint64
}

// NewBitmap returns an empty bitmap covering every segment of mem.
func NewBitmap(mem *heap.Image) *Bitmap {
	segs := mem.Segments()
	b := &Bitmap{segs: segs, bits: make([][]uint64, len(segs))}
	for i, s := range segs {
		granules := (len(s.Data) + format.ObjectAlignment - 1) / format.ObjectAlignment
		b.bits[i] = make([]uint64, (granules+bitsPerUint64-1)/bitsPerUint64)
	}
	return b
}

func (b *Bitmap) locate(a heap.Address) (seg, word int, bit uint, ok bool) {
	i, found := slices.BinarySearchFunc(b.segs, a, func(s heap.Segment, t heap.Address) int {
		switch {
		case t < s.Base:
			return 1
		case t >= s.End():
			return -1
		}
		return 0
	})
	if !found {
		return 0, 0, 0, false
	}
	g := uint64(a-b.segs[i].Base) / format.ObjectAlignment
	return i, int(g / bitsPerUint64), uint(g % bitsPerUint64), true
}

// Set marks a as visited. Addresses outside the image are ignored.
func (b *Bitmap) Set(a heap.Address) {
	if s, w, bit, ok := b.locate(a); ok {
		b.bits[s][w] |= 1 << bit
	}
}

// IsSet reports whether a was marked.
func (b *Bitmap) IsSet(a heap.Address) bool {
	s, w, bit, ok := b.locate(a)
	return ok && b.bits[s][w]&(1<<bit) != 0
}

// Reset clears every bit.
func (b *Bitmap) Reset() {
	for _, words := range b.bits {
		clear(words)
	}
}
