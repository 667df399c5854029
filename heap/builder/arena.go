package builder

import (
	"fmt"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// arena is an append-only bump allocator over one segment. Nothing is ever
// freed; next only moves forward and stays word aligned.
type arena struct {
	name string
	base heap.Address
	data []byte
	next uint64
}

func newArena(name string, base heap.Address, size int) *arena {
	if !base.AlignedTo(format.TypeAlignment) {
		panic(fmt.Sprintf("builder: %s arena base %s is not %d-byte aligned", name, base, format.TypeAlignment))
	}
	return &arena{name: name, base: base, data: make([]byte, size)}
}

// object reserves size bytes for an object body aligned to align, preceded
// by a header word.
func (a *arena) object(size, align uint64) heap.Address {
	return a.reserve(a.next+format.TagHeaderSize, size, align)
}

// raw reserves size bytes of word-aligned, header-less storage.
func (a *arena) raw(size uint64) heap.Address {
	return a.reserve(a.next, size, format.WordSize)
}

func (a *arena) reserve(from, size, align uint64) heap.Address {
	off := format.AlignUp(from, align)
	end := off + max(size, format.WordSize)
	if end > uint64(len(a.data)) {
		panic(fmt.Sprintf("builder: %s arena exhausted (need %d bytes at 0x%x, have 0x%x)", a.name, size, off, len(a.data)))
	}
	a.next = format.AlignUp(end, format.WordSize)
	return a.base.Plus(off)
}

func (a *arena) contains(p heap.Address) bool {
	return p >= a.base && p < a.base.Plus(uint64(len(a.data)))
}

// segment returns the whole arena as an image segment.
func (a *arena) segment() heap.Segment {
	return heap.Segment{Base: a.base, Data: a.data}
}

// usedSegment returns the allocated prefix, rounded to a word.
func (a *arena) usedSegment() heap.Segment {
	n := max(a.next, format.WordSize)
	return heap.Segment{Base: a.base, Data: a.data[:n]}
}
