package heap

import (
	"fmt"
	"slices"

	"github.com/joshuapare/heapscan/internal/buf"
	"github.com/joshuapare/heapscan/internal/format"
)

// Segment is a contiguous mapped range of the runtime's address space.
type Segment struct {
	Base Address
	Data []byte
}

// End returns the first address past the segment.
func (s Segment) End() Address { return s.Base.Plus(uint64(len(s.Data))) }

// Contains reports whether a falls inside the segment.
func (s Segment) Contains(a Address) bool { return a >= s.Base && a < s.End() }

// Image is a Memory made of non-overlapping segments. Lookups binary-search
// the segment list, so an image with a handful of large segments (the usual
// shape of a heap snapshot) costs a few comparisons per load.
type Image struct {
	segs []Segment
}

// NewImage builds an image from segments. Segments may be given in any order
// but must be non-empty and must not overlap.
func NewImage(segs ...Segment) (*Image, error) {
	sorted := slices.Clone(segs)
	slices.SortFunc(sorted, func(a, b Segment) int {
		switch {
		case a.Base < b.Base:
			return -1
		case a.Base > b.Base:
			return 1
		}
		return 0
	})
	for i, s := range sorted {
		if len(s.Data) == 0 {
			return nil, fmt.Errorf("heap: segment at %s is empty", s.Base)
		}
		if _, ok := buf.AddrAdd(uint64(s.Base), int64(len(s.Data))); !ok {
			return nil, fmt.Errorf("heap: segment at %s wraps the address space", s.Base)
		}
		if i > 0 && sorted[i-1].End() > s.Base {
			return nil, fmt.Errorf("heap: segment at %s overlaps segment at %s", s.Base, sorted[i-1].Base)
		}
	}
	return &Image{segs: sorted}, nil
}

// Segments returns the image's segments in address order. The returned slice
// aliases the image.
func (m *Image) Segments() []Segment { return m.segs }

// Bytes returns the n bytes at a, or false if any of them is unmapped. The
// result aliases the image.
func (m *Image) Bytes(a Address, n int) ([]byte, bool) {
	i, found := slices.BinarySearchFunc(m.segs, a, func(s Segment, t Address) int {
		switch {
		case s.End() <= t:
			return -1
		case s.Base > t:
			return 1
		}
		return 0
	})
	if !found || n < 0 {
		return nil, false
	}
	s := m.segs[i]
	off, err := buf.CheckSpan(uint64(s.Base), uint64(len(s.Data)), uint64(a), uint64(n))
	if err != nil {
		return nil, false
	}
	return s.Data[off : off+n], true
}

func (m *Image) mustBytes(a Address, n int) []byte {
	b, ok := m.Bytes(a, n)
	if !ok {
		panic(&FaultError{Addr: a, Size: n})
	}
	return b
}

func (m *Image) Load8(a Address) uint8   { return m.mustBytes(a, 1)[0] }
func (m *Image) Load16(a Address) uint16 { return buf.U16LE(m.mustBytes(a, 2)) }
func (m *Image) Load32(a Address) uint32 { return buf.U32LE(m.mustBytes(a, 4)) }

func (m *Image) LoadWord(a Address) Address {
	return Address(buf.U64LE(m.mustBytes(a, format.WordSize)))
}

func (m *Image) Mapped(a Address) bool {
	_, ok := m.Bytes(a, format.WordSize)
	return ok
}

func (m *Image) Store8(a Address, v uint8)   { m.mustBytes(a, 1)[0] = v }
func (m *Image) Store16(a Address, v uint16) { format.PutU16(m.mustBytes(a, 2), 0, v) }
func (m *Image) Store32(a Address, v uint32) { format.PutU32(m.mustBytes(a, 4), 0, v) }

func (m *Image) StoreWord(a Address, v Address) {
	format.PutU64(m.mustBytes(a, format.WordSize), 0, uint64(v))
}
