package heap

import (
	"fmt"
	"iter"

	"golang.org/x/exp/constraints"

	"github.com/joshuapare/heapscan/internal/format"
)

// OffsetTable is a view over a layout's pointer-offset table: Len entries of
// Width bytes each, every entry a word offset from the start of an object.
type OffsetTable struct {
	mem   Memory
	base  Address
	width format.FieldDescWidth
	n     int
}

func (t OffsetTable) Base() Address                { return t.base }
func (t OffsetTable) Len() int                     { return t.n }
func (t OffsetTable) Width() format.FieldDescWidth { return t.width }

// End returns the first address past the table.
func (t OffsetTable) End() Address {
	return t.base.Plus(uint64(t.n * t.width.EntrySize()))
}

// At returns entry i. The table width must be one of the implemented classes.
func (t OffsetTable) At(i int) uint32 {
	a := t.base.Plus(uint64(i * t.width.EntrySize()))
	switch t.width {
	case format.FieldDesc8:
		return uint32(t.mem.Load8(a))
	case format.FieldDesc16:
		return uint32(t.mem.Load16(a))
	case format.FieldDesc32:
		return t.mem.Load32(a)
	}
	panic(fmt.Sprintf("heap: pointer-offset table at %s uses %s descriptors", t.base, t.width))
}

// Each calls fn with every entry in table order. The table width must be one
// of the implemented classes.
func (t OffsetTable) Each(fn func(off uint32)) {
	switch t.width {
	case format.FieldDesc8:
		eachEntry(t, t.mem.Load8, fn)
	case format.FieldDesc16:
		eachEntry(t, t.mem.Load16, fn)
	case format.FieldDesc32:
		eachEntry(t, t.mem.Load32, fn)
	default:
		panic(fmt.Sprintf("heap: pointer-offset table at %s uses %s descriptors", t.base, t.width))
	}
}

// All iterates (index, entry) pairs.
func (t OffsetTable) All() iter.Seq2[int, uint32] {
	return func(yield func(int, uint32) bool) {
		for i := range t.n {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

func eachEntry[T constraints.Unsigned](t OffsetTable, load func(Address) T, fn func(uint32)) {
	step := uint64(t.width.EntrySize())
	end := t.End()
	for a := t.base; a < end; a = a.Plus(step) {
		fn(uint32(load(a)))
	}
}
