package builder

import (
	"fmt"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// TypeSpec describes a type to create.
type TypeSpec struct {
	// Fields is the declared field count.
	Fields int

	// Pointers lists the word offsets of reference-bearing fields.
	Pointers []uint32

	// Width is the narrowest descriptor class to use; it is widened when an
	// offset does not fit. FieldDescReserved is written as is and leaves the
	// pointer table empty.
	Width format.FieldDescWidth

	// Size is the instance size in bytes. Zero means Fields words.
	Size int

	// Params are the type parameters.
	Params []heap.Address

	// VM places the type in VM space.
	VM bool
}

func (ts TypeSpec) width() format.FieldDescWidth {
	w := ts.Width
	if w == format.FieldDescReserved {
		return w
	}
	for _, p := range ts.Pointers {
		switch {
		case p > 0xFFFF:
			w = max(w, format.FieldDesc32)
		case p > 0xFF:
			w = max(w, format.FieldDesc16)
		}
	}
	return w
}

func (ts TypeSpec) size() int {
	if ts.Size > 0 {
		return ts.Size
	}
	return ts.Fields * format.WordSize
}

// DataType creates a type called name.
func (b *Builder) DataType(name string, spec TypeSpec) heap.Address {
	ar := b.arenaFor(spec.VM)
	t := b.allocType(ar)
	b.mem.StoreWord(t.Plus(format.DatatypeNameOffset), b.newTypeName(ar, name))
	b.finishType(t, spec)
	return t
}

// ArrayType creates the array type with element type elem.
func (b *Builder) ArrayType(elem heap.Address) heap.Address {
	t := b.allocType(b.obj)
	b.mem.StoreWord(t.Plus(format.DatatypeNameOffset), b.rt.ArrayTypeName)
	b.finishType(t, TypeSpec{Params: []heap.Address{elem}, Size: format.ArrayHeaderSize})
	return t
}

// SetSuper records super as t's supertype.
func (b *Builder) SetSuper(t, super heap.Address) {
	b.mem.StoreWord(t.Plus(format.DatatypeSuperOffset), super)
}

func (b *Builder) finishType(t heap.Address, spec TypeSpec) {
	if len(spec.Params) > 0 {
		b.mem.StoreWord(t.Plus(format.DatatypeParametersOffset), b.SimpleVector(spec.Params...))
	}
	b.setLayout(t, spec)
}

func (b *Builder) arenaFor(vm bool) *arena {
	if vm {
		return b.vm
	}
	return b.obj
}

// allocType reserves a type descriptor. Descriptors are TypeAlignment
// aligned so their addresses leave room for an embedded pattern.
func (b *Builder) allocType(ar *arena) heap.Address {
	return b.alloc(ar, format.DatatypeSize, format.TypeAlignment, heap.SmallTag(format.SmallTagDatatype))
}

// setLayout writes spec's layout next to t and links it.
func (b *Builder) setLayout(t heap.Address, spec TypeSpec) {
	w := spec.width()
	h := format.LayoutHeader{
		NFields:   uint32(spec.Fields),
		NPointers: uint32(len(spec.Pointers)),
		FirstPtr:  -1,
		Alignment: format.WordSize,
		Flags:     format.PackLayoutFlags(false, w),
	}
	if len(spec.Pointers) > 0 {
		h.FirstPtr = int32(spec.Pointers[0])
	}
	size := h.PointerTableOffset()
	if w.Valid() {
		size = h.Size()
	}
	ar := b.vm
	if !b.vm.contains(t) {
		ar = b.obj
	}
	l := ar.raw(uint64(size))
	buf, ok := b.mem.Bytes(l, size)
	if !ok {
		panic(fmt.Sprintf("builder: layout at %s not mapped", l))
	}
	h.Encode(buf)
	if w.Valid() {
		for i, p := range spec.Pointers {
			h.PutPointerOffset(buf, i, p)
		}
	}
	b.mem.StoreWord(t.Plus(format.DatatypeLayoutOffset), l)
	b.mem.Store32(t.Plus(format.DatatypeSizeOffset), uint32(spec.size()))
}
