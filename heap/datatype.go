package heap

import "github.com/joshuapare/heapscan/internal/format"

// Datatype is a view of a runtime type descriptor.
type Datatype struct {
	v View
}

// DatatypeAt returns a view of the type t. Pattern bits in t are ignored.
func DatatypeAt(mem Memory, t Address) Datatype {
	return Datatype{v: NewView(mem, Descriptor(t))}
}

func (d Datatype) Addr() Address       { return d.v.Base() }
func (d Datatype) Name() Address       { return d.v.Word(format.DatatypeNameOffset) }
func (d Datatype) Super() Address      { return d.v.Word(format.DatatypeSuperOffset) }
func (d Datatype) Parameters() Address { return d.v.Word(format.DatatypeParametersOffset) }
func (d Datatype) LayoutAddr() Address { return d.v.Word(format.DatatypeLayoutOffset) }
func (d Datatype) Size() uint32        { return d.v.U32(format.DatatypeSizeOffset) }

// Layout returns the type's layout. The type must have one.
func (d Datatype) Layout() Layout {
	return LayoutAt(d.v.Memory(), d.LayoutAddr())
}

// NParams returns the number of type parameters.
func (d Datatype) NParams() int {
	p := d.Parameters()
	if p.IsNull() {
		return 0
	}
	return SvecLen(d.v.Memory(), p)
}

// TParam returns type parameter i, or Null when the type has fewer.
func (d Datatype) TParam(i int) Address {
	if i < 0 || i >= d.NParams() {
		return Null
	}
	return d.v.Memory().LoadWord(SvecSlot(d.Parameters(), i))
}

// TParam0 returns the first type parameter; for arrays, the element type.
func (d Datatype) TParam0() Address { return d.TParam(0) }

// Layout is a view of a type layout: the fixed header followed by the field
// descriptors and the pointer-offset table.
type Layout struct {
	v   View
	hdr format.LayoutHeader
}

// LayoutAt decodes the layout header at a.
func LayoutAt(mem Memory, a Address) Layout {
	v := NewView(mem, a)
	return Layout{v: v, hdr: format.LayoutHeader{
		NFields:   v.U32(format.LayoutNFieldsOffset),
		NPointers: v.U32(format.LayoutNPointersOffset),
		FirstPtr:  v.I32(format.LayoutFirstPtrOffset),
		Alignment: v.U16(format.LayoutAlignmentOffset),
		Flags:     format.LayoutFlags(v.U16(format.LayoutFlagsOffset)),
	}}
}

func (l Layout) Addr() Address                { return l.v.Base() }
func (l Layout) Header() format.LayoutHeader  { return l.hdr }
func (l Layout) NFields() int                 { return int(l.hdr.NFields) }
func (l Layout) NPointers() int               { return int(l.hdr.NPointers) }
func (l Layout) FirstPtr() int                { return int(l.hdr.FirstPtr) }
func (l Layout) Width() format.FieldDescWidth { return l.hdr.Width() }

// Pointers returns the pointer-offset table. Entries are word offsets.
func (l Layout) Pointers() OffsetTable {
	return OffsetTable{
		mem:   l.v.Memory(),
		base:  l.v.FieldAt(l.hdr.PointerTableOffset()),
		width: l.hdr.Width(),
		n:     l.NPointers(),
	}
}

// SvecLen returns the length of the simple vector at sv.
func SvecLen(mem Memory, sv Address) int {
	return int(mem.LoadWord(sv.Plus(format.SvecLengthOffset)))
}

// SvecData returns the address of the first element slot of sv.
func SvecData(sv Address) Address { return sv.Plus(format.SvecDataOffset) }

// SvecSlot returns the address of element slot i of sv.
func SvecSlot(sv Address, i int) Address { return SvecData(sv).Shift(i) }
