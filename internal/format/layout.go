package format

import (
	"fmt"

	"github.com/joshuapare/heapscan/internal/buf"
)

// FieldDescWidth is the 2-bit field-descriptor class of a layout. It selects
// both the size of each field descriptor and the width of each entry in the
// pointer-offset table.
//
//	Class  Field descriptor  Pointer-offset entry
//	0      2 bytes           1 byte  (uint8)
//	1      4 bytes           2 bytes (uint16)
//	2      8 bytes           4 bytes (uint32)
//	3      reserved          reserved
type FieldDescWidth uint8

const (
	FieldDesc8        FieldDescWidth = 0
	FieldDesc16       FieldDescWidth = 1
	FieldDesc32       FieldDescWidth = 2
	FieldDescReserved FieldDescWidth = 3
)

// Valid reports whether w is one of the three implemented classes.
func (w FieldDescWidth) Valid() bool {
	return w <= FieldDesc32
}

// DescSize returns the size in bytes of one field descriptor of this class.
func (w FieldDescWidth) DescSize() int {
	return 2 << w
}

// EntrySize returns the size in bytes of one pointer-offset table entry.
func (w FieldDescWidth) EntrySize() int {
	return 1 << w
}

func (w FieldDescWidth) String() string {
	switch w {
	case FieldDesc8:
		return "u8"
	case FieldDesc16:
		return "u16"
	case FieldDesc32:
		return "u32"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(w))
	}
}

// Layout header offsets. The header is immediately followed by nfields field
// descriptors and then by npointers pointer-offset entries.
//
//	Offset  Size  Field
//	0x00    4     nfields
//	0x04    4     npointers
//	0x08    4     first_ptr   (word offset of the first pointer, -1 if none)
//	0x0C    2     alignment
//	0x0E    2     flags       (bit 0: haspadding, bits 1..2: fielddesc_type)
const (
	LayoutNFieldsOffset   = 0x00
	LayoutNPointersOffset = 0x04
	LayoutFirstPtrOffset  = 0x08
	LayoutAlignmentOffset = 0x0C
	LayoutFlagsOffset     = 0x0E
	LayoutHeaderSize      = 0x10
)

const (
	layoutHasPaddingBit    = 1 << 0
	layoutFieldDescShift   = 1
	layoutFieldDescBitMask = 0x3
)

// LayoutFlags is the packed flags halfword of a layout header.
type LayoutFlags uint16

// HasPadding reports bit 0.
func (f LayoutFlags) HasPadding() bool {
	return f&layoutHasPaddingBit != 0
}

// FieldDescType extracts bits 1..2.
func (f LayoutFlags) FieldDescType() FieldDescWidth {
	return FieldDescWidth((f >> layoutFieldDescShift) & layoutFieldDescBitMask)
}

// PackLayoutFlags builds a flags halfword.
func PackLayoutFlags(hasPadding bool, w FieldDescWidth) LayoutFlags {
	f := LayoutFlags(uint16(w)&layoutFieldDescBitMask) << layoutFieldDescShift
	if hasPadding {
		f |= layoutHasPaddingBit
	}
	return f
}

// LayoutHeader is the decoded fixed part of a type layout.
type LayoutHeader struct {
	NFields   uint32
	NPointers uint32
	FirstPtr  int32
	Alignment uint16
	Flags     LayoutFlags
}

// Width returns the layout's field-descriptor class.
func (h LayoutHeader) Width() FieldDescWidth {
	return h.Flags.FieldDescType()
}

// PointerTableOffset returns the byte offset, relative to the start of the
// layout, of the pointer-offset table.
func (h LayoutHeader) PointerTableOffset() int {
	return LayoutHeaderSize + h.Width().DescSize()*int(h.NFields)
}

// Size returns the total encoded size of the layout including its tables.
func (h LayoutHeader) Size() int {
	return h.PointerTableOffset() + h.Width().EntrySize()*int(h.NPointers)
}

// DecodeLayoutHeader decodes the fixed layout header at the start of b.
func DecodeLayoutHeader(b []byte) (LayoutHeader, error) {
	if len(b) < LayoutHeaderSize {
		return LayoutHeader{}, fmt.Errorf("layout header: %w (have %d, need %d)", ErrTruncated, len(b), LayoutHeaderSize)
	}
	return LayoutHeader{
		NFields:   buf.U32LE(b[LayoutNFieldsOffset:]),
		NPointers: buf.U32LE(b[LayoutNPointersOffset:]),
		FirstPtr:  buf.I32LE(b[LayoutFirstPtrOffset:]),
		Alignment: buf.U16LE(b[LayoutAlignmentOffset:]),
		Flags:     LayoutFlags(buf.U16LE(b[LayoutFlagsOffset:])),
	}, nil
}

// Encode writes the header into the first LayoutHeaderSize bytes of b.
func (h LayoutHeader) Encode(b []byte) {
	PutU32(b, LayoutNFieldsOffset, h.NFields)
	PutU32(b, LayoutNPointersOffset, h.NPointers)
	PutI32(b, LayoutFirstPtrOffset, h.FirstPtr)
	PutU16(b, LayoutAlignmentOffset, h.Alignment)
	PutU16(b, LayoutFlagsOffset, uint16(h.Flags))
}

// PutPointerOffset writes entry i of the pointer-offset table of a layout
// whose header is h, encoded at the start of b.
func (h LayoutHeader) PutPointerOffset(b []byte, i int, off uint32) {
	pos := h.PointerTableOffset() + i*h.Width().EntrySize()
	switch h.Width() {
	case FieldDesc8:
		b[pos] = uint8(off)
	case FieldDesc16:
		PutU16(b, pos, uint16(off))
	case FieldDesc32:
		PutU32(b, pos, off)
	default:
		panic(fmt.Sprintf("format: cannot encode pointer offset with %s descriptors", h.Width()))
	}
}
