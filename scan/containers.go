package scan

import (
	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

func (s *Scanner) scanSimpleVector(obj heap.Address, v Visitor) {
	data := heap.SvecData(obj)
	for i := range heap.SvecLen(s.mem, obj) {
		s.emit(v, data.Shift(i))
	}
}

// scanModule reports the parent, bindingkeyset and bindings slots whether or
// not they are null, then one slot per entry of usings.
func (s *Scanner) scanModule(obj heap.Address, v Visitor) {
	m := heap.NewView(s.mem, obj)
	s.emit(v, m.FieldAt(format.ModuleParentOffset))
	s.emit(v, m.FieldAt(format.ModuleBindingKeySetOffset))
	s.emit(v, m.FieldAt(format.ModuleBindingsOffset))

	n := int(m.Word(format.ModuleUsingsLenOffset))
	if n == 0 {
		return
	}
	items := m.Word(format.ModuleUsingsItemsOffset)
	for i := range n {
		s.emit(v, items.Shift(i))
	}
}

// scanArray dispatches on the storage-ownership mode and then on how the
// elements are stored.
func (s *Scanner) scanArray(obj, vt heap.Address, v Visitor) {
	a := heap.NewView(s.mem, obj)
	flags := format.ArrayFlags(a.U16(format.ArrayFlagsOffset))
	elsize := a.U16(format.ArrayElSizeOffset)

	switch flags.How() {
	case format.HowRuntimeBuffer:
		off := uint64(a.U32(format.ArrayOffsetOffset)) * uint64(elsize)
		s.emitOffset(v, a.FieldAt(format.ArrayDataOffset), off)
	case format.HowOwner:
		s.emit(v, a.FieldAt(format.ArrayOwnerOffset(flags.NDims())))
		return
	}

	data := a.Word(format.ArrayDataOffset)
	n := int(a.Word(format.ArrayLengthOffset))
	if data.IsNull() || n == 0 {
		return
	}

	switch {
	case flags.PtrArray():
		if heap.DatatypeAt(s.mem, vt).TParam0() == s.rt.SymbolType {
			return
		}
		for i := range n {
			s.emit(v, data.Shift(i))
		}
	case flags.HasPtr():
		s.scanInlineElements(obj, vt, data, n, int(elsize), v)
	}
}

// scanInlineElements walks n inline elements of elsize bytes whose reference
// fields are described by the element type's layout.
func (s *Scanner) scanInlineElements(obj, vt, data heap.Address, n, elsize int, v Visitor) {
	et := heap.DatatypeAt(s.mem, vt).TParam0()
	if et.IsNull() {
		s.fatal("scan array", obj, ErrMalformedArray, "array of inline references has no element type")
	}
	stride := elsize / format.WordSize
	if stride == 0 {
		s.fatal("scan array", obj, ErrMalformedArray, "element size %d is smaller than a word", elsize)
	}
	l := heap.DatatypeAt(s.mem, et).Layout()
	end := data.Shift(n * stride)

	if l.NPointers() == 1 {
		for slot := data.Shift(l.FirstPtr()); slot < end; slot = slot.Shift(stride) {
			s.emit(v, slot)
		}
		return
	}

	switch l.Width() {
	case format.FieldDesc8, format.FieldDesc16:
	default:
		s.fatal("scan array", obj, ErrUnimplementedWidth, "element type %s uses %s descriptors", heap.Descriptor(et), l.Width())
	}
	tbl := l.Pointers()
	for elem := data; elem < end; elem = elem.Shift(stride) {
		s.emitOffsets(elem, tbl, v)
	}
}
