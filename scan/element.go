package scan

import (
	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// ElementBase returns where obj's reference storage starts: the element
// slots of a simple vector, the data of an array, the usings items of a
// module, or the pointer-offset table of a record's type. Other kinds and
// weak references have none and yield heap.Null.
func (s *Scanner) ElementBase(obj heap.Address) heap.Address {
	vt := s.rt.TypeOf(s.mem, obj)
	switch s.classify(vt) {
	case KindSimpleVector:
		return heap.SvecData(obj)
	case KindArray:
		return s.mem.LoadWord(obj.Plus(format.ArrayDataOffset))
	case KindModule:
		return s.mem.LoadWord(obj.Plus(format.ModuleUsingsItemsOffset))
	case KindRecord:
		d := heap.Descriptor(vt)
		if d == s.rt.WeakRefType {
			return heap.Null
		}
		return heap.DatatypeAt(s.mem, d).Layout().Pointers().Base()
	}
	return heap.Null
}
