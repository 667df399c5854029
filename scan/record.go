package scan

import (
	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// scanRecord walks a generic record through its type's pointer-offset table.
func (s *Scanner) scanRecord(obj, vt heap.Address, v Visitor) {
	d := heap.Descriptor(vt)
	if d == s.rt.WeakRefType {
		return
	}
	l := heap.DatatypeAt(s.mem, d).Layout()
	if l.NPointers() == 0 {
		return
	}
	if l.NFields() == 0 {
		s.fatal("scan record", obj, ErrOpaqueType, "type %s has %d pointers and no fields", d, l.NPointers())
	}
	if !l.Width().Valid() {
		s.fatal("scan record", obj, ErrUnimplementedWidth, "type %s uses %s descriptors", d, l.Width())
	}
	s.emitOffsets(obj, l.Pointers(), v)
}

// scanTask reports the task's stack roots and then the slots named by the
// task type's own layout.
func (s *Scanner) scanTask(obj heap.Address, v Visitor) {
	s.ScanStackRoots(obj, v)

	l := heap.DatatypeAt(s.mem, s.rt.TaskType).Layout()
	if l.Width() != format.FieldDesc8 {
		s.fatal("scan task", obj, ErrUnimplementedWidth, "task layout uses %s descriptors", l.Width())
	}
	if l.NFields() == 0 {
		s.fatal("scan task", obj, ErrOpaqueType, "task layout has no fields")
	}
	s.emitOffsets(obj, l.Pointers(), v)
}
