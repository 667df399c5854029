package scan

import (
	"math"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// StackWindow translates addresses inside the original stack of a task that
// now runs from a copy. Addresses in [Low, High) move by Offset; everything
// else passes through.
type StackWindow struct {
	Low, High heap.Address
	Offset    int64
}

// IdentityWindow translates nothing.
var IdentityWindow = StackWindow{Low: 0, High: math.MaxUint64}

// Contains reports whether a lies inside the window.
func (w StackWindow) Contains(a heap.Address) bool { return a >= w.Low && a < w.High }

// Translate returns the address a now lives at.
func (w StackWindow) Translate(a heap.Address) heap.Address {
	if w.Contains(a) {
		return a.Offset(w.Offset)
	}
	return a
}

// Read loads the word that lived at a.
func (w StackWindow) Read(mem heap.Memory, a heap.Address) heap.Address {
	return mem.LoadWord(w.Translate(a))
}

// ScanStackRoots reports the root slots of every GC frame linked from task,
// plus the copy buffer and exception stack slots when the task has them.
func (s *Scanner) ScanStackRoots(task heap.Address, v Visitor) {
	t := heap.NewView(s.mem, task)
	w := s.stackWindow(task, t, v)

	for f := t.Word(format.TaskGCStackOffset); !f.IsNull(); f = w.Read(s.mem, f.Plus(format.FramePrevOffset)) {
		rc := format.RootCount(w.Read(s.mem, f.Plus(format.FrameNRootsOffset)))
		roots := f.Plus(format.FrameRootsOffset)
		for i := range rc.NRoots() {
			slot := roots.Shift(int(i))
			if rc.Indirect() {
				slot = w.Read(s.mem, slot)
			}
			s.emit(v, w.Translate(slot))
		}
	}

	if !t.Word(format.TaskExcStackOffset).IsNull() {
		up := s.upcalls("scan stack roots", task)
		s.log.Debug("delegating exception stack", "task", task.String())
		up.ScanExceptionStack(task, v, s.emit)
	}
}

// stackWindow reports the copy buffer slot of a task on a copied stack and
// returns the translation for its frames. Tasks currently running on a
// thread (non-null ptls) are read in place.
func (s *Scanner) stackWindow(task heap.Address, t heap.View, v Visitor) StackWindow {
	if !s.copyStacks {
		return IdentityWindow
	}
	stkbuf := t.Word(format.TaskStkBufOffset)
	size := format.CopyStack(t.U32(format.TaskCopyStackOffset)).Size()
	if stkbuf.IsNull() || size == 0 {
		return IdentityWindow
	}
	s.emit(v, t.FieldAt(format.TaskStkBufOffset))

	if !t.Word(format.TaskPTLSOffset).IsNull() {
		return IdentityWindow
	}
	tid := t.I16(format.TaskTIDOffset)
	if tid < 0 {
		s.fatal("scan stack roots", task, ErrInvalidThreadID, "copied stack with tid %d", tid)
	}
	high := s.upcalls("scan stack roots", task).StackBase(tid)
	low := high - heap.Address(size)
	w := StackWindow{Low: low, High: high, Offset: stkbuf.Diff(low)}
	s.log.Debug("copied stack window",
		"task", task.String(),
		"low", low.String(),
		"high", high.String(),
		"offset", w.Offset)
	return w
}
