// Package excstack implements the runtime upcalls a scan.Scanner needs for
// tasks, for heaps whose exception stacks follow the runtime's layout.
//
// An exception stack is a word array. Entries are pushed from the bottom;
// each occupies a backtrace buffer, the buffer's length in words, and the
// exception value, so the stack is walked downward from top:
//
//	data[itr-1]                  exception value
//	data[itr-2]                  bt_size
//	data[itr-2-bt_size : itr-2]  backtrace buffer
//
// Backtrace buffers mix native instruction pointers with extended entries
// that carry managed values; only the latter hold references.
package excstack

import (
	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

// Upcalls serves stack bases from a table and walks exception stacks in mem.
type Upcalls struct {
	mem   heap.Memory
	bases map[int16]heap.Address
}

var _ scan.Upcalls = (*Upcalls)(nil)

// New returns upcalls over mem. bases maps thread ids to the top of each
// thread's stack; it may be nil when no task runs on a copied stack.
func New(mem heap.Memory, bases map[int16]heap.Address) *Upcalls {
	return &Upcalls{mem: mem, bases: bases}
}

// StackBase returns the registered stack top of tid, or heap.Null.
func (u *Upcalls) StackBase(tid int16) heap.Address {
	return u.bases[tid]
}

// ScanExceptionStack emits every exception value and every managed
// backtrace value on task's exception stack.
func (u *Upcalls) ScanExceptionStack(task heap.Address, v scan.Visitor, emit scan.EmitFunc) {
	es := u.mem.LoadWord(task.Plus(format.TaskExcStackOffset))
	if es.IsNull() {
		return
	}
	Walk(u.mem, es, func(slot heap.Address) { emit(v, slot) })
}

// Walk calls fn with the address of each reference slot of the exception
// stack at es, innermost exception first.
func Walk(mem heap.Memory, es heap.Address, fn func(slot heap.Address)) {
	data := es.Plus(format.ExcStackDataOffset)
	itr := int(mem.LoadWord(es.Plus(format.ExcStackTopOffset)))
	for itr > 0 {
		btSize := int(mem.LoadWord(data.Shift(itr - 2)))
		walkBacktrace(mem, data.Shift(itr-2-btSize), btSize, fn)
		fn(data.Shift(itr - 1))
		itr -= 2 + btSize
	}
}

func walkBacktrace(mem heap.Memory, bt heap.Address, n int, fn func(heap.Address)) {
	for i := 0; i < n; {
		entry := bt.Shift(i)
		first := uint64(mem.LoadWord(entry))
		if format.BTIsNative(first) {
			i++
			continue
		}
		hdr := uint64(mem.LoadWord(entry.Shift(1)))
		for j := range format.BTNumJLVals(hdr) {
			fn(entry.Shift(format.BTHeaderWords + j))
		}
		i += format.BTEntrySize(first, hdr)
	}
}
