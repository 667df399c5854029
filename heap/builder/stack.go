package builder

import (
	"fmt"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// TaskSpec describes a task.
type TaskSpec struct {
	// Fields initialises the language-visible words.
	Fields []heap.Address

	TID       int16
	PTLS      heap.Address
	GCStack   heap.Address
	ExcStack  heap.Address
	StkBuf    heap.Address
	BufSize   uint64
	CopyStack uint32
	Started   bool
}

// Task allocates a task.
func (b *Builder) Task(spec TaskSpec) heap.Address {
	if len(spec.Fields) > TaskFields {
		panic(fmt.Sprintf("builder: task has %d fields, got %d", TaskFields, len(spec.Fields)))
	}
	t := b.alloc(b.obj, format.TaskSize, format.ObjectAlignment, heap.SmallTag(format.SmallTagTask))
	b.storeWords(t, spec.Fields)
	v := heap.NewView(b.mem, t)
	b.mem.Store16(v.FieldAt(format.TaskTIDOffset), uint16(spec.TID))
	b.mem.StoreWord(v.FieldAt(format.TaskPTLSOffset), spec.PTLS)
	b.mem.StoreWord(v.FieldAt(format.TaskGCStackOffset), spec.GCStack)
	b.mem.StoreWord(v.FieldAt(format.TaskExcStackOffset), spec.ExcStack)
	b.mem.StoreWord(v.FieldAt(format.TaskStkBufOffset), spec.StkBuf)
	b.mem.StoreWord(v.FieldAt(format.TaskBufSizeOffset), heap.Address(spec.BufSize))
	b.mem.Store32(v.FieldAt(format.TaskCopyStackOffset), uint32(format.PackCopyStack(spec.CopyStack, spec.Started)))
	return t
}

// Frame allocates a GC frame in the stack arena linked to prev. For direct
// frames roots are the values stored in the slots; for indirect frames they
// are the addresses of the real slots.
func (b *Builder) Frame(prev heap.Address, indirect bool, roots ...heap.Address) heap.Address {
	words := make([]heap.Address, 0, 2+len(roots))
	words = append(words, heap.Address(format.PackRootCount(uint64(len(roots)), indirect)), prev)
	words = append(words, roots...)
	return b.StackWords(words...)
}

// EncodeFrame writes a GC frame at a, which may lie anywhere in mapped
// memory, and returns the address just past it.
func (b *Builder) EncodeFrame(a, prev heap.Address, indirect bool, roots ...heap.Address) heap.Address {
	b.mem.StoreWord(a.Plus(format.FrameNRootsOffset), heap.Address(format.PackRootCount(uint64(len(roots)), indirect)))
	b.mem.StoreWord(a.Plus(format.FramePrevOffset), prev)
	b.storeWords(a.Plus(format.FrameRootsOffset), roots)
	return a.Plus(format.FrameRootsOffset).Shift(len(roots))
}

// BTEntry is one backtrace entry. A non-zero IP makes a native entry;
// otherwise the entry is extended and carries Values and UintVals.
type BTEntry struct {
	IP       uint64
	Values   []heap.Address
	UintVals []uint64
}

// ExcEntry is one exception on an exception stack.
type ExcEntry struct {
	Exception heap.Address
	Backtrace []BTEntry
}

// ExcStack allocates an exception stack holding entries, outermost first.
func (b *Builder) ExcStack(entries ...ExcEntry) heap.Address {
	var data []heap.Address
	for _, e := range entries {
		start := len(data)
		for _, bt := range e.Backtrace {
			if bt.IP != 0 {
				data = append(data, heap.Address(bt.IP))
				continue
			}
			data = append(data,
				heap.Address(format.BTNonPtrEntry),
				heap.Address(format.PackBTHeader(len(bt.Values), len(bt.UintVals))))
			data = append(data, bt.Values...)
			for _, u := range bt.UintVals {
				data = append(data, heap.Address(u))
			}
		}
		data = append(data, heap.Address(len(data)-start), e.Exception)
	}
	words := append([]heap.Address{heap.Address(len(data)), heap.Address(len(data))}, data...)
	return b.Raw(words...)
}
