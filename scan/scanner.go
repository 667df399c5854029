package scan

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/logger"
)

// Upcalls are the runtime services a Scanner needs for tasks.
type Upcalls interface {
	// StackBase returns the top of the stack of thread tid.
	StackBase(tid int16) heap.Address

	// ScanExceptionStack reports the slots of task's exception stack through
	// emit.
	ScanExceptionStack(task heap.Address, v Visitor, emit EmitFunc)
}

// Options configures a Scanner.
type Options struct {
	// CopyStacks enables handling of tasks whose stacks were copied into a
	// side buffer. It must match how the runtime was built.
	CopyStacks bool

	// Upcalls is required once a task with an exception stack or a copied
	// stack is scanned.
	Upcalls Upcalls

	// Logger receives cold-path diagnostics. Defaults to logger.L.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when New is given nil.
func DefaultOptions() *Options {
	return &Options{}
}

// Scanner enumerates the references held by heap objects. It holds no
// mutable state and is safe for concurrent use.
type Scanner struct {
	rt         *heap.Runtime
	mem        heap.Memory
	up         Upcalls
	copyStacks bool
	log        *slog.Logger
}

// New returns a Scanner reading objects of rt from mem.
func New(rt *heap.Runtime, mem heap.Memory, opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.L
	}
	return &Scanner{
		rt:         rt,
		mem:        mem,
		up:         opts.Upcalls,
		copyStacks: opts.CopyStacks,
		log:        log,
	}
}

func (s *Scanner) Runtime() *heap.Runtime { return s.rt }
func (s *Scanner) Memory() heap.Memory    { return s.mem }

// Scan reports every reference slot of obj to v, using the alignment-pattern
// fast path when obj's type allows it.
func (s *Scanner) Scan(obj heap.Address, v Visitor) {
	vt := s.rt.TypeOf(s.mem, obj)
	k := s.classify(vt)
	if k == KindRecord && !s.rt.InVMSpace(heap.Descriptor(vt)) {
		if p := ExtractPattern(vt); p != Fallback {
			s.emitPattern(obj, p, v)
			return
		}
	}
	s.scanKind(obj, vt, k, v)
}

// ScanFallback reports every reference slot of obj to v using only the
// general traversal.
func (s *Scanner) ScanFallback(obj heap.Address, v Visitor) {
	vt := s.rt.TypeOf(s.mem, obj)
	s.scanKind(obj, vt, s.classify(vt), v)
}

// ScanChecked verifies obj's embedded pattern, then runs the general
// traversal. A mismatch is fatal.
func (s *Scanner) ScanChecked(obj heap.Address, v Visitor) {
	s.MustVerifyPattern(obj)
	s.ScanFallback(obj, v)
}

func (s *Scanner) scanKind(obj, vt heap.Address, k Kind, v Visitor) {
	switch k {
	case KindSimpleVector:
		s.scanSimpleVector(obj, v)
	case KindModule:
		s.scanModule(obj, v)
	case KindTask:
		s.scanTask(obj, v)
	case KindArray:
		s.scanArray(obj, vt, v)
	case KindRecord:
		s.scanRecord(obj, vt, v)
	case KindSymbol, KindBuffer, KindString, KindOther:
	}
}

func (s *Scanner) emit(v Visitor, slot heap.Address) {
	e := SimpleEdge(slot)
	if debugChecks {
		s.checkReferent(e)
	}
	v.VisitEdge(e)
}

func (s *Scanner) emitOffset(v Visitor, slot heap.Address, off uint64) {
	e := OffsetEdge(slot, off)
	if debugChecks {
		s.checkReferent(e)
	}
	v.VisitEdge(e)
}

func (s *Scanner) emitOffsets(base heap.Address, tbl heap.OffsetTable, v Visitor) {
	for i := range tbl.Len() {
		s.emit(v, base.Shift(int(tbl.At(i))))
	}
}

func (s *Scanner) checkReferent(e Edge) {
	ref := e.Load(s.mem)
	if !ref.IsNull() && !s.mem.Mapped(ref) {
		s.fatal("emit", e.Slot, ErrUnmappedReferent, "slot holds %s", ref)
	}
}

func (s *Scanner) upcalls(op string, task heap.Address) Upcalls {
	if s.up == nil {
		s.fatal(op, task, ErrMissingUpcall, "task needs runtime upcalls")
	}
	return s.up
}

func (s *Scanner) fatal(op string, obj heap.Address, err error, msg string, args ...any) {
	s.fail(&InvariantError{Op: op, Obj: obj, Message: fmt.Sprintf(msg, args...), Err: err})
}

func (s *Scanner) fail(e *InvariantError) {
	s.log.Error("object graph invariant violated",
		"op", e.Op,
		"obj", e.Obj.String(),
		"detail", e.Message,
		"err", e.Err)
	panic(e)
}
