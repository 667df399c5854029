package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/imagefile"
	"github.com/joshuapare/heapscan/internal/logger"
	"github.com/joshuapare/heapscan/scan"
	"github.com/joshuapare/heapscan/scan/excstack"
)

// session is an opened image together with a scanner over it.
type session struct {
	file *imagefile.File
	snap *heap.Snapshot
	s    *scan.Scanner
}

func openSession(path string) (*session, error) {
	printVerbose("Opening image: %s\n", path)
	f, err := imagefile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	snap := f.Snapshot
	s := scan.New(snap.Runtime, snap.Mem, &scan.Options{
		CopyStacks: snap.CopyStacks || copyStacks,
		Upcalls:    excstack.New(snap.Mem, snap.StackBases),
		Logger:     logger.L,
	})
	printVerbose("Loaded %d segments, %d objects\n", len(snap.Mem.Segments()), len(snap.Objects))
	return &session{file: f, snap: snap, s: s}, nil
}

func (ss *session) Close() error { return ss.file.Close() }

// typeName names obj's type.
func (ss *session) typeName(obj heap.Address) string {
	return heap.TypeName(ss.snap.Runtime, ss.snap.Mem, ss.snap.Runtime.TypeOf(ss.snap.Mem, obj))
}

// objects resolves --obj style address arguments, defaulting to every object
// in the image.
func (ss *session) objects(addrs []string) ([]heap.Address, error) {
	if len(addrs) == 0 {
		return ss.snap.Objects, nil
	}
	out := make([]heap.Address, 0, len(addrs))
	for _, a := range addrs {
		obj, err := parseAddr(a)
		if err != nil {
			return nil, err
		}
		if !ss.snap.Mem.Mapped(heap.TagAddr(obj)) {
			return nil, fmt.Errorf("object %s: %w", obj, heap.ErrUnmapped)
		}
		out = append(out, obj)
	}
	return out, nil
}

// parseAddr accepts decimal, 0x-prefixed hex and the other prefixes of
// strconv.ParseUint.
func parseAddr(s string) (heap.Address, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return heap.Null, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return heap.Address(v), nil
}

// guard runs fn and converts a scanner invariant violation or a memory fault
// into an error. Any other panic is re-raised.
func guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			var ie *scan.InvariantError
			var fe *heap.FaultError
			if errors.As(e, &ie) || errors.As(e, &fe) {
				err = e
				return
			}
		}
		panic(r)
	}()
	fn()
	return nil
}

// edgeJSON is the JSON form of a scan.Edge.
type edgeJSON struct {
	Slot     string `json:"slot"`
	Kind     string `json:"kind"`
	Offset   uint64 `json:"offset,omitempty"`
	Referent string `json:"referent"`
}

func toEdgeJSON(mem heap.Memory, e scan.Edge) edgeJSON {
	return edgeJSON{
		Slot:     e.Slot.String(),
		Kind:     e.Kind.String(),
		Offset:   e.Offset,
		Referent: e.Load(mem).String(),
	}
}
