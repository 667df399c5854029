package walker

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

// initialStackCapacity is the pre-allocated capacity for the traversal stack.
const initialStackCapacity = 256

// ctxCheckInterval is how many objects are visited between context checks.
const ctxCheckInterval = 1024

// VisitFunc is called once per reachable object. Returning an error stops
// the walk.
type VisitFunc func(obj heap.Address, k scan.Kind) error

// EdgeFunc observes every edge the walk discovers, with the object that
// holds it and the referent it loads.
type EdgeFunc func(from heap.Address, e scan.Edge, ref heap.Address)

// Walker performs depth-first reachability walks. It is not safe for
// concurrent use; the Scanner it wraps is.
type Walker struct {
	s       *scan.Scanner
	mem     *heap.Image
	visited *Bitmap
	stack   []heap.Address
	edges   scan.EdgeSet

	// OnEdge, when set, is called for every edge.
	OnEdge EdgeFunc

	nulls    uint64
	dangling uint64
}

// New returns a walker over mem using s to find edges.
func New(s *scan.Scanner, mem *heap.Image) *Walker {
	return &Walker{
		s:       s,
		mem:     mem,
		visited: NewBitmap(mem),
		stack:   make([]heap.Address, 0, initialStackCapacity),
	}
}

// Walk visits every object reachable from roots. Objects already visited by
// an earlier Walk since the last Reset are skipped.
func (w *Walker) Walk(ctx context.Context, roots []heap.Address, fn VisitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()

	for i := len(roots) - 1; i >= 0; i-- {
		w.push(roots[i])
	}
	var n int
	for len(w.stack) > 0 {
		obj := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if w.visited.IsSet(obj) {
			continue
		}
		w.visited.Set(obj)

		if n++; n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if fn != nil {
			if err := fn(obj, w.s.Classify(obj)); err != nil {
				return err
			}
		}

		w.edges.Reset()
		w.s.Scan(obj, &w.edges)
		for _, e := range w.edges.Edges() {
			ref := e.Load(w.mem)
			if w.OnEdge != nil {
				w.OnEdge(obj, e, ref)
			}
			w.push(ref)
		}
	}
	return ctx.Err()
}

func (w *Walker) push(ref heap.Address) {
	switch {
	case ref.IsNull():
		w.nulls++
	case !w.mem.Mapped(heap.TagAddr(ref)) || !w.mem.Mapped(ref):
		w.dangling++
	case !w.visited.IsSet(ref):
		w.stack = append(w.stack, ref)
	}
}

// Visited reports whether obj was reached.
func (w *Walker) Visited(obj heap.Address) bool { return w.visited.IsSet(obj) }

// Nulls returns how many null slots were seen.
func (w *Walker) Nulls() uint64 { return w.nulls }

// Dangling returns how many slots pointed at unmapped memory.
func (w *Walker) Dangling() uint64 { return w.dangling }

// Reset clears the visited set and counters so the walker can be reused.
func (w *Walker) Reset() {
	w.visited.Reset()
	w.stack = w.stack[:0]
	w.nulls, w.dangling = 0, 0
}

// asError turns a recovered scanner or memory panic into an error. Anything
// else is re-raised.
func asError(r any) error {
	if err, ok := r.(error); ok {
		var ie *scan.InvariantError
		var fe *heap.FaultError
		if errors.As(err, &ie) || errors.As(err, &fe) {
			return fmt.Errorf("walk: %w", err)
		}
	}
	panic(r)
}
