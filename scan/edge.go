package scan

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/heapscan/heap"
)

// EdgeKind distinguishes plain reference slots from offset slots.
type EdgeKind uint8

const (
	// EdgeSimple slots hold the referent's address.
	EdgeSimple EdgeKind = iota
	// EdgeOffset slots hold an interior address Offset bytes past the referent.
	EdgeOffset
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSimple:
		return "simple"
	case EdgeOffset:
		return "offset"
	}
	return fmt.Sprintf("EdgeKind(%d)", uint8(k))
}

// Edge is a located reference slot.
type Edge struct {
	Kind   EdgeKind
	Slot   heap.Address
	Offset uint64
}

// SimpleEdge returns an edge for a slot holding a reference.
func SimpleEdge(slot heap.Address) Edge { return Edge{Kind: EdgeSimple, Slot: slot} }

// OffsetEdge returns an edge for a slot holding a reference advanced by off
// bytes.
func OffsetEdge(slot heap.Address, off uint64) Edge {
	return Edge{Kind: EdgeOffset, Slot: slot, Offset: off}
}

// Load returns the referent. For offset edges the stored interior address is
// moved back by Offset; a null slot stays null.
func (e Edge) Load(mem heap.Memory) heap.Address {
	ref := mem.LoadWord(e.Slot)
	if e.Kind == EdgeOffset && !ref.IsNull() {
		return ref - heap.Address(e.Offset)
	}
	return ref
}

// Store points the slot at ref, re-applying the offset for offset edges.
func (e Edge) Store(mem heap.WritableMemory, ref heap.Address) {
	if e.Kind == EdgeOffset && !ref.IsNull() {
		ref = ref.Plus(e.Offset)
	}
	mem.StoreWord(e.Slot, ref)
}

func (e Edge) String() string {
	if e.Kind == EdgeOffset {
		return fmt.Sprintf("%s-%d", e.Slot, e.Offset)
	}
	return e.Slot.String()
}

// Visitor receives every edge a scan discovers. It is called exactly once per
// qualifying slot, in no particular order.
type Visitor interface {
	VisitEdge(e Edge)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(Edge)

func (f VisitorFunc) VisitEdge(e Edge) { f(e) }

// EmitFunc reports the slot at addr as a simple edge to v. It is the callback
// handed to runtime upcalls that find slots on the scanner's behalf.
type EmitFunc func(v Visitor, slot heap.Address)

// EdgeSet is a Visitor that records edges. The zero value is ready to use.
type EdgeSet struct {
	edges []Edge
}

func (s *EdgeSet) VisitEdge(e Edge) { s.edges = append(s.edges, e) }

// Edges returns the recorded edges in visit order.
func (s *EdgeSet) Edges() []Edge { return s.edges }

func (s *EdgeSet) Len() int { return len(s.edges) }

// Reset drops recorded edges, keeping capacity.
func (s *EdgeSet) Reset() { s.edges = s.edges[:0] }

// Slots returns the slot addresses in visit order.
func (s *EdgeSet) Slots() []heap.Address {
	out := make([]heap.Address, len(s.edges))
	for i, e := range s.edges {
		out[i] = e.Slot
	}
	return out
}

// Sorted returns a copy of the edges ordered by slot, then kind and offset.
func (s *EdgeSet) Sorted() []Edge {
	out := slices.Clone(s.edges)
	slices.SortFunc(out, compareEdges)
	return out
}

// Equal reports whether both sets hold the same edges with the same
// multiplicity, ignoring order.
func (s *EdgeSet) Equal(o *EdgeSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	return slices.Equal(s.Sorted(), o.Sorted())
}

// Contains reports whether an edge at slot was recorded.
func (s *EdgeSet) Contains(slot heap.Address) bool {
	return slices.ContainsFunc(s.edges, func(e Edge) bool { return e.Slot == slot })
}

func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.Slot, b.Slot); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Offset, b.Offset)
}
