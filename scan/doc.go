// Package scan enumerates the outgoing references of objects in a managed
// runtime's heap.
//
// # Overview
//
// Given the address of one live object, a Scanner reports every slot inside
// it that holds a reference to another heap object. The tracing loop that
// consumes those slots (marking, queuing, draining) lives outside this
// package; the Scanner only hands each slot to a Visitor as an Edge.
//
// Object layouts are defined by the runtime at run time. Generic records are
// described by a per-type layout whose pointer-offset table may use 1-, 2- or
// 4-byte entries. Simple vectors, arrays, modules and tasks have bespoke
// representations and get dedicated traversals.
//
// # Quick Start
//
//	s := scan.New(rt, mem, &scan.Options{Upcalls: up})
//	var edges scan.EdgeSet
//	s.Scan(obj, &edges)
//	for _, e := range edges.Edges() {
//	    fmt.Println(e.Slot, e.Load(mem))
//	}
//
// # Scan Variants
//
//   - Scan: uses the alignment-pattern fast path for records whose type
//     lives outside VM space, then falls back to the general traversal.
//   - ScanFallback: always performs the general traversal.
//   - ScanChecked: compares the embedded pattern with one recomputed from
//     the layout before running the general traversal. A development aid.
//
// All three report the same edge set for the same object.
//
// # Alignment Patterns
//
// Records whose pointer fields all sit in the first eight words and form one
// of a handful of common shapes are summarised by a 3-bit Pattern. The
// runtime stores that code in bits 4..6 of the type pointer written into the
// object's header, so Scan can emit the slots without reading the layout.
// Type descriptors are 128-byte aligned, which keeps those bits free.
//
// # Stack Roots
//
// ScanStackRoots walks the GC frame chain of a task. When a task runs on a
// copied stack (Options.CopyStacks), frame addresses inside the original
// stack window are translated into the copy buffer before they are read.
// Exception stacks are handed to the runtime through Upcalls.
//
// # Failure Model
//
// There are no recoverable errors. A reserved descriptor width, an opaque
// type on the generic path, a pattern mismatch or a negative thread id all
// mean the object graph is corrupt; the Scanner logs the condition and
// panics with an *InvariantError.
//
// # Thread Safety
//
// A Scanner is immutable after New and may be shared by any number of
// goroutines. Objects being scanned must not be mutated concurrently.
package scan
