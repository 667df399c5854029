// Package walker traverses the object graph of a heap snapshot.
//
// # Overview
//
// A Walker starts from a set of root objects and follows every edge a
// scan.Scanner reports, visiting each reachable object once:
//   - Bitmap-based visited tracking, one bit per object granule
//   - Iterative traversal with an explicit stack
//   - Edges resolved through scan.Edge.Load, so offset slots reach the
//     object they point into
//
// Counter builds on the walker to summarise a heap by kind and type.
//
// # Quick Start
//
//	f, _ := imagefile.Open("heap.img")
//	defer f.Close()
//	s := scan.New(f.Runtime, f.Mem, nil)
//	w := walker.New(s, f.Mem)
//	err := w.Walk(ctx, f.Objects, func(obj heap.Address, k scan.Kind) error {
//	    fmt.Println(obj, k)
//	    return nil
//	})
//
// # Failure Model
//
// The scanner panics on broken invariants and the memory panics on unmapped
// loads. Walk recovers both and returns them as errors, so a corrupt image
// ends the walk instead of the process. Slots whose referent is unmapped are
// counted as dangling and not followed.
package walker
