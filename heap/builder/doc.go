// Package builder assembles synthetic heaps laid out the way the host
// runtime lays out its objects.
//
// A Builder owns three bump-allocated arenas: VM space (builtin types and
// symbols), the object heap, and a stack region for GC frames. Objects are
// written through a heap.Image, so the result can be scanned directly or
// saved with package heap/image.
//
// Record instances of heap-resident types get their alignment pattern
// published into the header word at allocation, the way the runtime does it,
// so scan.Scanner.Scan can take the fast path.
//
// Example:
//
//	b := builder.New(nil)
//	pair := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
//	x := b.Record(pair, b.String("a"), b.String("b"))
//	snap := b.Build()
//	s := scan.New(snap.Runtime, snap.Mem, nil)
//	s.Scan(x, visitor)
package builder
