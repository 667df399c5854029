// Package heap models the memory of a host runtime as seen by the garbage
// collector's object scanner.
//
// # Overview
//
// The runtime owns every byte the scanner looks at. This package keeps all
// raw memory access behind a single boundary:
//
//   - Memory: word and sub-word loads at machine addresses
//   - Image: a segmented, bounds-checked Memory over byte slices, used for
//     heap snapshots and tests
//   - Native: a Memory that reads the current process directly, used when
//     the scanner is embedded in the runtime itself
//   - View: a base address plus a Memory, exposing field accessors so
//     traversal code never performs address arithmetic on its own
//
// On top of that it provides read-only accessors for the runtime metadata the
// scanner interprets at trace time: type tags, datatypes, layouts and their
// pointer-offset tables, and symbol names.
//
// # Runtime Capabilities
//
// Runtime carries the runtime's singleton type addresses, the small-typeof
// table and the VM-space membership oracle. It is passed explicitly to every
// entry point instead of living in a global, so tests can build a fake
// runtime with heap/builder.
//
// # Thread Safety
//
// Image and Native are safe for concurrent reads. Writes (StoreWord and
// friends) are only used while building images and during tag publication,
// which the runtime performs with identical values.
package heap
