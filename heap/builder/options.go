package builder

import "github.com/joshuapare/heapscan/heap"

// DefaultBuffTag is the tag word given to raw runtime buffers.
const DefaultBuffTag heap.Address = 0x4eadc000

// Options configures the arenas of a Builder.
type Options struct {
	// VMBase and VMSize place the VM-space arena.
	// Default: 0x10000000, 256 KiB
	VMBase heap.Address
	VMSize int

	// HeapBase and HeapSize place the object arena.
	// Default: 0x20000000, 1 MiB
	HeapBase heap.Address
	HeapSize int

	// StackBase and StackSize place the arena used for GC frames.
	// Default: 0x30000000, 64 KiB
	StackBase heap.Address
	StackSize int

	// CopyStacks is recorded in the built snapshot.
	// Default: false
	CopyStacks bool
}

// DefaultOptions returns the arena layout used when New is given nil.
func DefaultOptions() *Options {
	return &Options{
		VMBase:    0x10000000,
		VMSize:    256 << 10,
		HeapBase:  0x20000000,
		HeapSize:  1 << 20,
		StackBase: 0x30000000,
		StackSize: 64 << 10,
	}
}
