package format

// RootCount is the packed nroots word at the head of a GC frame.
//
//	Bits    Field
//	0       indirect (each root slot holds the address of the real slot)
//	1       reserved
//	2..63   number of roots
type RootCount uint64

const (
	rootCountShift   = 2
	rootIndirectBit  = 1 << 0
	rootCountFlagMsk = 1<<rootCountShift - 1
)

// NRoots returns the number of root slots in the frame.
func (r RootCount) NRoots() uint64 { return uint64(r) >> rootCountShift }

// Indirect reports whether the frame's slots hold slot addresses.
func (r RootCount) Indirect() bool { return r&rootIndirectBit != 0 }

// Flags returns the two low flag bits.
func (r RootCount) Flags() uint64 { return uint64(r) & rootCountFlagMsk }

// PackRootCount builds the nroots word.
func PackRootCount(n uint64, indirect bool) RootCount {
	r := RootCount(n << rootCountShift)
	if indirect {
		r |= rootIndirectBit
	}
	return r
}

// CopyStack is the 32-bit word at TaskCopyStackOffset.
//
//	Bits    Field
//	0..30   copy_stack (bytes of live stack copied into stkbuf)
//	31      started
type CopyStack uint32

const (
	copyStackSizeMask  = 1<<31 - 1
	copyStackStartedBt = 1 << 31
)

// Size returns the number of copied stack bytes; zero means the task does
// not use a copied stack.
func (c CopyStack) Size() uint32 { return uint32(c) & copyStackSizeMask }

// Started reports the started bit.
func (c CopyStack) Started() bool { return c&copyStackStartedBt != 0 }

// PackCopyStack builds the copy_stack word.
func PackCopyStack(size uint32, started bool) CopyStack {
	c := CopyStack(size & copyStackSizeMask)
	if started {
		c |= copyStackStartedBt
	}
	return c
}
