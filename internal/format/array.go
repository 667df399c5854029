package format

// ArrayHow is the storage-ownership mode of an array.
type ArrayHow uint8

const (
	// HowInline means the data is stored inline after the array header.
	HowInline ArrayHow = 0
	// HowRuntimeBuffer means the data lives in a runtime-managed buffer the
	// array must keep alive.
	HowRuntimeBuffer ArrayHow = 1
	// HowForeign means the data lives in a malloc'd buffer the array owns.
	HowForeign ArrayHow = 2
	// HowOwner means the data belongs to another heap object referenced from
	// the owner slot.
	HowOwner ArrayHow = 3
)

func (h ArrayHow) String() string {
	switch h {
	case HowInline:
		return "inline"
	case HowRuntimeBuffer:
		return "runtime-buffer"
	case HowForeign:
		return "foreign"
	case HowOwner:
		return "owner"
	}
	return "unknown"
}

// ArrayFlags is the packed flags halfword at ArrayFlagsOffset.
//
//	Bits    Field
//	0..1    how
//	2..10   ndims
//	11      pooled
//	12      ptrarray   (elements are references)
//	13      hasptr     (elements are inline records containing references)
//	14      isshared
//	15      isaligned
type ArrayFlags uint16

const (
	arrayHowMask      = 0x3
	arrayNDimsShift   = 2
	arrayNDimsMask    = 0x1FF
	arrayPooledBit    = 1 << 11
	arrayPtrArrayBit  = 1 << 12
	arrayHasPtrBit    = 1 << 13
	arrayIsSharedBit  = 1 << 14
	arrayIsAlignedBit = 1 << 15
)

// NewArrayFlags packs the ownership mode and rank.
func NewArrayFlags(how ArrayHow, ndims uint32) ArrayFlags {
	return ArrayFlags(uint16(how)&arrayHowMask) |
		ArrayFlags(uint16(ndims&arrayNDimsMask)<<arrayNDimsShift)
}

func (f ArrayFlags) How() ArrayHow   { return ArrayHow(f & arrayHowMask) }
func (f ArrayFlags) NDims() uint32   { return uint32(f>>arrayNDimsShift) & arrayNDimsMask }
func (f ArrayFlags) Pooled() bool    { return f&arrayPooledBit != 0 }
func (f ArrayFlags) PtrArray() bool  { return f&arrayPtrArrayBit != 0 }
func (f ArrayFlags) HasPtr() bool    { return f&arrayHasPtrBit != 0 }
func (f ArrayFlags) IsShared() bool  { return f&arrayIsSharedBit != 0 }
func (f ArrayFlags) IsAligned() bool { return f&arrayIsAlignedBit != 0 }

// WithPtrArray returns f with the ptrarray bit set.
func (f ArrayFlags) WithPtrArray() ArrayFlags { return f | arrayPtrArrayBit }

// WithHasPtr returns f with the hasptr bit set.
func (f ArrayFlags) WithHasPtr() ArrayFlags { return f | arrayHasPtrBit }

// WithShared returns f with the isshared bit set.
func (f ArrayFlags) WithShared() ArrayFlags { return f | arrayIsSharedBit }

// NDimWords returns the number of out-of-line dimension words stored after
// ncols. Arrays of rank 2 or less keep every dimension inline.
func NDimWords(ndims uint32) int {
	if ndims < 3 {
		return 0
	}
	return int(ndims - 2)
}

// ArrayOwnerOffset returns the byte offset of the owner slot of an array of
// the given rank.
func ArrayOwnerOffset(ndims uint32) int {
	return ArrayNColsOffset + WordSize*(1+NDimWords(ndims))
}
