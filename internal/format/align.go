package format

// AlignUp returns n rounded up to the next multiple of align, which must be a
// power of two.
//
// Example:
//
//	AlignUp(1, 16)   = 16
//	AlignUp(16, 16)  = 16
//	AlignUp(130, 128) = 256
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// Align8 returns n aligned up to the next word boundary.
func Align8(n int) int {
	return (n + WordSize - 1) &^ (WordSize - 1)
}

// IsAligned reports whether n is a multiple of align (a power of two).
func IsAligned(n, align uint64) bool {
	return n&(align-1) == 0
}
