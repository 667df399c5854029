package format

// Backtrace buffers stored on an exception stack are sequences of words.
// A native frame is a single instruction-pointer word. Any other entry starts
// with BTNonPtrEntry, followed by a header word and then the entry's values:
//
//	Word    Description
//	0       BTNonPtrEntry
//	1       header: bits 0..2 = number of managed values,
//	                bits 3..5 = number of plain integer values
//	2..     managed values, then plain integer values
const (
	// BTNonPtrEntry marks the first word of an extended backtrace entry.
	BTNonPtrEntry = ^uint64(0)

	btNumJLValsMask    = 0x7
	btNumUintValsShift = 3
	btNumUintValsMask  = 0x7

	// BTHeaderWords is the number of words before an extended entry's values.
	BTHeaderWords = 2
)

// BTIsNative reports whether the entry starting with first is a plain
// native instruction pointer.
func BTIsNative(first uint64) bool {
	return first != BTNonPtrEntry
}

// BTNumJLVals returns the number of managed values in an extended entry.
func BTNumJLVals(header uint64) int {
	return int(header & btNumJLValsMask)
}

// BTNumUintVals returns the number of plain integer values in an extended entry.
func BTNumUintVals(header uint64) int {
	return int((header >> btNumUintValsShift) & btNumUintValsMask)
}

// BTEntrySize returns the length in words of the entry starting with first;
// header is only consulted for extended entries.
func BTEntrySize(first, header uint64) int {
	if BTIsNative(first) {
		return 1
	}
	return BTHeaderWords + BTNumJLVals(header) + BTNumUintVals(header)
}

// PackBTHeader builds the header word of an extended entry.
func PackBTHeader(njlvals, nuintvals int) uint64 {
	return uint64(njlvals)&btNumJLValsMask |
		(uint64(nuintvals)&btNumUintValsMask)<<btNumUintValsShift
}
