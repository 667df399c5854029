// Package buf contains bounds-checked arithmetic and little-endian decoding
// helpers shared by the memory backends and the image codec.
//
// Reads never panic: a slice shorter than the value being decoded yields
// zero. Callers that must distinguish a short read check the length with Has
// or CheckSpan first.
package buf

import "encoding/binary"

// U16LE decodes the halfword at the start of b.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE decodes the 32-bit word at the start of b.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32LE is U32LE reinterpreted as signed, as used by layout first_ptr.
func I32LE(b []byte) int32 { return int32(U32LE(b)) }

// U64LE decodes the machine word at the start of b.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
