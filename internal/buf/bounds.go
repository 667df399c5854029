package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// AddrAdd applies a signed byte displacement to an unsigned machine address,
// returning ok = false when the result would wrap around the address space.
func AddrAdd(addr uint64, delta int64) (uint64, bool) {
	if delta >= 0 {
		d := uint64(delta)
		if addr > math.MaxUint64-d {
			return 0, false
		}
		return addr + d, true
	}
	// -MinInt64 does not fit in int64; negate through uint64.
	d := uint64(-(delta + 1)) + 1
	if addr < d {
		return 0, false
	}
	return addr - d, true
}

// MulU64 multiplies a and b, returning ok = false when the product overflows.
// Used for count * elementSize calculations over foreign containers.
func MulU64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

// CheckSpan validates that n bytes starting at addr fall entirely inside the
// region [base, base+size). It returns the offset of addr within the region.
//
// This is the recommended way to resolve an address against a mapped segment:
//
//	off, err := buf.CheckSpan(seg.Base, uint64(len(seg.Data)), addr, 8)
//	if err != nil {
//	    return fmt.Errorf("load: %w", err)
//	}
//	// Safe to read seg.Data[off:off+8]
func CheckSpan(base, size, addr, n uint64) (int, error) {
	if addr < base {
		return 0, fmt.Errorf("bounds: addr=0x%x below base=0x%x", addr, base)
	}
	off := addr - base
	end := off + n
	if end < off {
		return 0, fmt.Errorf("overflow: off=0x%x + n=%d", off, n)
	}
	if end > size {
		return 0, fmt.Errorf("bounds: end=0x%x > size=0x%x", end, size)
	}
	if off > math.MaxInt {
		return 0, fmt.Errorf("overflow: offset 0x%x exceeds int", off)
	}
	return int(off), nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
