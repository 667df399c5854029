package heap

import (
	"fmt"

	"github.com/joshuapare/heapscan/internal/format"
)

// Address is a machine address in the host runtime's address space.
type Address uint64

// Null is the zero address.
const Null Address = 0

// IsNull reports whether a is the zero address.
func (a Address) IsNull() bool { return a == 0 }

// Plus returns a advanced by n bytes.
func (a Address) Plus(n uint64) Address { return a + Address(n) }

// Offset returns a displaced by a signed number of bytes.
func (a Address) Offset(n int64) Address { return Address(int64(a) + n) }

// Shift returns a advanced by n words.
func (a Address) Shift(n int) Address {
	return Address(int64(a) + int64(n)*format.WordSize)
}

// Diff returns a - b in bytes.
func (a Address) Diff(b Address) int64 { return int64(a) - int64(b) }

// AlignedTo reports whether a is a multiple of n (a power of two).
func (a Address) AlignedTo(n uint64) bool { return format.IsAligned(uint64(a), n) }

func (a Address) String() string { return fmt.Sprintf("0x%x", uint64(a)) }
