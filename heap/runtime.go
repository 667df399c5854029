package heap

import "github.com/joshuapare/heapscan/internal/format"

// SpaceOracle answers whether an address belongs to the runtime's VM space:
// the boot-time, permanently resident region holding builtin types.
type SpaceOracle interface {
	InVMSpace(a Address) bool
}

// Range is a half-open address range. It implements SpaceOracle.
type Range struct {
	Low, High Address
}

// Contains reports whether Low <= a < High.
func (r Range) Contains(a Address) bool { return a >= r.Low && a < r.High }

func (r Range) InVMSpace(a Address) bool { return r.Contains(a) }

// Runtime carries the host runtime's singleton values. It is passed
// explicitly to everything that interprets objects and is read-only once
// scanning starts.
type Runtime struct {
	SymbolType       Address
	SimpleVectorType Address
	ModuleType       Address
	TaskType         Address
	StringType       Address
	WeakRefType      Address

	// ArrayTypeName is the typename shared by every array type.
	ArrayTypeName Address

	// BuffTag is the tag word of raw runtime buffers. It is not a type.
	BuffTag Address

	// SmallTypeOf resolves small type tags. Entry tag/8 holds the type for
	// masked tag values below format.SmallTagLimit.
	SmallTypeOf [format.SmallTypeOfEntries]Address

	VMSpace SpaceOracle
}

// InVMSpace reports whether a lies in VM space. A runtime without an oracle
// has no VM space.
func (rt *Runtime) InVMSpace(a Address) bool {
	if rt.VMSpace == nil {
		return false
	}
	return rt.VMSpace.InVMSpace(a)
}

// ToType resolves a masked tag to a type pointer. Small tags go through
// SmallTypeOf; anything else already is one.
func (rt *Runtime) ToType(tag Address) Address {
	if tag < format.SmallTagLimit {
		return rt.SmallTypeOf[tag/format.WordSize]
	}
	return tag
}

// TypeOf returns the type of obj, possibly carrying embedded pattern bits.
func (rt *Runtime) TypeOf(mem Memory, obj Address) Address {
	return rt.ToType(TypeTag(mem, obj))
}

// SetSmallType registers t as the type for small tag n.
func (rt *Runtime) SetSmallType(n int, t Address) {
	rt.SmallTypeOf[SmallTag(n)/format.WordSize] = t
}

// SmallTag returns the masked tag value of small tag n.
func SmallTag(n int) Address { return Address(n) << 4 }

// TagAddr returns the address of obj's header word.
func TagAddr(obj Address) Address { return obj - format.TagHeaderSize }

// RawTag returns obj's header word including GC bits.
func RawTag(mem Memory, obj Address) Address { return mem.LoadWord(TagAddr(obj)) }

// TypeTag returns obj's header word with the GC bits cleared.
func TypeTag(mem Memory, obj Address) Address {
	return RawTag(mem, obj) &^ format.TagGCBitsMask
}

// Descriptor strips embedded pattern bits from a type pointer, yielding the
// address of the type descriptor itself.
func Descriptor(t Address) Address { return t &^ format.PatternKlassMask }
