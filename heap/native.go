package heap

import "unsafe"

// Native reads the memory of the current process. It is the backend used when
// the scanner runs inside the host runtime, where every Address is a live
// pointer the runtime guarantees stays valid for the duration of a scan.
//
// Native performs no bounds checking; a bad address faults the process the
// same way the runtime's own code would.
type Native struct {
	// MappedFunc answers Mapped queries. When nil every non-null address is
	// reported as mapped.
	MappedFunc func(Address) bool
}

func (Native) Load8(a Address) uint8 { return *(*uint8)(unsafe.Pointer(uintptr(a))) }
func (Native) Load16(a Address) uint16 { return *(*uint16)(unsafe.Pointer(uintptr(a))) }
func (Native) Load32(a Address) uint32 { return *(*uint32)(unsafe.Pointer(uintptr(a))) }
func (Native) LoadWord(a Address) Address { return *(*Address)(unsafe.Pointer(uintptr(a))) }

func (n Native) Mapped(a Address) bool {
	if n.MappedFunc != nil {
		return n.MappedFunc(a)
	}
	return !a.IsNull()
}

// AddressOf returns the address of p for use with Native.
func AddressOf[T any](p *T) Address {
	return Address(uintptr(unsafe.Pointer(p)))
}
