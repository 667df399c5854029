package heap

import (
	"errors"
	"fmt"
)

// ErrUnmapped is wrapped by every FaultError.
var ErrUnmapped = errors.New("heap: unmapped address")

// Memory is the read side of the host runtime's address space.
//
// Loads of unmapped memory are not recoverable: an object graph that leads
// the scanner outside mapped memory is corrupt, so implementations panic with
// a *FaultError instead of returning an error.
type Memory interface {
	Load8(a Address) uint8
	Load16(a Address) uint16
	Load32(a Address) uint32
	LoadWord(a Address) Address

	// Mapped reports whether a word at a can be loaded.
	Mapped(a Address) bool
}

// WritableMemory is a Memory that also accepts stores. Only builders and tag
// publication write through it.
type WritableMemory interface {
	Memory
	Store8(a Address, v uint8)
	Store16(a Address, v uint16)
	Store32(a Address, v uint32)
	StoreWord(a Address, v Address)
}

// FaultError describes an access outside mapped memory.
type FaultError struct {
	Addr Address
	Size int
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("heap: %d-byte access at %s is not mapped", e.Size, e.Addr)
}

func (e *FaultError) Unwrap() error { return ErrUnmapped }
