package scan

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapscan/heap"
)

var (
	// ErrUnimplementedWidth indicates a layout uses a descriptor width the
	// traversal has no reader for.
	ErrUnimplementedWidth = errors.New("scan: unimplemented field descriptor width")
	// ErrOpaqueType indicates a type with pointers but no fields reached the
	// generic record traversal.
	ErrOpaqueType = errors.New("scan: opaque type on generic path")
	// ErrPatternMismatch indicates the alignment pattern embedded in a type
	// pointer disagrees with the type's layout.
	ErrPatternMismatch = errors.New("scan: alignment pattern mismatch")
	// ErrInvalidThreadID indicates a task on a copied stack has no owning thread.
	ErrInvalidThreadID = errors.New("scan: invalid thread id")
	// ErrUnmappedReferent indicates an edge loads a non-null unmapped address.
	ErrUnmappedReferent = errors.New("scan: referent not mapped")
	// ErrMalformedArray indicates an array header that cannot be traversed.
	ErrMalformedArray = errors.New("scan: malformed array")
	// ErrMissingUpcall indicates the runtime callbacks needed by a task were
	// not supplied.
	ErrMissingUpcall = errors.New("scan: runtime upcall not provided")
)

// InvariantError describes a broken object-graph invariant. Scanners panic
// with it; callers that recover can match Err with errors.Is.
type InvariantError struct {
	Op      string
	Obj     heap.Address
	Message string
	Err     error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Obj, e.Message, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
