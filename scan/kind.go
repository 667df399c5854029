package scan

import (
	"fmt"

	"github.com/joshuapare/heapscan/heap"
)

// Kind is the representation family of an object. The set is closed: every
// object classifies as exactly one Kind.
type Kind uint8

const (
	KindOther        Kind = 0
	KindSimpleVector Kind = 1
	KindArray        Kind = 2
	KindModule       Kind = 3
	KindRecord       Kind = 4
	KindTask         Kind = 5
	KindBuffer       Kind = 6
	KindSymbol       Kind = 7
	KindString       Kind = 8
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindSimpleVector:
		return "simplevector"
	case KindArray:
		return "array"
	case KindModule:
		return "module"
	case KindRecord:
		return "record"
	case KindTask:
		return "task"
	case KindBuffer:
		return "buffer"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds lists every kind in code order.
var Kinds = []Kind{
	KindOther, KindSimpleVector, KindArray, KindModule, KindRecord,
	KindTask, KindBuffer, KindSymbol, KindString,
}

// Classify returns the kind of obj. Nothing is cached.
func (s *Scanner) Classify(obj heap.Address) Kind {
	return s.classify(s.rt.TypeOf(s.mem, obj))
}

// KindOf returns the kind of objects whose type pointer is vt.
func (s *Scanner) KindOf(vt heap.Address) Kind { return s.classify(vt) }

// classify maps a type pointer to a kind. Identity checks against the
// runtime singletons run in a fixed order; the array check reads the type's
// name, so it must come after the buffer check.
func (s *Scanner) classify(vt heap.Address) Kind {
	rt := s.rt
	switch {
	case vt == rt.SymbolType:
		return KindSymbol
	case vt == rt.BuffTag:
		return KindBuffer
	case vt == rt.SimpleVectorType:
		return KindSimpleVector
	case !rt.ArrayTypeName.IsNull() && heap.DatatypeAt(s.mem, vt).Name() == rt.ArrayTypeName:
		return KindArray
	case vt == rt.ModuleType:
		return KindModule
	case vt == rt.TaskType:
		return KindTask
	case vt == rt.StringType:
		return KindString
	}
	return KindRecord
}

// Category collapses kinds without a container category to KindOther.
func Category(k Kind) Kind {
	switch k {
	case KindSimpleVector, KindArray, KindModule, KindRecord:
		return k
	}
	return KindOther
}

// IsObjArray reports whether obj is an array.
func (s *Scanner) IsObjArray(obj heap.Address) bool {
	return s.Classify(obj) == KindArray
}

// IsValArray reports whether obj is a simple vector.
func (s *Scanner) IsValArray(obj heap.Address) bool {
	return s.Classify(obj) == KindSimpleVector
}
