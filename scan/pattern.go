package scan

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// Pattern is the 3-bit alignment pattern of a record type: a summary of
// which of the object's first MaxAlignWords words hold references.
type Pattern uint8

const (
	NoRef      Pattern = 0
	Ref01      Pattern = 1
	Ref12      Pattern = 2
	Ref01234   Pattern = 3
	Ref0       Pattern = 4
	Ref1234    Pattern = 5
	Ref0123456 Pattern = 6
	// Fallback means the layout has no compact summary.
	Fallback Pattern = 7
)

// Pattern field geometry within a type pointer.
const (
	FieldWidth    = format.PatternFieldWidth
	MaxAlignWords = format.PatternMaxAlignWords
	FieldShift    = format.PatternFieldShift
	KlassMask     = format.PatternKlassMask
)

var patternWords = [...][]int{
	NoRef:      nil,
	Ref01:      {0, 1},
	Ref12:      {1, 2},
	Ref01234:   {0, 1, 2, 3, 4},
	Ref0:       {0},
	Ref1234:    {1, 2, 3, 4},
	Ref0123456: {0, 1, 2, 3, 4, 5, 6},
}

// Patterns lists every pattern in code order.
var Patterns = []Pattern{NoRef, Ref01, Ref12, Ref01234, Ref0, Ref1234, Ref0123456, Fallback}

func (p Pattern) String() string {
	switch p {
	case NoRef:
		return "NoRef"
	case Ref01:
		return "Ref01"
	case Ref12:
		return "Ref12"
	case Ref01234:
		return "Ref01234"
	case Ref0:
		return "Ref0"
	case Ref1234:
		return "Ref1234"
	case Ref0123456:
		return "Ref0123456"
	case Fallback:
		return "Fallback"
	}
	return fmt.Sprintf("Pattern(%d)", uint8(p))
}

// Words returns the word offsets holding references. Fallback has none
// because it defers to the layout.
func (p Pattern) Words() []int {
	if p >= Fallback {
		return nil
	}
	return patternWords[p]
}

// Bitmap returns the set of reference-bearing words as a bitmask.
func (p Pattern) Bitmap() uint8 {
	var b uint8
	for _, w := range p.Words() {
		b |= 1 << w
	}
	return b
}

// EncodePattern stores p in bits 4..6 of the type pointer t.
func EncodePattern(t heap.Address, p Pattern) heap.Address {
	return t&^KlassMask | heap.Address(p)<<FieldShift&KlassMask
}

// DecodePattern clears the pattern bits of t.
func DecodePattern(t heap.Address) heap.Address { return t &^ KlassMask }

// ExtractPattern returns the pattern stored in t.
func ExtractPattern(t heap.Address) Pattern {
	return Pattern((t & KlassMask) >> FieldShift)
}

// PatternForBitmap maps a bitmask of reference-bearing words to its pattern.
// Every bitmap maps to exactly one pattern.
func PatternForBitmap(b uint8) Pattern {
	switch b {
	case 0b00000000:
		return NoRef
	case 0b00000011:
		return Ref01
	case 0b00000110:
		return Ref12
	case 0b00011111:
		return Ref01234
	case 0b00000001:
		return Ref0
	case 0b00011110:
		return Ref1234
	case 0b01111111:
		return Ref0123456
	}
	return Fallback
}

// PatternForOffsets derives the pattern of a pointer-offset table given as
// word offsets.
func PatternForOffsets(offs []uint32) Pattern {
	var b uint8
	for _, off := range offs {
		if off >= MaxAlignWords {
			return Fallback
		}
		b |= 1 << off
	}
	if bits.OnesCount8(b) != len(offs) {
		return Fallback
	}
	return PatternForBitmap(b)
}

// LayoutPattern derives the pattern of a layout. It fails only for layouts
// whose descriptor width has no reader. Opaque layouts (pointers but no
// fields) and tables with repeated offsets get Fallback, leaving them to the
// general traversal.
func LayoutPattern(l heap.Layout) (Pattern, error) {
	if l.NPointers() == 0 {
		return NoRef, nil
	}
	if l.NFields() == 0 {
		return Fallback, nil
	}
	if !l.Width().Valid() {
		return Fallback, fmt.Errorf("layout %s uses %s descriptors: %w", l.Addr(), l.Width(), ErrUnimplementedWidth)
	}
	var b uint8
	for _, off := range l.Pointers().All() {
		if off >= MaxAlignWords {
			return Fallback, nil
		}
		b |= 1 << off
	}
	if bits.OnesCount8(b) != l.NPointers() {
		return Fallback, nil
	}
	return PatternForBitmap(b), nil
}

// TypePattern recomputes the pattern for objects of type t from its layout.
// Types in VM space and the weak reference type never use the fast path.
func (s *Scanner) TypePattern(t heap.Address) Pattern {
	p, err := s.typePattern(t)
	if err != nil {
		s.fatal("type pattern", t, err, "cannot derive alignment pattern")
	}
	return p
}

func (s *Scanner) typePattern(t heap.Address) (Pattern, error) {
	d := heap.Descriptor(t)
	if s.rt.InVMSpace(d) || d == s.rt.WeakRefType {
		return Fallback, nil
	}
	return LayoutPattern(heap.DatatypeAt(s.mem, d).Layout())
}

// GroundTruth recomputes the pattern of obj's type.
func (s *Scanner) GroundTruth(obj heap.Address) Pattern {
	return s.TypePattern(s.rt.TypeOf(s.mem, obj))
}

// VerifyPattern checks that the pattern embedded in obj's type pointer agrees
// with the one recomputed from the layout. Only records outside VM space
// carrying a non-Fallback pattern are checked.
func (s *Scanner) VerifyPattern(obj heap.Address) error {
	vt := s.rt.TypeOf(s.mem, obj)
	if s.classify(vt) != KindRecord || s.rt.InVMSpace(heap.Descriptor(vt)) {
		return nil
	}
	embedded := ExtractPattern(vt)
	if embedded == Fallback {
		return nil
	}
	want, err := s.typePattern(vt)
	if err != nil {
		return &InvariantError{Op: "verify pattern", Obj: obj, Message: "cannot derive alignment pattern", Err: err}
	}
	if embedded != want {
		return &InvariantError{
			Op:      "verify pattern",
			Obj:     obj,
			Message: fmt.Sprintf("type %s embeds %s, layout gives %s", heap.Descriptor(vt), embedded, want),
			Err:     ErrPatternMismatch,
		}
	}
	return nil
}

// MustVerifyPattern is VerifyPattern for callers that treat a mismatch as
// fatal.
func (s *Scanner) MustVerifyPattern(obj heap.Address) {
	if err := s.VerifyPattern(obj); err != nil {
		s.fail(err.(*InvariantError))
	}
}

func (s *Scanner) emitPattern(obj heap.Address, p Pattern, v Visitor) {
	for _, w := range p.Words() {
		s.emit(v, obj.Shift(w))
	}
}
