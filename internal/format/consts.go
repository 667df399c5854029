// Package format describes the byte layouts shared with the host runtime's
// object representation. Every offset below is an externally fixed contract:
// the runtime lays its objects out this way and the scanner reads them back
// through these constants. Nothing here allocates or touches memory directly;
// higher-level packages read through a heap.Memory using these offsets.
//
// All layouts assume a 64-bit little-endian target.
package format

const (
	// WordSize is the size of a machine word (and of every reference slot).
	WordSize = 8

	// LogWordSize is log2(WordSize).
	LogWordSize = 3
)

// ============================================================================
// Object Header (tagged value)
// ============================================================================
//
// Every heap object is preceded by a single header word:
//
//	Offset  Size  Description
//	-0x08   8     Type tag. Bits 0..3 are GC bits, bits 4..6 carry the
//	              alignment pattern for heap-resident types, the rest is the
//	              type pointer (or a small type tag, see below).
//	 0x00   ...   Object body. Object addresses are 16-byte aligned.
const (
	// TagHeaderSize is the size of the hidden header word preceding an object.
	TagHeaderSize = WordSize

	// TagGCBitsMask covers the low bits of the header reserved for the GC.
	TagGCBitsMask = 0xF

	// ObjectAlignment is the alignment of every object body.
	ObjectAlignment = 16

	// TypeAlignment is the alignment the runtime guarantees for type
	// descriptors. 128 bytes keeps bits 4..6 of a type pointer free so the
	// alignment pattern can be embedded there.
	TypeAlignment = 128

	// MaxSmallTags is the number of small type tags the runtime reserves.
	MaxSmallTags = 64

	// SmallTagLimit is the first tag value that is a real type pointer.
	// Masked tags below it index the small-typeof table.
	SmallTagLimit = MaxSmallTags << 4

	// SmallTypeOfEntries is the size of the runtime's small-typeof table.
	// The table is indexed by tag/WordSize, so only even slots are populated.
	SmallTypeOfEntries = SmallTagLimit / WordSize
)

// Small type tags for builtin kinds. A small tag n is stored in the header as
// n<<4 and resolves through SmallTypeOf[(n<<4)/WordSize].
const (
	SmallTagNull         = 0
	SmallTagDatatype     = 2
	SmallTagSymbol       = 7
	SmallTagModule       = 8
	SmallTagSimpleVector = 9
	SmallTagString       = 10
	SmallTagTask         = 11
)

// ============================================================================
// Alignment pattern bits
// ============================================================================
const (
	// PatternFieldWidth is the number of bits used for the embedded pattern code.
	PatternFieldWidth = 3

	// PatternMaxAlignWords is the number of word offsets a pattern can describe.
	PatternMaxAlignWords = 1 << PatternFieldWidth

	// PatternFieldShift is the bit position of the embedded pattern code.
	PatternFieldShift = 4

	// PatternKlassMask selects the pattern code bits of a type pointer.
	PatternKlassMask = (PatternMaxAlignWords - 1) << PatternFieldShift
)

// ============================================================================
// Datatype
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     name        (typename*)
//	0x08    8     super       (datatype*)
//	0x10    8     parameters  (simple vector*)
//	0x18    8     types       (simple vector*)
//	0x20    8     instance    (value*)
//	0x28    8     layout      (layout*)
//	0x30    4     size
//	0x34    4     hash
//	0x38    2     flags
const (
	DatatypeNameOffset       = 0x00
	DatatypeSuperOffset      = 0x08
	DatatypeParametersOffset = 0x10
	DatatypeTypesOffset      = 0x18
	DatatypeInstanceOffset   = 0x20
	DatatypeLayoutOffset     = 0x28
	DatatypeSizeOffset       = 0x30
	DatatypeHashOffset       = 0x34
	DatatypeFlagsOffset      = 0x38
	DatatypeSize             = 0x40
)

// ============================================================================
// Typename
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     name    (symbol*)
//	0x08    8     module  (module*)
const (
	TypeNameNameOffset   = 0x00
	TypeNameModuleOffset = 0x08
	TypeNameSize         = 0x10
)

// ============================================================================
// Symbol
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     left
//	0x08    8     right
//	0x10    8     hash
//	0x18    n     NUL-terminated name bytes
const (
	SymbolLeftOffset  = 0x00
	SymbolRightOffset = 0x08
	SymbolHashOffset  = 0x10
	SymbolNameOffset  = 0x18

	// MaxSymbolNameLen bounds how far a name is read before giving up on
	// finding its terminator.
	MaxSymbolNameLen = 1024
)

// ============================================================================
// Simple Vector
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     length
//	0x08    8*n   densely packed references
const (
	SvecLengthOffset = 0x00
	SvecDataOffset   = 0x08
)

// ============================================================================
// Array
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     data     (element storage)
//	0x08    8     length
//	0x10    2     flags    (see ArrayFlags)
//	0x12    2     elsize   (bytes per element)
//	0x14    4     offset   (elements skipped at the front of the buffer)
//	0x18    8     nrows
//	0x20    8     ncols / maxsize
//	0x28    ...   extra dims (ndims > 2), then owner (how == 3)
const (
	ArrayDataOffset   = 0x00
	ArrayLengthOffset = 0x08
	ArrayFlagsOffset  = 0x10
	ArrayElSizeOffset = 0x12
	ArrayOffsetOffset = 0x14
	ArrayNRowsOffset  = 0x18
	ArrayNColsOffset  = 0x20
	ArrayHeaderSize   = 0x28
)

// ============================================================================
// Module
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     name           (symbol*)
//	0x08    8     parent         (module*)
//	0x10    8     bindings
//	0x18    8     bindingkeyset
//	0x20    8     usings.len
//	0x28    8     usings.max
//	0x30    8     usings.items   (module**)
//	0x38    8*29  usings inline space
const (
	ModuleNameOffset          = 0x00
	ModuleParentOffset        = 0x08
	ModuleBindingsOffset      = 0x10
	ModuleBindingKeySetOffset = 0x18
	ModuleUsingsLenOffset     = 0x20
	ModuleUsingsMaxOffset     = 0x28
	ModuleUsingsItemsOffset   = 0x30
	ModuleUsingsSpaceOffset   = 0x38
	ModuleUsingsInline        = 29
	ModuleSize                = ModuleUsingsSpaceOffset + ModuleUsingsInline*WordSize
)

// ============================================================================
// Task (execution context)
// ============================================================================
//
//	Offset  Size  Field
//	0x00    0x60  language-visible fields, described by the task type's layout
//	0x60    2     tid         (int16)
//	0x68    8     ptls
//	0x70    8     gcstack     (gc frame*)
//	0x78    8     excstack
//	0x80    8     stkbuf
//	0x88    8     bufsz
//	0x90    4     copy_stack:31 | started:1
const (
	TaskFieldsSize      = 0x60
	TaskTIDOffset       = 0x60
	TaskPTLSOffset      = 0x68
	TaskGCStackOffset   = 0x70
	TaskExcStackOffset  = 0x78
	TaskStkBufOffset    = 0x80
	TaskBufSizeOffset   = 0x88
	TaskCopyStackOffset = 0x90
	TaskSize            = 0x98
)

// ============================================================================
// GC Frame
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     nroots  (count<<2 | flags, see RootCount)
//	0x08    8     prev    (gc frame*)
//	0x10    8*n   root slots
const (
	FrameNRootsOffset = 0x00
	FramePrevOffset   = 0x08
	FrameRootsOffset  = 0x10
)

// ============================================================================
// Exception Stack
// ============================================================================
//
//	Offset  Size  Field
//	0x00    8     top            (in words)
//	0x08    8     reserved_size
//	0x10    8*n   data           (backtrace elements and exceptions)
const (
	ExcStackTopOffset      = 0x00
	ExcStackReservedOffset = 0x08
	ExcStackDataOffset     = 0x10
)
