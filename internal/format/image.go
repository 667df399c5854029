package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/heapscan/internal/buf"
)

// ImageSignature is the four-byte magic at the start of a heap image file.
var ImageSignature = []byte{'H', 'S', 'I', 'M'}

// ImageVersion is the only image version this package reads and writes.
const ImageVersion = 1

// Image header layout (little-endian):
//
//	Offset  Size   Description
//	------  -----  ---------------------------------------------------------
//	0x000   4      'H' 'S' 'I' 'M'
//	0x004   4      Version
//	0x008   4      Flags (bit 0: tasks use copied stacks)
//	0x00C   4      Segment count
//	0x010   4      Object count
//	0x014   4      Stack base count
//	0x018   8      Reserved
//	0x020   8      Symbol type
//	0x028   8      Simple vector type
//	0x030   8      Module type
//	0x038   8      Task type
//	0x040   8      String type
//	0x048   8      Weak reference type
//	0x050   8      Array typename
//	0x058   8      Buffer tag
//	0x060   8      VM space low (inclusive)
//	0x068   8      VM space high (exclusive)
//	0x070   0x400  Small-typeof table (128 words)
//
// The header is followed by the segment table (ImageSegmentEntrySize each),
// the object table (one word each), the stack base table
// (ImageStackBaseEntrySize each) and finally the segment payloads at the
// file offsets named in the segment table.
const (
	ImageSignatureOffset    = 0x000
	ImageVersionOffset      = 0x004
	ImageFlagsOffset        = 0x008
	ImageSegCountOffset     = 0x00C
	ImageObjCountOffset     = 0x010
	ImageStackCountOffset   = 0x014
	ImageSymbolTypeOffset   = 0x020
	ImageSvecTypeOffset     = 0x028
	ImageModuleTypeOffset   = 0x030
	ImageTaskTypeOffset     = 0x038
	ImageStringTypeOffset   = 0x040
	ImageWeakRefTypeOffset  = 0x048
	ImageArrayTypeNameOff   = 0x050
	ImageBuffTagOffset      = 0x058
	ImageVMSpaceLowOffset   = 0x060
	ImageVMSpaceHighOffset  = 0x068
	ImageSmallTypeOfOffset  = 0x070
	ImageHeaderSize         = ImageSmallTypeOfOffset + SmallTypeOfEntries*WordSize
	ImageSegmentEntrySize   = 24
	ImageStackBaseEntrySize = 16

	// ImageFlagCopyStacks marks images whose tasks may run on copied stacks.
	ImageFlagCopyStacks = 1 << 0

	// MaxImageSegments bounds the segment table to reject corrupt headers early.
	MaxImageSegments = 1 << 16
)

// ImageHeader is the decoded fixed header of a heap image.
type ImageHeader struct {
	Version       uint32
	Flags         uint32
	SegmentCount  uint32
	ObjectCount   uint32
	StackCount    uint32
	SymbolType    uint64
	SvecType      uint64
	ModuleType    uint64
	TaskType      uint64
	StringType    uint64
	WeakRefType   uint64
	ArrayTypeName uint64
	BuffTag       uint64
	VMSpaceLow    uint64
	VMSpaceHigh   uint64
	SmallTypeOf   [SmallTypeOfEntries]uint64
}

// ImageSegment is one entry of the segment table.
type ImageSegment struct {
	Base       uint64
	Length     uint64
	FileOffset uint64
}

// ParseImageHeader validates and decodes an image header.
func ParseImageHeader(b []byte) (ImageHeader, error) {
	if len(b) < ImageHeaderSize {
		return ImageHeader{}, fmt.Errorf("image header: %w (have %d, need %d)", ErrTruncated, len(b), ImageHeaderSize)
	}
	if !bytes.Equal(b[ImageSignatureOffset:ImageSignatureOffset+len(ImageSignature)], ImageSignature) {
		return ImageHeader{}, fmt.Errorf("image header: %w", ErrSignatureMismatch)
	}
	h := ImageHeader{
		Version:       buf.U32LE(b[ImageVersionOffset:]),
		Flags:         buf.U32LE(b[ImageFlagsOffset:]),
		SegmentCount:  buf.U32LE(b[ImageSegCountOffset:]),
		ObjectCount:   buf.U32LE(b[ImageObjCountOffset:]),
		StackCount:    buf.U32LE(b[ImageStackCountOffset:]),
		SymbolType:    buf.U64LE(b[ImageSymbolTypeOffset:]),
		SvecType:      buf.U64LE(b[ImageSvecTypeOffset:]),
		ModuleType:    buf.U64LE(b[ImageModuleTypeOffset:]),
		TaskType:      buf.U64LE(b[ImageTaskTypeOffset:]),
		StringType:    buf.U64LE(b[ImageStringTypeOffset:]),
		WeakRefType:   buf.U64LE(b[ImageWeakRefTypeOffset:]),
		ArrayTypeName: buf.U64LE(b[ImageArrayTypeNameOff:]),
		BuffTag:       buf.U64LE(b[ImageBuffTagOffset:]),
		VMSpaceLow:    buf.U64LE(b[ImageVMSpaceLowOffset:]),
		VMSpaceHigh:   buf.U64LE(b[ImageVMSpaceHighOffset:]),
	}
	if h.Version != ImageVersion {
		return ImageHeader{}, fmt.Errorf("image header: version %d: %w", h.Version, ErrUnsupported)
	}
	if h.SegmentCount > MaxImageSegments {
		return ImageHeader{}, fmt.Errorf("image header: %d segments: %w", h.SegmentCount, ErrCorrupt)
	}
	if h.VMSpaceHigh < h.VMSpaceLow {
		return ImageHeader{}, fmt.Errorf("image header: vm space [0x%x, 0x%x): %w", h.VMSpaceLow, h.VMSpaceHigh, ErrCorrupt)
	}
	for i := range h.SmallTypeOf {
		h.SmallTypeOf[i] = buf.U64LE(b[ImageSmallTypeOfOffset+i*WordSize:])
	}
	return h, nil
}

// Encode writes the header into the first ImageHeaderSize bytes of b.
func (h ImageHeader) Encode(b []byte) {
	copy(b[ImageSignatureOffset:], ImageSignature)
	PutU32(b, ImageVersionOffset, h.Version)
	PutU32(b, ImageFlagsOffset, h.Flags)
	PutU32(b, ImageSegCountOffset, h.SegmentCount)
	PutU32(b, ImageObjCountOffset, h.ObjectCount)
	PutU32(b, ImageStackCountOffset, h.StackCount)
	PutU64(b, ImageSymbolTypeOffset, h.SymbolType)
	PutU64(b, ImageSvecTypeOffset, h.SvecType)
	PutU64(b, ImageModuleTypeOffset, h.ModuleType)
	PutU64(b, ImageTaskTypeOffset, h.TaskType)
	PutU64(b, ImageStringTypeOffset, h.StringType)
	PutU64(b, ImageWeakRefTypeOffset, h.WeakRefType)
	PutU64(b, ImageArrayTypeNameOff, h.ArrayTypeName)
	PutU64(b, ImageBuffTagOffset, h.BuffTag)
	PutU64(b, ImageVMSpaceLowOffset, h.VMSpaceLow)
	PutU64(b, ImageVMSpaceHighOffset, h.VMSpaceHigh)
	for i, t := range h.SmallTypeOf {
		PutU64(b, ImageSmallTypeOfOffset+i*WordSize, t)
	}
}

// ParseImageSegment decodes one segment table entry.
func ParseImageSegment(b []byte) (ImageSegment, error) {
	if len(b) < ImageSegmentEntrySize {
		return ImageSegment{}, fmt.Errorf("image segment: %w", ErrTruncated)
	}
	return ImageSegment{
		Base:       buf.U64LE(b[0:]),
		Length:     buf.U64LE(b[8:]),
		FileOffset: buf.U64LE(b[16:]),
	}, nil
}

// Encode writes the segment entry into b.
func (s ImageSegment) Encode(b []byte) {
	PutU64(b, 0, s.Base)
	PutU64(b, 8, s.Length)
	PutU64(b, 16, s.FileOffset)
}
