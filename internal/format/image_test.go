package format

import (
	"errors"
	"testing"
)

func TestImageHeaderRoundTrip(t *testing.T) {
	h := ImageHeader{
		Version:       ImageVersion,
		Flags:         ImageFlagCopyStacks,
		SegmentCount:  3,
		ObjectCount:   10,
		StackCount:    1,
		SymbolType:    0x10000080,
		SvecType:      0x10000100,
		ModuleType:    0x10000180,
		TaskType:      0x10000200,
		StringType:    0x10000280,
		WeakRefType:   0x10000300,
		ArrayTypeName: 0x10000380,
		BuffTag:       0x4eadc000,
		VMSpaceLow:    0x10000000,
		VMSpaceHigh:   0x11000000,
	}
	h.SmallTypeOf[2*SmallTagSymbol] = h.SymbolType

	b := make([]byte, ImageHeaderSize)
	h.Encode(b)
	got, err := ParseImageHeader(b)
	if err != nil {
		t.Fatalf("ParseImageHeader: %v", err)
	}
	if got != h {
		t.Fatalf("header mismatch:\n got %+v\nwant %+v", got, h)
	}
}

func TestImageHeaderErrors(t *testing.T) {
	b := make([]byte, ImageHeaderSize)
	if _, err := ParseImageHeader(b[:10]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation error, got %v", err)
	}
	if _, err := ParseImageHeader(b); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected signature error, got %v", err)
	}
	ImageHeader{Version: 99}.Encode(b)
	if _, err := ParseImageHeader(b); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported version, got %v", err)
	}
	ImageHeader{Version: ImageVersion, VMSpaceLow: 2, VMSpaceHigh: 1}.Encode(b)
	if _, err := ParseImageHeader(b); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corrupt vm space, got %v", err)
	}
}

func TestImageSegmentRoundTrip(t *testing.T) {
	s := ImageSegment{Base: 0x20000000, Length: 0x1000, FileOffset: 0x800}
	b := make([]byte, ImageSegmentEntrySize)
	s.Encode(b)
	got, err := ParseImageSegment(b)
	if err != nil || got != s {
		t.Fatalf("segment round trip: %+v %v", got, err)
	}
}
