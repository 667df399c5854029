package scan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

func TestPatternRoundTrip(t *testing.T) {
	for _, base := range []heap.Address{0x20000080, 0x20001000, 0x7fff_ffff_ff80} {
		for _, p := range scan.Patterns {
			enc := scan.EncodePattern(base, p)
			require.Equal(t, base, scan.DecodePattern(enc), "base %s pattern %s", base, p)
			require.Equal(t, p, scan.ExtractPattern(enc))
			require.Equal(t, base, heap.Descriptor(enc))
		}
	}
}

func TestEncodePatternReplacesExisting(t *testing.T) {
	t0 := heap.Address(0x20000100)
	enc := scan.EncodePattern(scan.EncodePattern(t0, scan.Ref0123456), scan.Ref12)
	require.Equal(t, scan.Ref12, scan.ExtractPattern(enc))
	require.Equal(t, t0, scan.DecodePattern(enc))
}

func TestPatternForBitmapIsTotal(t *testing.T) {
	hits := map[scan.Pattern]int{}
	for b := range 256 {
		p := scan.PatternForBitmap(uint8(b))
		hits[p]++
		if p != scan.Fallback {
			require.Equal(t, uint8(b), p.Bitmap(), "bitmap 0b%08b", b)
		}
	}
	for _, p := range scan.Patterns {
		if p == scan.Fallback {
			require.Equal(t, 256-7, hits[p])
			continue
		}
		require.Equal(t, 1, hits[p], "pattern %s", p)
		require.Equal(t, p, scan.PatternForBitmap(p.Bitmap()))
	}
}

func TestPatternWords(t *testing.T) {
	require.Empty(t, scan.NoRef.Words())
	require.Equal(t, []int{0, 1}, scan.Ref01.Words())
	require.Equal(t, []int{1, 2, 3, 4}, scan.Ref1234.Words())
	require.Empty(t, scan.Fallback.Words())
	require.Equal(t, "Ref01234", scan.Ref01234.String())
	require.Equal(t, "Pattern(9)", scan.Pattern(9).String())
}

func TestPatternForOffsets(t *testing.T) {
	cases := []struct {
		offs []uint32
		want scan.Pattern
	}{
		{nil, scan.NoRef},
		{[]uint32{0}, scan.Ref0},
		{[]uint32{1, 0}, scan.Ref01},
		{[]uint32{0, 0}, scan.Fallback},
		{[]uint32{1, 2, 1}, scan.Fallback},
		{[]uint32{1, 2}, scan.Ref12},
		{[]uint32{4, 3, 2, 1}, scan.Ref1234},
		{[]uint32{0, 1, 2, 3, 4}, scan.Ref01234},
		{[]uint32{0, 1, 2, 3, 4, 5, 6}, scan.Ref0123456},
		{[]uint32{0, 2}, scan.Fallback},
		{[]uint32{7}, scan.Fallback},
		{[]uint32{0, 8}, scan.Fallback},
		{[]uint32{1, 300}, scan.Fallback},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, scan.PatternForOffsets(tc.offs), "offsets %v", tc.offs)
	}
}

func TestLayoutPattern(t *testing.T) {
	b := builder.New(nil)
	mem := b.Memory()
	layout := func(spec builder.TypeSpec) heap.Layout {
		return heap.DatatypeAt(mem, b.DataType("T", spec)).Layout()
	}

	p, err := scan.LayoutPattern(layout(builder.TypeSpec{Fields: 3}))
	require.NoError(t, err)
	require.Equal(t, scan.NoRef, p)

	p, err = scan.LayoutPattern(layout(builder.TypeSpec{Fields: 3, Pointers: []uint32{1, 2}}))
	require.NoError(t, err)
	require.Equal(t, scan.Ref12, p)

	p, err = scan.LayoutPattern(layout(builder.TypeSpec{Fields: 3, Pointers: []uint32{1, 2}, Width: format.FieldDesc32}))
	require.NoError(t, err)
	require.Equal(t, scan.Ref12, p)

	p, err = scan.LayoutPattern(layout(builder.TypeSpec{Fields: 400, Pointers: []uint32{0, 300}}))
	require.NoError(t, err)
	require.Equal(t, scan.Fallback, p)

	p, err = scan.LayoutPattern(layout(builder.TypeSpec{Pointers: []uint32{0}, Size: 8}))
	require.NoError(t, err)
	require.Equal(t, scan.Fallback, p)

	p, err = scan.LayoutPattern(layout(builder.TypeSpec{Fields: 2, Pointers: []uint32{1, 1}}))
	require.NoError(t, err)
	require.Equal(t, scan.Fallback, p)

	_, err = scan.LayoutPattern(layout(builder.TypeSpec{Fields: 2, Pointers: []uint32{0}, Width: format.FieldDescReserved}))
	require.ErrorIs(t, err, scan.ErrUnimplementedWidth)
}

func TestTypePatternSkipsVMSpaceAndWeakRef(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	rt := b.Runtime()

	vm := b.DataType("Boot", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}, VM: true})
	require.Equal(t, scan.Fallback, s.TypePattern(vm))
	require.Equal(t, scan.Fallback, s.TypePattern(rt.WeakRefType))

	heapType := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	require.Equal(t, scan.Ref01, s.TypePattern(heapType))
	require.Equal(t, scan.Ref01, s.TypePattern(scan.EncodePattern(heapType, scan.Ref0)))
}

func TestPublishedTagsCarryGroundTruth(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	for _, offs := range [][]uint32{nil, {0}, {0, 1}, {1, 2}, {0, 1, 2, 3, 4}, {1, 2, 3, 4}, {0, 1, 2, 3, 4, 5, 6}, {0, 3}} {
		typ := b.DataType("R", builder.TypeSpec{Fields: 8, Pointers: offs})
		obj := b.Record(typ)
		require.Equal(t, scan.PatternForOffsets(offs), scan.ExtractPattern(b.Tag(obj)), "offsets %v", offs)
		require.Equal(t, scan.ExtractPattern(b.Tag(obj)), s.GroundTruth(obj))
		require.NoError(t, s.VerifyPattern(obj))
	}
}

func TestVerifyPatternMismatch(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	obj := b.Record(typ)

	b.SetTag(obj, scan.EncodePattern(typ, scan.Ref12))
	err := s.VerifyPattern(obj)
	require.ErrorIs(t, err, scan.ErrPatternMismatch)
	require.Contains(t, err.Error(), "embeds Ref12, layout gives Ref01")

	requireInvariant(t, scan.ErrPatternMismatch, func() {
		s.ScanChecked(obj, &scan.EdgeSet{})
	})

	// An unpublished tag embeds NoRef, which the layout also contradicts.
	b.SetTag(obj, typ)
	require.ErrorIs(t, s.VerifyPattern(obj), scan.ErrPatternMismatch)

	// Fallback is never checked.
	b.SetTag(obj, scan.EncodePattern(typ, scan.Fallback))
	require.NoError(t, s.VerifyPattern(obj))
}

func TestVerifyPatternIgnoresNonRecords(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	for _, obj := range []heap.Address{
		b.SimpleVector(b.String("a")),
		b.String("s"),
		b.Buffer(16),
		b.Symbol("sym"),
		b.Module(builder.ModuleSpec{Name: "M"}),
	} {
		require.NoError(t, s.VerifyPattern(obj))
	}
}
