package scan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

func TestRecordScan(t *testing.T) {
	cases := []struct {
		name    string
		fields  int
		offs    []uint32
		width   format.FieldDescWidth
		pattern scan.Pattern
	}{
		{"noref", 3, nil, format.FieldDesc8, scan.NoRef},
		{"ref0", 2, []uint32{0}, format.FieldDesc8, scan.Ref0},
		{"ref01", 2, []uint32{0, 1}, format.FieldDesc8, scan.Ref01},
		{"ref12", 3, []uint32{1, 2}, format.FieldDesc8, scan.Ref12},
		{"ref01234", 5, []uint32{0, 1, 2, 3, 4}, format.FieldDesc8, scan.Ref01234},
		{"ref1234", 6, []uint32{1, 2, 3, 4}, format.FieldDesc8, scan.Ref1234},
		{"ref0123456", 7, []uint32{0, 1, 2, 3, 4, 5, 6}, format.FieldDesc8, scan.Ref0123456},
		{"sparse", 10, []uint32{0, 9}, format.FieldDesc8, scan.Fallback},
		{"u16", 4, []uint32{0, 1}, format.FieldDesc16, scan.Ref01},
		{"u16 wide", 300, []uint32{2, 299}, format.FieldDesc8, scan.Fallback},
		{"u32", 4, []uint32{1, 3}, format.FieldDesc32, scan.Fallback},
		{"u32 small", 2, []uint32{0}, format.FieldDesc32, scan.Ref0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.New(nil)
			s := b.Scanner(nil)
			typ := b.DataType("R", builder.TypeSpec{Fields: tc.fields, Pointers: tc.offs, Width: tc.width})
			x := b.String("x")
			obj := b.Record(typ, x, x)

			require.Equal(t, tc.pattern, scan.ExtractPattern(b.Tag(obj)))
			require.Equal(t, scan.KindRecord, s.Classify(obj))

			want := make([]heap.Address, len(tc.offs))
			for i, off := range tc.offs {
				want[i] = obj.Shift(int(off))
			}
			requireAllVariants(t, s, obj, want...)
		})
	}
}

func TestRecordWithoutPatternUsesLayout(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	obj := b.Record(typ)

	// A Fallback tag forces the general traversal even though the layout
	// would have a compact pattern.
	b.SetTag(obj, scan.EncodePattern(typ, scan.Fallback))
	requireAllVariants(t, s, obj, obj, obj.Shift(1))
}

func TestRecordGCBitsIgnored(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	obj := b.Record(typ)
	b.SetTag(obj, b.Tag(obj)|0x3)
	requireAllVariants(t, s, obj, obj, obj.Shift(1))
}

func TestVMSpaceRecordSkipsFastPath(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Boot", builder.TypeSpec{Fields: 2, Pointers: []uint32{1}, VM: true})
	obj := b.Record(typ)

	// VM-space types are never published, and a stray pattern is ignored.
	require.Equal(t, typ, b.Tag(obj))
	b.SetTag(obj, scan.EncodePattern(typ, scan.Ref01))
	requireAllVariants(t, s, obj, obj.Shift(1))
}

func TestWeakRefHasNoEdges(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	target := b.String("t")
	w := b.Record(b.Runtime().WeakRefType, target)
	require.Equal(t, scan.KindRecord, s.Classify(w))
	requireAllVariants(t, s, w)
	require.Equal(t, heap.Null, s.ElementBase(w))
}

func TestRecordZeroPointers(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)

	// No pointers is never fatal, even without fields.
	empty := b.DataType("Empty", builder.TypeSpec{})
	requireAllVariants(t, s, b.Record(empty))

	reserved := b.DataType("Bits", builder.TypeSpec{Fields: 2, Width: format.FieldDescReserved})
	requireAllVariants(t, s, b.Record(reserved))
}

func TestRecordOpaqueTypeIsFatal(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Opaque", builder.TypeSpec{Pointers: []uint32{0}, Size: 8})
	obj := b.Record(typ)

	require.Equal(t, scan.Fallback, scan.ExtractPattern(b.Tag(obj)))
	require.Equal(t, scan.Fallback, s.GroundTruth(obj))
	require.NoError(t, s.VerifyPattern(obj))
	for name, fn := range map[string]func(heap.Address, scan.Visitor){
		"scan":     s.Scan,
		"fallback": s.ScanFallback,
		"checked":  s.ScanChecked,
	} {
		t.Run(name, func(t *testing.T) {
			requireInvariant(t, scan.ErrOpaqueType, func() { fn(obj, &scan.EdgeSet{}) })
		})
	}
}

func TestRecordRepeatedOffsetsUseLayout(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Twice", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 0}})
	obj := b.Record(typ)

	require.Equal(t, scan.Fallback, scan.ExtractPattern(b.Tag(obj)))
	for _, fn := range []func(heap.Address, scan.Visitor){s.Scan, s.ScanFallback, s.ScanChecked} {
		es := scanWith(fn, obj)
		require.Equal(t, []heap.Address{obj, obj}, es.Slots())
	}
}

func TestRecordReservedWidthIsFatal(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	typ := b.DataType("Odd", builder.TypeSpec{Fields: 2, Pointers: []uint32{0}, Width: format.FieldDescReserved})
	obj := b.Record(typ)

	require.Equal(t, scan.Fallback, scan.ExtractPattern(b.Tag(obj)))
	requireInvariant(t, scan.ErrUnimplementedWidth, func() { s.Scan(obj, &scan.EdgeSet{}) })
	requireInvariant(t, scan.ErrUnimplementedWidth, func() { s.GroundTruth(obj) })
}

func TestTaskLayoutMustBeNarrow(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	task := b.Task(builder.TaskSpec{})

	l := heap.DatatypeAt(b.Memory(), b.Runtime().TaskType).Layout()
	flags := format.PackLayoutFlags(false, format.FieldDesc16)
	b.Memory().Store16(l.Addr().Plus(format.LayoutFlagsOffset), uint16(flags))

	requireInvariant(t, scan.ErrUnimplementedWidth, func() { s.Scan(task, &scan.EdgeSet{}) })
}

func TestTaskLayoutWithoutFieldsIsFatal(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	task := b.Task(builder.TaskSpec{})

	l := heap.DatatypeAt(b.Memory(), b.Runtime().TaskType).Layout()
	b.Memory().Store32(l.Addr().Plus(format.LayoutNFieldsOffset), 0)

	requireInvariant(t, scan.ErrOpaqueType, func() { s.Scan(task, &scan.EdgeSet{}) })
}
