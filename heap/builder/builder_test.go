package builder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

func TestBootTypes(t *testing.T) {
	b := builder.New(nil)
	rt := b.Runtime()
	mem := b.Memory()

	for _, tc := range []struct {
		typ  heap.Address
		tag  int
		name string
	}{
		{rt.SymbolType, format.SmallTagSymbol, "Symbol"},
		{rt.SimpleVectorType, format.SmallTagSimpleVector, "SimpleVector"},
		{rt.ModuleType, format.SmallTagModule, "Module"},
		{rt.StringType, format.SmallTagString, "String"},
		{rt.TaskType, format.SmallTagTask, "Task"},
		{b.DataTypeType(), format.SmallTagDatatype, "DataType"},
	} {
		require.True(t, b.InVM(tc.typ), tc.name)
		require.True(t, rt.InVMSpace(tc.typ), tc.name)
		require.True(t, tc.typ.AlignedTo(format.TypeAlignment), tc.name)
		require.Equal(t, tc.typ, rt.ToType(heap.SmallTag(tc.tag)), tc.name)
		require.Equal(t, tc.name, heap.TypeName(rt, mem, tc.typ))
	}
	require.Equal(t, "WeakRef", heap.TypeName(rt, mem, rt.WeakRefType))
	require.Equal(t, "TypeName", heap.TypeName(rt, mem, b.TypeNameType()))
	require.Equal(t, "Array", heap.SymbolName(mem, b.Load(rt.ArrayTypeName.Plus(format.TypeNameNameOffset))))

	l := heap.DatatypeAt(mem, rt.TaskType).Layout()
	require.Equal(t, builder.TaskFields, l.NFields())
	require.Equal(t, len(builder.TaskPointerWords), l.NPointers())
	require.Equal(t, format.FieldDesc8, l.Width())
}

func TestSymbolsAreInterned(t *testing.T) {
	b := builder.New(nil)
	a := b.Symbol("foo")
	require.Equal(t, a, b.Symbol("foo"))
	require.NotEqual(t, a, b.Symbol("bar"))
	require.True(t, b.InVM(a))
	require.Equal(t, "foo", heap.SymbolName(b.Memory(), a))
	require.Equal(t, b.Runtime().SymbolType, b.Runtime().TypeOf(b.Memory(), a))
}

func TestObjectsAreAligned(t *testing.T) {
	b := builder.New(nil)
	typ := b.DataType("Odd", builder.TypeSpec{Fields: 3, Pointers: []uint32{0}})
	for range 5 {
		b.Record(typ)
		b.String("abc")
		b.Buffer(3)
	}
	for _, obj := range b.Objects() {
		require.True(t, obj.AlignedTo(format.ObjectAlignment), "object %s", obj)
	}
}

func TestDataTypeWidth(t *testing.T) {
	b := builder.New(nil)
	mem := b.Memory()
	width := func(spec builder.TypeSpec) format.FieldDescWidth {
		return heap.DatatypeAt(mem, b.DataType("T", spec)).Layout().Width()
	}
	require.Equal(t, format.FieldDesc8, width(builder.TypeSpec{Fields: 2, Pointers: []uint32{1}}))
	require.Equal(t, format.FieldDesc16, width(builder.TypeSpec{Fields: 300, Pointers: []uint32{299}}))
	require.Equal(t, format.FieldDesc32, width(builder.TypeSpec{Fields: 1, Pointers: []uint32{0x10000}, Size: 8}))
	require.Equal(t, format.FieldDesc32, width(builder.TypeSpec{Fields: 2, Pointers: []uint32{1}, Width: format.FieldDesc32}))
	require.Equal(t, format.FieldDescReserved, width(builder.TypeSpec{Fields: 2, Pointers: []uint32{1}, Width: format.FieldDescReserved}))
}

func TestRecordPublishesPattern(t *testing.T) {
	b := builder.New(nil)
	typ := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	x := b.String("x")
	obj := b.Record(typ, x, x)

	require.Equal(t, scan.EncodePattern(typ, scan.Ref01), b.Tag(obj))
	require.Equal(t, x, b.Load(obj))
	require.Equal(t, x, b.Load(obj.Plus(8)))
	require.Panics(t, func() { b.Record(typ, x, x, x) })
}

func TestArrayTypeParameters(t *testing.T) {
	b := builder.New(nil)
	elem := b.DataType("Elem", builder.TypeSpec{})
	arr := b.ArrayType(elem)
	d := heap.DatatypeAt(b.Memory(), arr)
	require.Equal(t, b.Runtime().ArrayTypeName, d.Name())
	require.Equal(t, elem, d.TParam0())
	require.Equal(t, "Array", heap.TypeName(b.Runtime(), b.Memory(), arr))
}

func TestBuildSnapshot(t *testing.T) {
	b := builder.New(nil)
	x := b.String("x")
	b.SetStackBase(1, 0x40000000)
	snap := b.Build()

	require.Equal(t, b.Objects(), snap.Objects)
	require.Equal(t, heap.Address(0x40000000), snap.StackBases[1])
	require.True(t, snap.Mem.Mapped(x))
	require.Len(t, snap.Mem.Segments(), 3)

	// Later allocations do not leak into the snapshot.
	y := b.String("y")
	require.NotContains(t, snap.Objects, y)
	require.False(t, snap.Mem.Mapped(y))

	// The runtime is copied.
	b.Runtime().BuffTag = 0
	require.Equal(t, builder.DefaultBuffTag, snap.Runtime.BuffTag)
}

func TestArenaExhaustion(t *testing.T) {
	opts := builder.DefaultOptions()
	opts.HeapSize = 4096
	b := builder.New(opts)
	require.Panics(t, func() { b.Buffer(8192) })
}

func TestArenaBaseMustBeAligned(t *testing.T) {
	opts := builder.DefaultOptions()
	opts.HeapBase = 0x20000010
	require.Panics(t, func() { builder.New(opts) })
}
