package scan_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

func TestSimpleVectorScan(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	x, y := b.String("x"), b.String("y")

	sv := b.SimpleVector(x, heap.Null, y)
	require.Equal(t, scan.KindSimpleVector, s.Classify(sv))
	require.True(t, s.IsValArray(sv))
	requireAllVariants(t, s, sv, sv.Plus(8), sv.Plus(16), sv.Plus(24))
	require.Equal(t, sv.Plus(8), s.ElementBase(sv))

	requireAllVariants(t, s, b.SimpleVector())
}

func TestModuleScan(t *testing.T) {
	b := builder.New(nil)
	s := b.Scanner(nil)
	parent := b.Module(builder.ModuleSpec{Name: "Parent"})
	keys, bindings := b.SimpleVector(), b.SimpleVector()
	u1 := b.Module(builder.ModuleSpec{Name: "U1"})
	u2 := b.Module(builder.ModuleSpec{Name: "U2"})

	t.Run("inline usings", func(t *testing.T) {
		m := b.Module(builder.ModuleSpec{
			Name:          "M",
			Parent:        parent,
			BindingKeySet: keys,
			Bindings:      bindings,
			Usings:        []heap.Address{u1, u2},
		})
		require.Equal(t, scan.KindModule, s.Classify(m))
		requireAllVariants(t, s, m, m.Plus(0x08), m.Plus(0x18), m.Plus(0x10), m.Plus(0x38), m.Plus(0x40))
		require.Equal(t, m.Plus(format.ModuleUsingsSpaceOffset), s.ElementBase(m))
	})

	t.Run("out of line usings", func(t *testing.T) {
		m := b.Module(builder.ModuleSpec{Parent: parent, Usings: []heap.Address{u1, u2}, OutOfLine: true})
		items := b.Load(m.Plus(format.ModuleUsingsItemsOffset))
		require.False(t, b.InVM(items))
		require.NotEqual(t, m.Plus(format.ModuleUsingsSpaceOffset), items)
		requireAllVariants(t, s, m, m.Plus(0x08), m.Plus(0x18), m.Plus(0x10), items, items.Plus(8))
	})

	t.Run("null fixed fields still reported", func(t *testing.T) {
		m := b.Module(builder.ModuleSpec{})
		requireAllVariants(t, s, m, m.Plus(0x08), m.Plus(0x10), m.Plus(0x18))
	})

	t.Run("many usings", func(t *testing.T) {
		usings := make([]heap.Address, format.ModuleUsingsInline+3)
		for i := range usings {
			usings[i] = u1
		}
		m := b.Module(builder.ModuleSpec{Usings: usings})
		items := b.Load(m.Plus(format.ModuleUsingsItemsOffset))
		want := []heap.Address{m.Plus(0x08), m.Plus(0x10), m.Plus(0x18)}
		for i := range usings {
			want = append(want, items.Shift(i))
		}
		requireAllVariants(t, s, m, want...)
	})
}

// arrayFixture holds the types shared by the array tests.
type arrayFixture struct {
	b    *builder.Builder
	s    *scan.Scanner
	elem heap.Address
	objs heap.Address
	x, y heap.Address
}

func newArrayFixture() *arrayFixture {
	b := builder.New(nil)
	f := &arrayFixture{b: b, s: b.Scanner(nil)}
	f.elem = b.DataType("Any", builder.TypeSpec{})
	f.objs = b.ArrayType(f.elem)
	f.x, f.y = b.String("x"), b.String("y")
	return f
}

func TestArrayPointerElements(t *testing.T) {
	for _, how := range []format.ArrayHow{format.HowInline, format.HowForeign} {
		t.Run(how.String(), func(t *testing.T) {
			f := newArrayFixture()
			a := f.b.Array(builder.ArraySpec{
				Type: f.objs, How: how, ElSize: 8, Length: 3,
				Elems: []heap.Address{f.x, heap.Null, f.y}, PtrArray: true,
			})
			require.Equal(t, scan.KindArray, f.s.Classify(a))
			require.True(t, f.s.IsObjArray(a))

			data := f.b.Load(a)
			require.Equal(t, data, f.s.ElementBase(a))
			if how == format.HowInline {
				require.Equal(t, a.Plus(uint64(format.ArrayOwnerOffset(1)+format.WordSize)), data)
			}
			requireAllVariants(t, f.s, a, data, data.Plus(8), data.Plus(16))
		})
	}
}

func TestArrayHigherRank(t *testing.T) {
	f := newArrayFixture()
	a := f.b.Array(builder.ArraySpec{
		Type: f.objs, NDims: 3, Dims: []uint64{1, 2, 2}, ElSize: 8, Length: 4,
		Elems: []heap.Address{f.x, f.y, f.x, f.y}, PtrArray: true,
	})
	data := f.b.Load(a)
	require.Equal(t, a.Plus(0x38), data)
	requireAllVariants(t, f.s, a, words(data, 0, 1, 2, 3)...)
}

func TestArrayRuntimeBufferOffsetEdge(t *testing.T) {
	f := newArrayFixture()
	a := f.b.Array(builder.ArraySpec{
		Type: f.objs, How: format.HowRuntimeBuffer, ElSize: 8, Length: 2, Offset: 2,
		Elems: []heap.Address{f.x, f.y}, PtrArray: true,
	})
	data := f.b.Load(a)

	var want scan.EdgeSet
	want.VisitEdge(scan.OffsetEdge(a.Plus(format.ArrayDataOffset), 16))
	want.VisitEdge(scan.SimpleEdge(data))
	want.VisitEdge(scan.SimpleEdge(data.Plus(8)))

	for _, fn := range []func(heap.Address, scan.Visitor){f.s.Scan, f.s.ScanFallback, f.s.ScanChecked} {
		got := scanWith(fn, a)
		require.True(t, want.Equal(got), "got %v", got.Sorted())
	}

	// The offset edge resolves to the buffer object itself.
	buf := data - 16
	e := scan.OffsetEdge(a, 16)
	require.Equal(t, buf, e.Load(f.b.Memory()))
	require.Equal(t, f.b.Runtime().BuffTag, f.b.Runtime().TypeOf(f.b.Memory(), buf))
	require.Equal(t, scan.KindBuffer, f.s.Classify(buf))
}

func TestArrayOwnerIsExclusive(t *testing.T) {
	for _, ndims := range []uint32{1, 2, 3, 5} {
		for _, flags := range []struct{ ptr, has bool }{{false, false}, {true, false}, {false, true}} {
			t.Run(fmt.Sprintf("ndims=%d ptr=%v has=%v", ndims, flags.ptr, flags.has), func(t *testing.T) {
				f := newArrayFixture()
				owner := f.b.SimpleVector(f.x)
				a := f.b.Array(builder.ArraySpec{
					Type: f.objs, How: format.HowOwner, NDims: ndims, ElSize: 8, Length: 2,
					Elems: []heap.Address{f.x, f.y}, Owner: owner,
					PtrArray: flags.ptr, HasPtr: flags.has,
				})
				slot := a.Plus(uint64(format.ArrayOwnerOffset(ndims)))
				require.Equal(t, owner, f.b.Load(slot))
				requireAllVariants(t, f.s, a, slot)
			})
		}
	}
}

func TestArrayNullOrEmptyData(t *testing.T) {
	for _, how := range []format.ArrayHow{format.HowInline, format.HowForeign} {
		t.Run(how.String(), func(t *testing.T) {
			f := newArrayFixture()
			null := f.b.Array(builder.ArraySpec{Type: f.objs, How: how, ElSize: 8, Length: 4, NullData: true, PtrArray: true})
			empty := f.b.Array(builder.ArraySpec{Type: f.objs, How: how, ElSize: 8, PtrArray: true})
			requireAllVariants(t, f.s, null)
			requireAllVariants(t, f.s, empty)
		})
	}

	// Runtime-buffer arrays still report the buffer slot.
	f := newArrayFixture()
	a := f.b.Array(builder.ArraySpec{
		Type: f.objs, How: format.HowRuntimeBuffer, ElSize: 8, Length: 4, Offset: 1,
		NullData: true, PtrArray: true,
	})
	got := scanWith(f.s.Scan, a)
	require.Equal(t, []scan.Edge{scan.OffsetEdge(a, 8)}, got.Edges())
	require.Equal(t, heap.Null, got.Edges()[0].Load(f.b.Memory()))
}

func TestArrayOfBitsHasNoElementEdges(t *testing.T) {
	f := newArrayFixture()
	a := f.b.Array(builder.ArraySpec{Type: f.objs, ElSize: 8, Length: 4, Elems: []heap.Address{1, 2, 3, 4}})
	requireAllVariants(t, f.s, a)
}

func TestArrayOfSymbolsSkipped(t *testing.T) {
	f := newArrayFixture()
	syms := f.b.ArrayType(f.b.Runtime().SymbolType)
	sym := f.b.Symbol("interned")

	a := f.b.Array(builder.ArraySpec{Type: syms, How: format.HowForeign, ElSize: 8, Length: 1, Elems: []heap.Address{sym}, PtrArray: true})
	requireAllVariants(t, f.s, a)

	a = f.b.Array(builder.ArraySpec{Type: syms, How: format.HowRuntimeBuffer, ElSize: 8, Length: 1, Elems: []heap.Address{sym}, PtrArray: true})
	got := scanWith(f.s.Scan, a)
	require.Equal(t, []scan.Edge{scan.OffsetEdge(a, 0)}, got.Edges())
}

func TestArrayInlineElements(t *testing.T) {
	cases := []struct {
		name  string
		offs  []uint32
		width format.FieldDescWidth
		want  []int
	}{
		{"single pointer", []uint32{1}, format.FieldDesc8, []int{1, 4, 7}},
		{"single pointer u32", []uint32{1}, format.FieldDesc32, []int{1, 4, 7}},
		{"u8 table", []uint32{0, 2}, format.FieldDesc8, []int{0, 2, 3, 5, 6, 8}},
		{"u16 table", []uint32{0, 2}, format.FieldDesc16, []int{0, 2, 3, 5, 6, 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newArrayFixture()
			elem := f.b.DataType("Triple", builder.TypeSpec{Fields: 3, Pointers: tc.offs, Width: tc.width})
			a := f.b.Array(builder.ArraySpec{Type: f.b.ArrayType(elem), How: format.HowForeign, ElSize: 24, Length: 3, HasPtr: true})
			requireAllVariants(t, f.s, a, words(f.b.Load(a), tc.want...)...)
		})
	}
}

func TestArrayInlineElementsFatal(t *testing.T) {
	t.Run("u32 table", func(t *testing.T) {
		f := newArrayFixture()
		elem := f.b.DataType("Triple", builder.TypeSpec{Fields: 3, Pointers: []uint32{0, 2}, Width: format.FieldDesc32})
		a := f.b.Array(builder.ArraySpec{Type: f.b.ArrayType(elem), How: format.HowForeign, ElSize: 24, Length: 2, HasPtr: true})
		requireInvariant(t, scan.ErrUnimplementedWidth, func() { f.s.Scan(a, &scan.EdgeSet{}) })
	})

	t.Run("element smaller than a word", func(t *testing.T) {
		f := newArrayFixture()
		elem := f.b.DataType("Half", builder.TypeSpec{Fields: 1, Pointers: []uint32{0}, Size: 4})
		a := f.b.Array(builder.ArraySpec{Type: f.b.ArrayType(elem), How: format.HowForeign, ElSize: 4, Length: 2, HasPtr: true})
		requireInvariant(t, scan.ErrMalformedArray, func() { f.s.Scan(a, &scan.EdgeSet{}) })
	})

	t.Run("missing element type", func(t *testing.T) {
		f := newArrayFixture()
		a := f.b.Array(builder.ArraySpec{Type: f.b.ArrayType(heap.Null), How: format.HowForeign, ElSize: 16, Length: 2, HasPtr: true})
		requireInvariant(t, scan.ErrMalformedArray, func() { f.s.ScanFallback(a, &scan.EdgeSet{}) })
	})
}
