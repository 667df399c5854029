package scan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/scan"
	"github.com/joshuapare/heapscan/scan/excstack"
)

func newScanner(b *builder.Builder, copyStacks bool) *scan.Scanner {
	return b.Scanner(&scan.Options{
		CopyStacks: copyStacks,
		Upcalls:    excstack.New(b.Memory(), b.StackBases()),
	})
}

func scanWith(fn func(heap.Address, scan.Visitor), obj heap.Address) *scan.EdgeSet {
	var es scan.EdgeSet
	fn(obj, &es)
	return &es
}

// requireSlots checks that es holds exactly one simple edge per slot.
func requireSlots(t *testing.T, es *scan.EdgeSet, slots ...heap.Address) {
	t.Helper()
	want := scan.EdgeSet{}
	for _, s := range slots {
		want.VisitEdge(scan.SimpleEdge(s))
	}
	require.Equal(t, want.Sorted(), es.Sorted())
}

// requireAllVariants runs every scan variant on obj and checks they agree
// with the expected slots.
func requireAllVariants(t *testing.T, s *scan.Scanner, obj heap.Address, slots ...heap.Address) {
	t.Helper()
	requireSlots(t, scanWith(s.Scan, obj), slots...)
	requireSlots(t, scanWith(s.ScanFallback, obj), slots...)
	requireSlots(t, scanWith(s.ScanChecked, obj), slots...)
}

// requireInvariant runs fn and checks it panics with an *InvariantError
// wrapping target.
func requireInvariant(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic wrapping %v", target)
		ie, ok := r.(*scan.InvariantError)
		require.True(t, ok, "panic value %T: %v", r, r)
		require.True(t, errors.Is(ie, target), "got %v, want %v", ie, target)
	}()
	fn()
}

func words(base heap.Address, offs ...int) []heap.Address {
	out := make([]heap.Address, len(offs))
	for i, o := range offs {
		out[i] = base.Shift(o)
	}
	return out
}
