package walker

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/golang/groupcache/lru"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

// typeNameCacheSize bounds the descriptor to name cache. Heaps have far
// fewer hot types than objects.
const typeNameCacheSize = 4096

// Stats summarises the objects reachable from a set of roots.
type Stats struct {
	Objects     uint64
	Edges       uint64
	OffsetEdges uint64
	NullSlots   uint64
	Dangling    uint64

	ByKind map[scan.Kind]uint64
	ByType map[string]uint64
}

// TypeCount is one row of Stats.TopTypes.
type TypeCount struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

// TopTypes returns the n most common type names, most common first. Ties
// are broken by name.
func (st *Stats) TopTypes(n int) []TypeCount {
	out := make([]TypeCount, 0, len(st.ByType))
	for _, name := range slices.Sorted(maps.Keys(st.ByType)) {
		out = append(out, TypeCount{Name: name, Count: st.ByType[name]})
	}
	slices.SortStableFunc(out, func(a, b TypeCount) int { return cmp.Compare(b.Count, a.Count) })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// String returns a human-readable summary.
func (st *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d objects, %d edges (%d offset)\n", st.Objects, st.Edges, st.OffsetEdges)
	fmt.Fprintf(&b, "Slots: %d null, %d dangling\n", st.NullSlots, st.Dangling)
	b.WriteString("By Kind:\n")
	for _, k := range scan.Kinds {
		if n := st.ByKind[k]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", k, n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Counter counts reachable objects by kind and by type name.
type Counter struct {
	*Walker

	rt    *heap.Runtime
	names *lru.Cache
	stats Stats
}

// NewCounter returns a counter over mem.
func NewCounter(s *scan.Scanner, mem *heap.Image) *Counter {
	c := &Counter{
		Walker: New(s, mem),
		rt:     s.Runtime(),
		names:  lru.New(typeNameCacheSize),
	}
	c.OnEdge = c.countEdge
	return c
}

// Count walks from roots and returns the statistics of everything reached.
//
// Example:
//
//	c := walker.NewCounter(s, snap.Mem)
//	st, err := c.Count(ctx, snap.Objects)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(st)
func (c *Counter) Count(ctx context.Context, roots []heap.Address) (*Stats, error) {
	c.Reset()
	c.stats = Stats{
		ByKind: make(map[scan.Kind]uint64),
		ByType: make(map[string]uint64),
	}
	err := c.Walk(ctx, roots, func(obj heap.Address, k scan.Kind) error {
		c.stats.Objects++
		c.stats.ByKind[k]++
		c.stats.ByType[c.TypeName(c.rt.TypeOf(c.mem, obj))]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.stats.NullSlots = c.Nulls()
	c.stats.Dangling = c.Dangling()
	return &c.stats, nil
}

// TypeName returns the printable name of type t, caching by descriptor.
func (c *Counter) TypeName(t heap.Address) string {
	d := heap.Descriptor(t)
	if t == c.rt.BuffTag {
		d = t
	}
	if v, ok := c.names.Get(d); ok {
		return v.(string)
	}
	name := heap.TypeName(c.rt, c.mem, d)
	c.names.Add(d, name)
	return name
}

func (c *Counter) countEdge(_ heap.Address, e scan.Edge, _ heap.Address) {
	c.stats.Edges++
	if e.Kind == scan.EdgeOffset {
		c.stats.OffsetEdges++
	}
}
