package main

import (
	"context"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan/walker"
)

var (
	statsRoots []string
	statsTop   int
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().StringSliceVar(&statsRoots, "root", nil, "Count only what is reachable from these addresses")
	cmd.Flags().IntVar(&statsTop, "top", 10, "Number of most common types to list")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <image>",
		Short: "Show object graph statistics",
		Long: `The stats command walks the object graph and reports object and edge
counts by kind and by type. Without --root every object in the image is a
root, so the whole heap is counted.

Example:
  heapscan stats heap.img
  heapscan stats heap.img --root 0x20000400 --top 5
  heapscan stats heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args)
		},
	}
	return cmd
}

type statsJSON struct {
	Objects     uint64             `json:"objects"`
	Edges       uint64             `json:"edges"`
	OffsetEdges uint64             `json:"offset_edges"`
	NullSlots   uint64             `json:"null_slots"`
	Dangling    uint64             `json:"dangling"`
	ByKind      map[string]uint64  `json:"by_kind"`
	TopTypes    []walker.TypeCount `json:"top_types"`
}

func runStats(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ss, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer ss.Close()

	roots, err := ss.objects(statsRoots)
	if err != nil {
		return err
	}

	c := walker.NewCounter(ss.s, ss.snap.Mem)
	st, err := c.Count(ctx, roots)
	if err != nil {
		return err
	}

	if jsonOut {
		out := statsJSON{
			Objects:     st.Objects,
			Edges:       st.Edges,
			OffsetEdges: st.OffsetEdges,
			NullSlots:   st.NullSlots,
			Dangling:    st.Dangling,
			ByKind:      make(map[string]uint64, len(st.ByKind)),
			TopTypes:    st.TopTypes(statsTop),
		}
		for k, n := range st.ByKind {
			out.ByKind[k.String()] = n
		}
		return printJSON(out)
	}

	p := message.NewPrinter(language.English)
	printInfo("Image: %s\n", args[0])
	printInfo("Roots: %s\n", formatNumber(p, uint64(len(roots))))
	printInfo("\nReachable\n")
	printInfo("  Objects:      %s\n", formatNumber(p, st.Objects))
	printInfo("  Edges:        %s (%s offset)\n", formatNumber(p, st.Edges), formatNumber(p, st.OffsetEdges))
	printInfo("  Null slots:   %s\n", formatNumber(p, st.NullSlots))
	printInfo("  Dangling:     %s\n", formatNumber(p, st.Dangling))

	printInfo("\nBy Kind\n")
	for _, k := range slices.Sorted(maps.Keys(st.ByKind)) {
		printInfo("  %-14s %s\n", k.String()+":", formatNumber(p, st.ByKind[k]))
	}

	if top := st.TopTypes(statsTop); len(top) > 0 {
		printInfo("\nTop Types\n")
		for _, tc := range top {
			printInfo("  %-24s %s\n", tc.Name, formatNumber(p, tc.Count))
		}
	}

	if unreached := len(ss.snap.Objects) - countVisited(c.Walker, ss.snap.Objects); verbose && unreached > 0 {
		printVerbose("\n%d image objects were not reached\n", unreached)
	}
	return nil
}

// formatNumber renders n with locale grouping, e.g. 1,234,567.
func formatNumber(p *message.Printer, n uint64) string {
	return p.Sprintf("%d", n)
}

func countVisited(w *walker.Walker, objs []heap.Address) int {
	n := 0
	for _, obj := range objs {
		if w.Visited(obj) {
			n++
		}
	}
	return n
}

