package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

var (
	scanObjects  []string
	scanFallback bool
	scanChecked  bool
	scanEdges    bool
)

func init() {
	cmd := newScanCmd()
	cmd.Flags().StringSliceVar(&scanObjects, "obj", nil, "Scan only these object addresses")
	cmd.Flags().BoolVar(&scanFallback, "fallback", false, "Disable the alignment-pattern fast path")
	cmd.Flags().BoolVar(&scanChecked, "checked", false, "Verify each record's embedded pattern before scanning")
	cmd.Flags().BoolVar(&scanEdges, "edges", false, "List every edge, not just counts")
	rootCmd.AddCommand(cmd)
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Enumerate the references held by objects",
		Long: `The scan command reports the reference slots of each object in an image.
By default every object is scanned; use --obj to pick specific ones.

Example:
  heapscan scan heap.img
  heapscan scan heap.img --obj 0x20000010 --edges
  heapscan scan heap.img --fallback --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args)
		},
	}
	return cmd
}

type scanResult struct {
	Object string     `json:"object"`
	Kind   string     `json:"kind"`
	Type   string     `json:"type"`
	Count  int        `json:"count"`
	Edges  []edgeJSON `json:"edges,omitempty"`
}

func runScan(args []string) error {
	ss, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer ss.Close()

	objs, err := ss.objects(scanObjects)
	if err != nil {
		return err
	}

	fn := ss.s.Scan
	switch {
	case scanChecked:
		fn = ss.s.ScanChecked
	case scanFallback:
		fn = ss.s.ScanFallback
	}

	results := make([]scanResult, 0, len(objs))
	var set scan.EdgeSet
	for _, obj := range objs {
		set.Reset()
		var r scanResult
		err := guard(func() {
			fn(obj, &set)
			r = ss.describe(obj, &set, scanEdges || jsonOut)
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", obj, err)
		}
		results = append(results, r)
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		printInfo("%s  %-12s %-24s %d edges\n", r.Object, r.Kind, r.Type, r.Count)
		if scanEdges || verbose {
			for _, e := range r.Edges {
				printInfo("    %s -> %s\n", edgeLabel(e), e.Referent)
			}
		}
	}
	return nil
}

func (ss *session) describe(obj heap.Address, set *scan.EdgeSet, withEdges bool) scanResult {
	r := scanResult{
		Object: obj.String(),
		Kind:   ss.s.Classify(obj).String(),
		Type:   ss.typeName(obj),
		Count:  set.Len(),
	}
	if withEdges || verbose {
		for _, e := range set.Edges() {
			r.Edges = append(r.Edges, toEdgeJSON(ss.snap.Mem, e))
		}
	}
	return r
}

func edgeLabel(e edgeJSON) string {
	if e.Offset != 0 {
		return fmt.Sprintf("%s-%d", e.Slot, e.Offset)
	}
	return e.Slot
}
