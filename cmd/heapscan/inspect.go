package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image> <address>",
		Short: "Describe a single object",
		Long: `The inspect command prints everything the scanner knows about one
object: its tag, type, kind, alignment pattern and the edges it reports,
with each referent resolved to its own kind and type.

Example:
  heapscan inspect heap.img 0x20000010
  heapscan inspect heap.img 0x20000010 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

type referentJSON struct {
	edgeJSON
	Kind string `json:"referent_kind,omitempty"`
	Type string `json:"referent_type,omitempty"`
}

type inspectJSON struct {
	Object      string         `json:"object"`
	Tag         string         `json:"tag"`
	Type        string         `json:"type"`
	Kind        string         `json:"kind"`
	Category    string         `json:"category"`
	Pattern     string         `json:"pattern,omitempty"`
	GroundTruth string         `json:"ground_truth,omitempty"`
	ElementBase string         `json:"element_base,omitempty"`
	Edges       []referentJSON `json:"edges"`
}

func runInspect(args []string) error {
	ss, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer ss.Close()

	objs, err := ss.objects(args[1:2])
	if err != nil {
		return err
	}
	obj := objs[0]

	var out inspectJSON
	if err := guard(func() { out = ss.inspect(obj) }); err != nil {
		return fmt.Errorf("inspect %s: %w", obj, err)
	}

	if jsonOut {
		return printJSON(out)
	}
	printInfo("Object:       %s\n", out.Object)
	printInfo("Tag:          %s\n", out.Tag)
	printInfo("Type:         %s\n", out.Type)
	printInfo("Kind:         %s (%s)\n", out.Kind, out.Category)
	if out.Pattern != "" {
		printInfo("Pattern:      %s (layout: %s)\n", out.Pattern, out.GroundTruth)
	}
	if out.ElementBase != "" {
		printInfo("Elements at:  %s\n", out.ElementBase)
	}
	printInfo("Edges:        %d\n", len(out.Edges))
	for _, e := range out.Edges {
		target := e.Referent
		if e.Type != "" {
			target = fmt.Sprintf("%s (%s %s)", e.Referent, e.Kind, e.Type)
		}
		printInfo("  %-8s %s -> %s\n", e.edgeJSON.Kind, edgeLabel(e.edgeJSON), target)
	}
	return nil
}

func (ss *session) inspect(obj heap.Address) inspectJSON {
	mem, rt := ss.snap.Mem, ss.snap.Runtime
	k := ss.s.Classify(obj)
	out := inspectJSON{
		Object:   obj.String(),
		Tag:      heap.RawTag(mem, obj).String(),
		Type:     ss.typeName(obj),
		Kind:     k.String(),
		Category: scan.Category(k).String(),
		Edges:    []referentJSON{},
	}
	if k == scan.KindRecord {
		out.Pattern = scan.ExtractPattern(rt.TypeOf(mem, obj)).String()
		out.GroundTruth = ss.s.GroundTruth(obj).String()
	}
	if base := ss.s.ElementBase(obj); !base.IsNull() {
		out.ElementBase = base.String()
	}

	var set scan.EdgeSet
	ss.s.Scan(obj, &set)
	for _, e := range set.Sorted() {
		r := referentJSON{edgeJSON: toEdgeJSON(mem, e)}
		if ref := e.Load(mem); !ref.IsNull() && mem.Mapped(heap.TagAddr(ref)) {
			r.Kind = ss.s.Classify(ref).String()
			r.Type = ss.typeName(ref)
		}
		out.Edges = append(out.Edges, r)
	}
	return out
}
