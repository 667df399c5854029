package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/heap/imagefile"
	"github.com/joshuapare/heapscan/internal/format"
)

var genNodes int

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVar(&genNodes, "nodes", 16, "Length of the linked list held by the main task")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <output>",
		Short: "Write a sample heap image",
		Long: `The gen command builds a small heap holding one object of every kind
and every array storage mode, plus a linked list rooted from a task's GC
frame and a record nothing refers to, and writes it as an image.

With --copy-stacks a second task running on a copied stack is added.

Example:
  heapscan gen sample.img
  heapscan gen sample.img --nodes 1000 --copy-stacks`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(args)
		},
	}
	return cmd
}

func runGen(args []string) error {
	if genNodes < 1 {
		return fmt.Errorf("--nodes must be positive, got %d", genNodes)
	}
	snap := sampleHeap(genNodes, copyStacks)
	if err := imagefile.WriteFile(args[0], snap); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	printInfo("Wrote %s: %d objects in %d segments\n", args[0], len(snap.Objects), len(snap.Mem.Segments()))
	return nil
}

// sampleStackHigh is the top of the copied stack's original address range.
const sampleStackHigh = heap.Address(0x40000000)

// sampleHeap builds the heap written by gen.
func sampleHeap(nodes int, withCopiedStack bool) *heap.Snapshot {
	opts := builder.DefaultOptions()
	opts.CopyStacks = withCopiedStack
	b := builder.New(opts)

	name, label := b.String("sample"), b.String("label")
	node := b.DataType("Node", builder.TypeSpec{Fields: 3, Pointers: []uint32{1, 2}})
	pair := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	point := b.DataType("Point", builder.TypeSpec{Fields: 2})
	wide := b.DataType("Wide", builder.TypeSpec{Fields: 300, Pointers: []uint32{3, 290}})

	// Linked list, built tail first.
	var head heap.Address
	for range nodes {
		head = b.Record(node, heap.Null, label, head)
	}

	base := b.Module(builder.ModuleSpec{Name: "Base"})
	mainMod := b.Module(builder.ModuleSpec{Name: "Main", Parent: base, Usings: []heap.Address{base}})
	vec := b.SimpleVector(name, heap.Null, mainMod)
	b.Record(wide, vec, head)
	b.Record(point)
	b.Record(b.Runtime().WeakRefType, head)

	anyT := b.DataType("Any", builder.TypeSpec{})
	objs, pairs := b.ArrayType(anyT), b.ArrayType(pair)
	var arrays []heap.Address
	for _, how := range []format.ArrayHow{format.HowInline, format.HowRuntimeBuffer, format.HowForeign, format.HowOwner} {
		arrays = append(arrays,
			b.Array(builder.ArraySpec{Type: objs, How: how, ElSize: 8, Length: 2, Elems: []heap.Address{name, label}, PtrArray: true, Owner: vec}),
			b.Array(builder.ArraySpec{Type: pairs, How: how, ElSize: 16, Length: 2, Elems: []heap.Address{name, label, label, name}, HasPtr: true, Owner: vec}),
		)
	}
	all := b.SimpleVector(arrays...)

	// Unreachable from any task.
	b.Record(pair, name, label)

	es := b.ExcStack(builder.ExcEntry{Exception: label, Backtrace: []builder.BTEntry{{IP: 0x401000}, {Values: []heap.Address{name}}}})
	b.Task(builder.TaskSpec{
		Fields:   []heap.Address{mainMod},
		GCStack:  b.Frame(b.Frame(heap.Null, false, all), false, head, vec),
		ExcStack: es,
	})

	if withCopiedStack {
		const size = 0x80
		low := sampleStackHigh - size
		stkbuf := b.Buffer(size)
		b.EncodeFrame(stkbuf.Plus(0x10), heap.Null, false, head)
		b.SetStackBase(1, sampleStackHigh)
		b.Task(builder.TaskSpec{TID: 1, GCStack: low.Plus(0x10), StkBuf: stkbuf, CopyStack: size})
	}
	return b.Build()
}
