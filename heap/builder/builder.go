package builder

import (
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

// Task layout of the builtin task type: TaskFields language-visible words,
// of which TaskPointerWords hold references.
const TaskFields = format.TaskFieldsSize / format.WordSize

var TaskPointerWords = []uint32{0, 1, 2, 3, 4, 5, 6}

// Builder lays out objects in a synthetic heap. It is not safe for
// concurrent use.
type Builder struct {
	opts  *Options
	rt    *heap.Runtime
	mem   *heap.Image
	s     *scan.Scanner
	vm    *arena
	obj   *arena
	stack *arena

	dataType heap.Address
	typeName heap.Address
	symbols  map[string]heap.Address
	objects  []heap.Address
	bases    map[int16]heap.Address
}

// New returns a Builder whose VM space already holds the builtin types.
func New(opts *Options) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	b := &Builder{
		opts:    opts,
		vm:      newArena("vm", opts.VMBase, opts.VMSize),
		obj:     newArena("heap", opts.HeapBase, opts.HeapSize),
		stack:   newArena("stack", opts.StackBase, opts.StackSize),
		symbols: make(map[string]heap.Address),
		bases:   make(map[int16]heap.Address),
	}
	mem, err := heap.NewImage(b.vm.segment(), b.obj.segment(), b.stack.segment())
	if err != nil {
		panic(fmt.Sprintf("builder: %v", err))
	}
	b.mem = mem
	b.rt = &heap.Runtime{
		BuffTag: DefaultBuffTag,
		VMSpace: heap.Range{Low: opts.VMBase, High: opts.VMBase.Plus(uint64(opts.VMSize))},
	}
	b.s = scan.New(b.rt, b.mem, nil)
	b.boot()
	return b
}

// boot creates the builtin types. Types are allocated before any symbol
// exists, so names are attached last.
func (b *Builder) boot() {
	rt := b.rt
	b.dataType = b.allocType(b.vm)
	rt.SetSmallType(format.SmallTagDatatype, b.dataType)

	b.typeName = b.allocType(b.vm)
	rt.SymbolType = b.builtin(format.SmallTagSymbol)
	rt.SimpleVectorType = b.builtin(format.SmallTagSimpleVector)
	rt.ModuleType = b.builtin(format.SmallTagModule)
	rt.StringType = b.builtin(format.SmallTagString)
	rt.TaskType = b.builtin(format.SmallTagTask)
	rt.WeakRefType = b.allocType(b.vm)

	b.setLayout(b.dataType, TypeSpec{Fields: 9, Pointers: []uint32{0, 1, 2, 3, 4}, Size: format.DatatypeSize})
	b.setLayout(b.typeName, TypeSpec{Fields: 2, Pointers: []uint32{0, 1}, Size: format.TypeNameSize})
	b.setLayout(rt.SymbolType, TypeSpec{})
	b.setLayout(rt.SimpleVectorType, TypeSpec{})
	b.setLayout(rt.ModuleType, TypeSpec{Size: format.ModuleSize})
	b.setLayout(rt.StringType, TypeSpec{})
	b.setLayout(rt.TaskType, TypeSpec{Fields: TaskFields, Pointers: TaskPointerWords, Size: format.TaskSize})
	b.setLayout(rt.WeakRefType, TypeSpec{Fields: 1, Pointers: []uint32{0}})

	for _, n := range []struct {
		t    heap.Address
		name string
	}{
		{b.dataType, "DataType"},
		{b.typeName, "TypeName"},
		{rt.SymbolType, "Symbol"},
		{rt.SimpleVectorType, "SimpleVector"},
		{rt.ModuleType, "Module"},
		{rt.StringType, "String"},
		{rt.TaskType, "Task"},
		{rt.WeakRefType, "WeakRef"},
	} {
		b.mem.StoreWord(n.t.Plus(format.DatatypeNameOffset), b.newTypeName(b.vm, n.name))
	}
	rt.ArrayTypeName = b.newTypeName(b.vm, "Array")
}

func (b *Builder) builtin(tag int) heap.Address {
	t := b.allocType(b.vm)
	b.rt.SetSmallType(tag, t)
	return t
}

// Runtime returns the runtime description of the heap being built.
func (b *Builder) Runtime() *heap.Runtime { return b.rt }

// Memory returns the heap being built.
func (b *Builder) Memory() *heap.Image { return b.mem }

// Scanner returns a scanner over the heap being built.
func (b *Builder) Scanner(opts *scan.Options) *scan.Scanner {
	return scan.New(b.rt, b.mem, opts)
}

// DataTypeType returns the type of type descriptors.
func (b *Builder) DataTypeType() heap.Address { return b.dataType }

// TypeNameType returns the type of typename objects.
func (b *Builder) TypeNameType() heap.Address { return b.typeName }

// Objects returns every object allocated so far, in allocation order.
func (b *Builder) Objects() []heap.Address { return slices.Clone(b.objects) }

// InVM reports whether a lies in the VM-space arena.
func (b *Builder) InVM(a heap.Address) bool { return b.vm.contains(a) }

// Build returns a snapshot of the heap trimmed to the allocated part of
// each arena. The builder remains usable; later allocations are not visible
// in the snapshot's memory.
func (b *Builder) Build() *heap.Snapshot {
	mem, err := heap.NewImage(b.vm.usedSegment(), b.obj.usedSegment(), b.stack.usedSegment())
	if err != nil {
		panic(fmt.Sprintf("builder: %v", err))
	}
	rt := *b.rt
	return &heap.Snapshot{
		Mem:        mem,
		Runtime:    &rt,
		Objects:    b.Objects(),
		StackBases: maps.Clone(b.bases),
		CopyStacks: b.opts.CopyStacks,
	}
}

// Store writes the word v at a.
func (b *Builder) Store(a, v heap.Address) { b.mem.StoreWord(a, v) }

// Load reads the word at a.
func (b *Builder) Load(a heap.Address) heap.Address { return b.mem.LoadWord(a) }

// Tag returns obj's raw header word.
func (b *Builder) Tag(obj heap.Address) heap.Address { return heap.RawTag(b.mem, obj) }

// SetTag overwrites obj's header word.
func (b *Builder) SetTag(obj, tag heap.Address) { b.mem.StoreWord(heap.TagAddr(obj), tag) }

// SetStackBase records the top of thread tid's stack.
func (b *Builder) SetStackBase(tid int16, top heap.Address) { b.bases[tid] = top }

// StackBases returns the registered stack tops.
func (b *Builder) StackBases() map[int16]heap.Address { return maps.Clone(b.bases) }

// Raw allocates header-less words in the object heap.
func (b *Builder) Raw(words ...heap.Address) heap.Address {
	a := b.obj.raw(uint64(len(words)) * format.WordSize)
	b.storeWords(a, words)
	return a
}

// RawBytes allocates n zeroed header-less bytes in the object heap.
func (b *Builder) RawBytes(n int) heap.Address { return b.obj.raw(uint64(n)) }

// StackWords allocates words in the stack arena.
func (b *Builder) StackWords(words ...heap.Address) heap.Address {
	a := b.stack.raw(uint64(len(words)) * format.WordSize)
	b.storeWords(a, words)
	return a
}

// Symbol returns the interned symbol called name, allocating it in VM space
// on first use.
func (b *Builder) Symbol(name string) heap.Address {
	if sym, ok := b.symbols[name]; ok {
		return sym
	}
	size := uint64(format.SymbolNameOffset + len(name) + 1)
	sym := b.alloc(b.vm, size, format.ObjectAlignment, heap.SmallTag(format.SmallTagSymbol))
	dst, _ := b.mem.Bytes(sym.Plus(format.SymbolNameOffset), len(name))
	copy(dst, name)
	b.symbols[name] = sym
	return sym
}

func (b *Builder) newTypeName(ar *arena, name string) heap.Address {
	tn := b.alloc(ar, format.TypeNameSize, format.ObjectAlignment, b.typeName)
	b.mem.StoreWord(tn.Plus(format.TypeNameNameOffset), b.Symbol(name))
	return tn
}

// alloc reserves an object in ar and writes its header.
func (b *Builder) alloc(ar *arena, size, align uint64, tag heap.Address) heap.Address {
	obj := ar.object(size, align)
	b.mem.StoreWord(heap.TagAddr(obj), tag)
	b.objects = append(b.objects, obj)
	return obj
}

func (b *Builder) storeWords(a heap.Address, words []heap.Address) {
	for i, w := range words {
		b.mem.StoreWord(a.Shift(i), w)
	}
}

// publish returns the header tag for an instance of t: t itself, with the
// alignment pattern embedded when t is a record type outside VM space.
func (b *Builder) publish(t heap.Address) heap.Address {
	if b.rt.InVMSpace(t) || t == b.rt.WeakRefType || b.s.KindOf(t) != scan.KindRecord {
		return t
	}
	p, err := scan.LayoutPattern(heap.DatatypeAt(b.mem, t).Layout())
	if err != nil {
		p = scan.Fallback
	}
	return scan.EncodePattern(t, p)
}
