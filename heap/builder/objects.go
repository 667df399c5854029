package builder

import (
	"fmt"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
)

// Record allocates an instance of t with its leading words set to fields.
// The header carries t's published alignment pattern.
func (b *Builder) Record(t heap.Address, fields ...heap.Address) heap.Address {
	size := int(heap.DatatypeAt(b.mem, t).Size())
	if len(fields)*format.WordSize > size {
		panic(fmt.Sprintf("builder: %d fields do not fit a %d-byte instance", len(fields), size))
	}
	obj := b.alloc(b.obj, uint64(size), format.ObjectAlignment, b.publish(t))
	b.storeWords(obj, fields)
	return obj
}

// SimpleVector allocates a simple vector holding elems.
func (b *Builder) SimpleVector(elems ...heap.Address) heap.Address {
	size := uint64(format.SvecDataOffset + len(elems)*format.WordSize)
	sv := b.alloc(b.obj, size, format.ObjectAlignment, heap.SmallTag(format.SmallTagSimpleVector))
	b.mem.StoreWord(sv.Plus(format.SvecLengthOffset), heap.Address(len(elems)))
	b.storeWords(heap.SvecData(sv), elems)
	return sv
}

// String allocates a string object: a length word followed by the bytes.
func (b *Builder) String(s string) heap.Address {
	size := uint64(format.WordSize + len(s))
	obj := b.alloc(b.obj, size, format.ObjectAlignment, heap.SmallTag(format.SmallTagString))
	b.mem.StoreWord(obj, heap.Address(len(s)))
	if len(s) > 0 {
		dst, _ := b.mem.Bytes(obj.Plus(format.WordSize), len(s))
		copy(dst, s)
	}
	return obj
}

// Buffer allocates a raw runtime buffer of n zeroed bytes.
func (b *Builder) Buffer(n int) heap.Address {
	return b.alloc(b.obj, uint64(n), format.ObjectAlignment, b.rt.BuffTag)
}

// ModuleSpec describes a module.
type ModuleSpec struct {
	Name          string
	Parent        heap.Address
	Bindings      heap.Address
	BindingKeySet heap.Address
	Usings        []heap.Address

	// OutOfLine stores usings in a separate allocation even when they fit
	// the module's inline space.
	OutOfLine bool
}

// Module allocates a module.
func (b *Builder) Module(spec ModuleSpec) heap.Address {
	m := b.alloc(b.obj, format.ModuleSize, format.ObjectAlignment, heap.SmallTag(format.SmallTagModule))
	if spec.Name != "" {
		b.mem.StoreWord(m.Plus(format.ModuleNameOffset), b.Symbol(spec.Name))
	}
	b.mem.StoreWord(m.Plus(format.ModuleParentOffset), spec.Parent)
	b.mem.StoreWord(m.Plus(format.ModuleBindingsOffset), spec.Bindings)
	b.mem.StoreWord(m.Plus(format.ModuleBindingKeySetOffset), spec.BindingKeySet)

	items := m.Plus(format.ModuleUsingsSpaceOffset)
	capacity := format.ModuleUsingsInline
	if spec.OutOfLine || len(spec.Usings) > format.ModuleUsingsInline {
		items = b.Raw(spec.Usings...)
		capacity = len(spec.Usings)
	} else {
		b.storeWords(items, spec.Usings)
	}
	b.mem.StoreWord(m.Plus(format.ModuleUsingsLenOffset), heap.Address(len(spec.Usings)))
	b.mem.StoreWord(m.Plus(format.ModuleUsingsMaxOffset), heap.Address(capacity))
	b.mem.StoreWord(m.Plus(format.ModuleUsingsItemsOffset), items)
	return m
}

// ArraySpec describes an array.
type ArraySpec struct {
	// Type is the array type, from ArrayType.
	Type heap.Address

	How format.ArrayHow

	// NDims is the rank. Zero means 1.
	NDims uint32

	// Dims overrides the stored dimensions. Default: nrows = ncols = Length.
	Dims []uint64

	ElSize int
	Length int

	// Offset is the number of elements skipped at the front of a runtime
	// buffer.
	Offset uint32

	// Elems initialises element storage, one word at a time.
	Elems []heap.Address

	// Data, when set, is stored as the data pointer instead of allocating
	// storage. NullData stores a null pointer.
	Data     heap.Address
	NullData bool

	// Owner is the owner slot value for HowOwner arrays.
	Owner heap.Address

	PtrArray bool
	HasPtr   bool
}

// Array allocates an array and its element storage according to spec.How:
// inline storage follows the header, runtime buffers are separate buffer
// objects, and foreign storage is header-less memory.
func (b *Builder) Array(spec ArraySpec) heap.Address {
	ndims := spec.NDims
	if ndims == 0 {
		ndims = 1
	}
	ownerOff := format.ArrayOwnerOffset(ndims)
	hdrSize := ownerOff + format.WordSize

	storage := format.Align8(spec.Length*spec.ElSize) / format.WordSize
	storage = max(storage, len(spec.Elems))

	bodySize := hdrSize
	if spec.How == format.HowInline && spec.Data.IsNull() && !spec.NullData {
		bodySize += storage * format.WordSize
	}
	a := b.alloc(b.obj, uint64(bodySize), format.ObjectAlignment, spec.Type)

	var data heap.Address
	switch {
	case spec.NullData:
	case !spec.Data.IsNull():
		data = spec.Data
	case spec.How == format.HowInline:
		data = a.Plus(uint64(hdrSize))
	case spec.How == format.HowRuntimeBuffer:
		skip := int(spec.Offset) * spec.ElSize
		buf := b.Buffer(skip + storage*format.WordSize)
		data = buf.Plus(uint64(skip))
	default:
		data = b.RawBytes(storage * format.WordSize)
	}
	if !data.IsNull() && spec.Data.IsNull() {
		b.storeWords(data, spec.Elems)
	}

	flags := format.NewArrayFlags(spec.How, ndims)
	if spec.PtrArray {
		flags = flags.WithPtrArray()
	}
	if spec.HasPtr {
		flags = flags.WithHasPtr()
	}

	dims := spec.Dims
	if len(dims) == 0 {
		dims = []uint64{uint64(spec.Length), uint64(spec.Length)}
	}

	v := heap.NewView(b.mem, a)
	b.mem.StoreWord(v.FieldAt(format.ArrayDataOffset), data)
	b.mem.StoreWord(v.FieldAt(format.ArrayLengthOffset), heap.Address(spec.Length))
	b.mem.Store16(v.FieldAt(format.ArrayFlagsOffset), uint16(flags))
	b.mem.Store16(v.FieldAt(format.ArrayElSizeOffset), uint16(spec.ElSize))
	b.mem.Store32(v.FieldAt(format.ArrayOffsetOffset), spec.Offset)
	for i, d := range dims {
		off := format.ArrayNRowsOffset + i*format.WordSize
		if off >= ownerOff {
			break
		}
		b.mem.StoreWord(v.FieldAt(off), heap.Address(d))
	}
	if spec.How == format.HowOwner {
		b.mem.StoreWord(v.FieldAt(ownerOff), spec.Owner)
	}
	return a
}
