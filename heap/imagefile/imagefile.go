// Package imagefile reads and writes heap snapshots as self-contained image
// files.
//
// An image starts with a fixed header (see format.ImageHeader) carrying the
// runtime singletons, followed by the segment table, the object table, the
// stack base table and the segment payloads:
//
//	+----------------------+ 0
//	| header               |
//	+----------------------+ format.ImageHeaderSize
//	| segment table        | 24 bytes per segment
//	| object table         | 8 bytes per object
//	| stack base table     | 16 bytes per thread
//	+----------------------+
//	| segment payloads     | word aligned, at the offsets in the table
//	+----------------------+
//
// Decoded snapshots alias the input bytes. Images opened with Open are
// mapped read-only, so their memory must not be written.
package imagefile

import (
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/buf"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/internal/mmfile"
	"github.com/joshuapare/heapscan/internal/writer"
)

// Marshal encodes snap as an image.
func Marshal(snap *heap.Snapshot) ([]byte, error) {
	if snap == nil || snap.Mem == nil || snap.Runtime == nil {
		return nil, fmt.Errorf("imagefile: incomplete snapshot")
	}
	rt := snap.Runtime
	h := format.ImageHeader{
		Version:       format.ImageVersion,
		SegmentCount:  uint32(len(snap.Mem.Segments())),
		ObjectCount:   uint32(len(snap.Objects)),
		StackCount:    uint32(len(snap.StackBases)),
		SymbolType:    uint64(rt.SymbolType),
		SvecType:      uint64(rt.SimpleVectorType),
		ModuleType:    uint64(rt.ModuleType),
		TaskType:      uint64(rt.TaskType),
		StringType:    uint64(rt.StringType),
		WeakRefType:   uint64(rt.WeakRefType),
		ArrayTypeName: uint64(rt.ArrayTypeName),
		BuffTag:       uint64(rt.BuffTag),
	}
	if snap.CopyStacks {
		h.Flags |= format.ImageFlagCopyStacks
	}
	switch vm := rt.VMSpace.(type) {
	case nil:
	case heap.Range:
		h.VMSpaceLow, h.VMSpaceHigh = uint64(vm.Low), uint64(vm.High)
	case *heap.Range:
		h.VMSpaceLow, h.VMSpaceHigh = uint64(vm.Low), uint64(vm.High)
	default:
		return nil, fmt.Errorf("imagefile: vm space %T: %w", vm, format.ErrUnsupported)
	}
	for i, t := range rt.SmallTypeOf {
		h.SmallTypeOf[i] = uint64(t)
	}

	segs := snap.Mem.Segments()
	tids := slices.Sorted(maps.Keys(snap.StackBases))

	segTable := format.ImageHeaderSize
	objTable := segTable + len(segs)*format.ImageSegmentEntrySize
	stackTable := objTable + len(snap.Objects)*format.WordSize
	payload := stackTable + len(tids)*format.ImageStackBaseEntrySize

	size := payload
	for _, s := range segs {
		size = format.Align8(size) + len(s.Data)
	}
	out := make([]byte, size)
	h.Encode(out)

	off := payload
	for i, s := range segs {
		off = format.Align8(off)
		format.ImageSegment{
			Base:       uint64(s.Base),
			Length:     uint64(len(s.Data)),
			FileOffset: uint64(off),
		}.Encode(out[segTable+i*format.ImageSegmentEntrySize:])
		off += copy(out[off:], s.Data)
	}
	for i, obj := range snap.Objects {
		format.PutU64(out, objTable+i*format.WordSize, uint64(obj))
	}
	for i, tid := range tids {
		e := stackTable + i*format.ImageStackBaseEntrySize
		format.PutU64(out, e, uint64(int64(tid)))
		format.PutU64(out, e+format.WordSize, uint64(snap.StackBases[tid]))
	}
	return out, nil
}

// Write encodes snap and hands it to sink.
func Write(sink writer.Sink, snap *heap.Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	return sink.WriteImage(data)
}

// WriteFile atomically writes snap to path.
func WriteFile(path string, snap *heap.Snapshot) error {
	return Write(&writer.FileWriter{Path: path}, snap)
}

// Unmarshal decodes an image. The snapshot's memory aliases data.
func Unmarshal(data []byte) (*heap.Snapshot, error) {
	h, err := format.ParseImageHeader(data)
	if err != nil {
		return nil, fmt.Errorf("imagefile: %w", err)
	}

	segTable := format.ImageHeaderSize
	objTable := segTable + int(h.SegmentCount)*format.ImageSegmentEntrySize
	stackTable := objTable + int(h.ObjectCount)*format.WordSize
	end := stackTable + int(h.StackCount)*format.ImageStackBaseEntrySize
	if !buf.Has(data, 0, end) {
		return nil, fmt.Errorf("imagefile: tables end at 0x%x past 0x%x: %w", end, len(data), format.ErrTruncated)
	}

	segs := make([]heap.Segment, 0, h.SegmentCount)
	for i := range int(h.SegmentCount) {
		e, err := format.ParseImageSegment(data[segTable+i*format.ImageSegmentEntrySize:])
		if err != nil {
			return nil, fmt.Errorf("imagefile: segment %d: %w", i, err)
		}
		if e.FileOffset < uint64(end) {
			return nil, fmt.Errorf("imagefile: segment %d payload overlaps tables: %w", i, format.ErrCorrupt)
		}
		off, err := buf.CheckSpan(0, uint64(len(data)), e.FileOffset, e.Length)
		if err != nil {
			return nil, fmt.Errorf("imagefile: segment %d payload: %w: %w", i, format.ErrTruncated, err)
		}
		segs = append(segs, heap.Segment{Base: heap.Address(e.Base), Data: data[off : off+int(e.Length)]})
	}
	mem, err := heap.NewImage(segs...)
	if err != nil {
		return nil, fmt.Errorf("imagefile: %w: %w", format.ErrCorrupt, err)
	}

	objs := make([]heap.Address, h.ObjectCount)
	for i := range objs {
		obj := heap.Address(buf.U64LE(data[objTable+i*format.WordSize:]))
		if !mem.Mapped(heap.TagAddr(obj)) {
			return nil, fmt.Errorf("imagefile: object %s header not mapped: %w", obj, format.ErrCorrupt)
		}
		objs[i] = obj
	}

	bases := make(map[int16]heap.Address, h.StackCount)
	for i := range int(h.StackCount) {
		e := stackTable + i*format.ImageStackBaseEntrySize
		tid := int64(buf.U64LE(data[e:]))
		if tid < 0 || tid > 1<<15-1 {
			return nil, fmt.Errorf("imagefile: stack base %d has thread id %d: %w", i, tid, format.ErrCorrupt)
		}
		bases[int16(tid)] = heap.Address(buf.U64LE(data[e+format.WordSize:]))
	}

	rt := &heap.Runtime{
		SymbolType:       heap.Address(h.SymbolType),
		SimpleVectorType: heap.Address(h.SvecType),
		ModuleType:       heap.Address(h.ModuleType),
		TaskType:         heap.Address(h.TaskType),
		StringType:       heap.Address(h.StringType),
		WeakRefType:      heap.Address(h.WeakRefType),
		ArrayTypeName:    heap.Address(h.ArrayTypeName),
		BuffTag:          heap.Address(h.BuffTag),
		VMSpace:          heap.Range{Low: heap.Address(h.VMSpaceLow), High: heap.Address(h.VMSpaceHigh)},
	}
	for i, t := range h.SmallTypeOf {
		rt.SmallTypeOf[i] = heap.Address(t)
	}

	return &heap.Snapshot{
		Mem:        mem,
		Runtime:    rt,
		Objects:    objs,
		StackBases: bases,
		CopyStacks: h.Flags&format.ImageFlagCopyStacks != 0,
	}, nil
}

// File is an image opened from disk.
type File struct {
	*heap.Snapshot
	unmap func() error
}

// Open maps the image at path.
func Open(path string) (*File, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("imagefile: open %s: %w", path, err)
	}
	snap, err := Unmarshal(data)
	if err != nil {
		if unmap != nil {
			_ = unmap()
		}
		return nil, err
	}
	return &File{Snapshot: snap, unmap: unmap}, nil
}

// Close unmaps the file. The snapshot must not be used afterwards.
func (f *File) Close() error {
	if f.unmap == nil {
		return nil
	}
	err := f.unmap()
	f.unmap = nil
	return err
}
