package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapscan/cmd/heapexplorer/virtuallist"
	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

// Pane represents which pane is focused
type Pane int

const (
	ObjectPane Pane = iota
	EdgePane
)

// objectRow is one line of the object pane.
type objectRow struct {
	addr heap.Address
	kind string
	typ  string
}

// edgeRow is one line of the edge pane.
type edgeRow struct {
	edge   scan.Edge
	ref    heap.Address
	mapped bool
	kind   string
	typ    string
}

// Model is the main application model
type Model struct {
	path   string
	snap   *heap.Snapshot
	s      *scan.Scanner
	closer io.Closer

	objects  []objectRow
	index    map[heap.Address]int
	objList  *virtuallist.Renderer
	edges    []edgeRow
	edgeList *virtuallist.Renderer

	// current is the object whose edges are shown; history holds the
	// objects left by following edges.
	current heap.Address
	history []heap.Address

	keys   KeyMap
	help   help.Model
	detail DetailModel

	focusedPane Pane
	width       int
	height      int

	showHelp      bool
	statusMessage string
	err           error
}

// NewModel returns an explorer over snap. closer, if set, is closed by
// Close.
func NewModel(path string, snap *heap.Snapshot, s *scan.Scanner, closer io.Closer) Model {
	m := Model{
		path:   path,
		snap:   snap,
		s:      s,
		closer: closer,
		index:  make(map[heap.Address]int, len(snap.Objects)),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		detail: NewDetailModel(),
	}
	m.objects = make([]objectRow, 0, len(snap.Objects))
	for _, obj := range snap.Objects {
		row := objectRow{addr: obj}
		err := guard(func() {
			row.kind = s.Classify(obj).String()
			row.typ = m.typeName(obj)
		})
		if err != nil {
			row.kind, row.typ = "?", err.Error()
		}
		m.index[obj] = len(m.objects)
		m.objects = append(m.objects, row)
	}
	m.objList = virtuallist.New(objectList(m.objects))
	m.objList.Empty = "(no objects)"
	m.edgeList = virtuallist.New(edgeList(nil))
	m.edgeList.Empty = "(no edges)"
	if len(m.objects) > 0 {
		m.load(m.objects[0].addr)
	}
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Close releases the image.
func (m Model) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

func (m *Model) typeName(obj heap.Address) string {
	return heap.TypeName(m.snap.Runtime, m.snap.Mem, m.snap.Runtime.TypeOf(m.snap.Mem, obj))
}

// load scans obj and makes it current.
func (m *Model) load(obj heap.Address) {
	m.current = obj
	m.err = nil
	var set scan.EdgeSet
	if err := guard(func() { m.s.Scan(obj, &set) }); err != nil {
		m.edges = nil
		m.edgeList.SetList(edgeList(nil))
		m.statusMessage = ""
		m.err = err
		return
	}
	m.edges = m.edges[:0:0]
	for _, e := range set.Edges() {
		row := edgeRow{edge: e}
		_ = guard(func() {
			row.ref = e.Load(m.snap.Mem)
			if row.ref.IsNull() || !m.snap.Mem.Mapped(heap.TagAddr(row.ref)) {
				return
			}
			row.mapped = true
			row.kind = m.s.Classify(row.ref).String()
			row.typ = m.typeName(row.ref)
		})
		m.edges = append(m.edges, row)
	}
	m.edgeList.SetList(edgeList(m.edges))
}

// follow makes the referent of the selected edge current.
func (m *Model) follow() {
	if len(m.edges) == 0 {
		return
	}
	row := m.edges[m.edgeList.Cursor()]
	switch {
	case row.ref.IsNull():
		m.statusMessage = "null slot"
		return
	case !row.mapped:
		m.statusMessage = fmt.Sprintf("%s is not mapped", row.ref)
		return
	}
	m.history = append(m.history, m.current)
	m.jump(row.ref)
}

// back returns to the object the last followed edge came from.
func (m *Model) back() {
	if len(m.history) == 0 {
		m.statusMessage = "at start of history"
		return
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.jump(prev)
}

func (m *Model) jump(obj heap.Address) {
	if i, ok := m.index[obj]; ok {
		m.objList.SetCursor(i)
	}
	m.load(obj)
	m.statusMessage = ""
}

// guard runs fn and converts a scanner invariant violation or a memory fault
// into an error. Any other panic is re-raised.
func guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			var ie *scan.InvariantError
			var fe *heap.FaultError
			if errors.As(e, &ie) || errors.As(e, &fe) {
				err = e
				return
			}
		}
		panic(r)
	}()
	fn()
	return nil
}
