package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/heap/builder"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
	"github.com/joshuapare/heapscan/scan/excstack"
)

// fixture names the interesting objects of the test heap.
type fixture struct {
	x, y heap.Address
	pair heap.Address
	vec  heap.Address
	odd  heap.Address
}

// newFixtureModel builds a small heap and an explorer over it.
func newFixtureModel() (Model, fixture) {
	b := builder.New(nil)
	var f fixture
	f.x, f.y = b.String("x"), b.String("y")
	pair := b.DataType("Pair", builder.TypeSpec{Fields: 2, Pointers: []uint32{0, 1}})
	f.pair = b.Record(pair, f.x, f.y)
	f.vec = b.SimpleVector(f.pair, heap.Null)
	odd := b.DataType("Odd", builder.TypeSpec{Fields: 2, Pointers: []uint32{0}, Width: format.FieldDescReserved})
	f.odd = b.Record(odd)

	snap := b.Build()
	s := scan.New(snap.Runtime, snap.Mem, &scan.Options{Upcalls: excstack.New(snap.Mem, snap.StackBases)})
	return NewModel("test.img", snap, s, nil), f
}

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
	cmd   tea.Cmd
}

// NewTestHelper creates a test helper over the fixture heap
func NewTestHelper() (*TestHelper, fixture) {
	m, f := newFixtureModel()
	return &TestHelper{model: m}, f
}

func (h *TestHelper) send(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.cmd = cmd
	return h
}

// SendKey simulates a key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.send(tea.WindowSizeMsg{Width: width, Height: height})
}

// Select moves the object cursor to obj.
func (h *TestHelper) Select(obj heap.Address) *TestHelper {
	h.model.focusedPane = ObjectPane
	h.model.jump(obj)
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
