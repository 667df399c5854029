package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/internal/format"
	"github.com/joshuapare/heapscan/scan"
)

// dumpBytes is how much of an object, header included, the detail view
// shows as hex.
const dumpBytes = 128

// DetailModel shows everything known about one object in a scrollable modal.
type DetailModel struct {
	title    string
	viewport viewport.Model
	width    int
	height   int
	visible  bool
}

// NewDetailModel creates a hidden detail view
func NewDetailModel() DetailModel {
	return DetailModel{viewport: viewport.New(0, 0)}
}

// Init implements tea.Model
func (m DetailModel) Init() tea.Cmd {
	return nil
}

// Show displays content under title
func (m *DetailModel) Show(title, content string) {
	m.title = title
	m.visible = true
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// Hide closes the detail view
func (m *DetailModel) Hide() {
	m.visible = false
}

// IsVisible returns whether the detail view is currently shown
func (m *DetailModel) IsVisible() bool {
	return m.visible
}

// Update handles messages
func (m *DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = msg.Width, msg.Height
		// The modal takes 80% of the screen; border and padding take 6
		// columns and 4 rows.
		m.viewport.Width = max(int(float64(m.width)*0.8)-6, 10)
		m.viewport.Height = max(int(float64(m.height)*0.8)-6, 3)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view
func (m DetailModel) View() string {
	if !m.visible {
		return ""
	}
	return modalStyle.Render(modalTitleStyle.Render(m.title) + "\n\n" + m.viewport.View())
}

// describe renders the detail text for obj.
func (m *Model) describe(obj heap.Address) string {
	var b strings.Builder
	err := guard(func() {
		mem, rt := m.snap.Mem, m.snap.Runtime
		k := m.s.Classify(obj)
		fmt.Fprintf(&b, "Address:   %s\n", obj)
		fmt.Fprintf(&b, "Tag:       %s\n", heap.RawTag(mem, obj))
		fmt.Fprintf(&b, "Type:      %s\n", m.typeName(obj))
		fmt.Fprintf(&b, "Kind:      %s (%s)\n", k, scan.Category(k))
		if k == scan.KindRecord {
			fmt.Fprintf(&b, "Pattern:   %s (layout: %s)\n", scan.ExtractPattern(rt.TypeOf(mem, obj)), m.s.GroundTruth(obj))
			if err := m.s.VerifyPattern(obj); err != nil {
				fmt.Fprintf(&b, "           %v\n", err)
			}
		}
		if base := m.s.ElementBase(obj); !base.IsNull() {
			fmt.Fprintf(&b, "Elements:  %s\n", base)
		}
		fmt.Fprintf(&b, "Edges:     %d\n", len(m.edges))
	})
	if err != nil {
		fmt.Fprintf(&b, "\n%v\n", err)
	}

	b.WriteString("\nMemory:\n")
	start := heap.TagAddr(obj)
	n := dumpBytes
	for n > 0 {
		if data, ok := m.snap.Mem.Bytes(start, n); ok {
			b.WriteString(hexDump(start, data))
			break
		}
		n -= format.WordSize
	}
	if n <= 0 {
		b.WriteString("(not mapped)")
	}
	return b.String()
}

// hexDump creates a hex dump with ASCII sidebar, addressed from base
func hexDump(base heap.Address, data []byte) string {
	var b strings.Builder
	const bytesPerLine = 16

	for offset := 0; offset < len(data); offset += bytesPerLine {
		fmt.Fprintf(&b, "%s  ", base.Plus(uint64(offset)))

		lineEnd := min(offset+bytesPerLine, len(data))
		for i := offset; i < lineEnd; i++ {
			fmt.Fprintf(&b, "%02x ", data[i])
			if i == offset+7 {
				b.WriteString(" ")
			}
		}

		// Padding for incomplete lines
		remaining := bytesPerLine - (lineEnd - offset)
		b.WriteString(strings.Repeat("   ", remaining))
		if remaining > 8 {
			b.WriteString(" ")
		}

		b.WriteString(" |")
		for i := offset; i < lineEnd; i++ {
			if data[i] >= 32 && data[i] <= 126 {
				b.WriteByte(data[i])
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|")

		if lineEnd < len(data) {
			b.WriteString("\n")
		}
	}
	return b.String()
}
