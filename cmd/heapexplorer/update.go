package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapscan/internal/logger"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.help.Width = msg.Width
		_, cmd := m.detail.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// If help is showing, only keys that dismiss it are handled
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	// The detail modal scrolls; Esc or the detail key closes it
	if m.detail.IsVisible() {
		switch {
		case key.Matches(msg, m.keys.Esc), key.Matches(msg, m.keys.Detail):
			m.detail.Hide()
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		_, cmd := m.detail.Update(msg)
		return m, cmd
	}

	list := m.objList
	if m.focusedPane == EdgePane {
		list = m.edgeList
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == ObjectPane {
			m.focusedPane = EdgePane
		} else {
			m.focusedPane = ObjectPane
		}

	case key.Matches(msg, m.keys.Up):
		list.Move(-1)
	case key.Matches(msg, m.keys.Down):
		list.Move(1)
	case key.Matches(msg, m.keys.PageUp):
		list.Move(-list.Page())
	case key.Matches(msg, m.keys.PageDown):
		list.Move(list.Page())
	case key.Matches(msg, m.keys.Home):
		list.SetCursor(0)
	case key.Matches(msg, m.keys.End):
		list.SetCursor(len(m.objects) + len(m.edges))

	case key.Matches(msg, m.keys.Enter):
		if m.focusedPane == ObjectPane {
			m.focusedPane = EdgePane
			return m, nil
		}
		m.follow()
		logger.Debug("follow edge", "current", m.current, "depth", len(m.history))
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.back()
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		m.detail.Show(fmt.Sprintf("Object %s", m.current), m.describe(m.current))
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
		return m, nil

	case key.Matches(msg, m.keys.Esc):
		m.statusMessage = ""
		return m, nil
	}

	// Moving in the object pane changes the current object
	if m.focusedPane == ObjectPane && len(m.objects) > 0 {
		if obj := m.objects[m.objList.Cursor()].addr; obj != m.current {
			m.history = m.history[:0]
			m.load(obj)
		}
	}
	return m, nil
}

// copySelection copies the address under the cursor: the object in the
// object pane, the referent in the edge pane.
func (m *Model) copySelection() {
	addr := m.current
	if m.focusedPane == EdgePane && len(m.edges) > 0 {
		addr = m.edges[m.edgeList.Cursor()].ref
	}
	if err := copyToClipboard(addr.String()); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		m.statusMessage = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.statusMessage = fmt.Sprintf("copied %s", addr)
}

// resize distributes the window between the two panes.
func (m *Model) resize() {
	paneHeight := max(m.height-6, 3)
	left := m.width / 2
	m.objList.SetSize(left-4, paneHeight)
	m.edgeList.SetSize(m.width-left-4, paneHeight)
}
