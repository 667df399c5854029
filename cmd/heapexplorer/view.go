package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// View renders the entire UI
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	if m.detail.IsVisible() {
		// Rebuilt on every render; Update returns new models, so a stored
		// background pointer would be stale.
		detailOverlay := overlay.New(
			&m.detail,
			NewMainViewModel(&m),
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return detailOverlay.View()
	}

	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderStatus(),
	)
}

// renderHeader renders the title, image path and navigation trail
func (m Model) renderHeader() string {
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Heap Explorer"),
		"  ",
		pathStyle.Render(fmt.Sprintf("Image: %s", m.path)),
	)
	trail := make([]string, 0, len(m.history)+1)
	for _, a := range m.history {
		trail = append(trail, a.String())
	}
	trail = append(trail, m.current.String())
	return lipgloss.JoinVertical(lipgloss.Left, header, pathStyle.Render(truncate(strings.Join(trail, " > "), m.width)))
}

// renderContent renders the object and edge panes side by side
func (m Model) renderContent() string {
	left := m.width / 2
	right := m.width - left
	paneHeight := max(m.height-6, 3)

	objTitle := paneTitleStyle.Render(fmt.Sprintf("Objects (%d)", len(m.objects)))
	edgeTitle := paneTitleStyle.Render(fmt.Sprintf("Edges of %s (%d)", m.current, len(m.edges)))

	edgeBody := m.edgeList.View()
	if m.err != nil {
		edgeBody = errorStyle.Render("scan failed") + "\n" +
			lipgloss.NewStyle().Width(max(right-4, 1)).Render(m.err.Error())
	}

	objBox, edgeBox := paneStyle, paneStyle
	if m.focusedPane == ObjectPane {
		objBox = activePaneStyle
	} else {
		edgeBox = activePaneStyle
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		objBox.Width(max(left-2, 1)).Height(paneHeight+1).
			Render(lipgloss.JoinVertical(lipgloss.Left, objTitle, m.objList.View())),
		edgeBox.Width(max(right-2, 1)).Height(paneHeight+1).
			Render(lipgloss.JoinVertical(lipgloss.Left, edgeTitle, edgeBody)),
	)
}

// renderStatus renders the status message or the short key help
func (m Model) renderStatus() string {
	if m.statusMessage != "" {
		return statusStyle.Render(statusMessageStyle.Render(m.statusMessage))
	}
	return statusStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// renderHelpOverlay renders the full key reference
func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(modalTitleStyle.Render("Edge colours"))
	b.WriteString("\n")
	b.WriteString(nullStyle.Render("null slot"))
	b.WriteString("  ")
	b.WriteString(offsetStyle.Render("interior (offset) reference"))
	b.WriteString("  ")
	b.WriteString(danglingStyle.Render("referent not mapped"))
	b.WriteString("\n\nPress ? or Esc to close")

	box := modalStyle.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
