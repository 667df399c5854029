package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type objectList []objectRow

func (l objectList) Len() int { return len(l) }

func (l objectList) Row(i int, selected bool, width int) string {
	r := l[i]
	line := fmt.Sprintf("%-12s %-12s %s", r.addr, r.kind, r.typ)
	if selected {
		return selectedStyle.Width(width).Render(truncate(line, width))
	}
	return fmt.Sprintf("%-12s %s %s", r.addr, kindStyle(r.kind).Render(fmt.Sprintf("%-12s", r.kind)), truncate(r.typ, width-26))
}

type edgeList []edgeRow

func (l edgeList) Len() int { return len(l) }

func (l edgeList) Row(i int, selected bool, width int) string {
	r := l[i]
	slot := r.edge.String()
	var target string
	switch {
	case r.ref.IsNull():
		target = "null"
	case !r.mapped:
		target = fmt.Sprintf("%s (unmapped)", r.ref)
	default:
		target = fmt.Sprintf("%s %s %s", r.ref, r.kind, r.typ)
	}
	line := fmt.Sprintf("%-16s -> %s", slot, target)
	if selected {
		return selectedStyle.Width(width).Render(truncate(line, width))
	}
	switch {
	case r.ref.IsNull():
		return nullStyle.Render(truncate(line, width))
	case !r.mapped:
		return danglingStyle.Render(truncate(line, width))
	case r.edge.Offset != 0:
		return offsetStyle.Render(truncate(line, width))
	}
	return truncate(line, width)
}

// truncate shortens s to at most width cells.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > width-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
