// Package virtuallist renders the visible window of arbitrarily long lists.
package virtuallist

import "strings"

// List is implemented by anything the Renderer can draw.
type List interface {
	// Len returns the number of rows.
	Len() int

	// Row renders row i. selected is set for the cursor row.
	Row(i int, selected bool, width int) string
}

// Renderer keeps a cursor and a scroll offset over a List and renders only
// the rows that fit its height, so cost does not grow with list length.
type Renderer struct {
	list   List
	cursor int
	offset int
	width  int
	height int

	// Empty is shown when the list has no rows.
	Empty string
}

// New returns a renderer over list.
func New(list List) *Renderer {
	return &Renderer{list: list, Empty: "(empty)"}
}

// SetList swaps the underlying list and resets the cursor.
func (r *Renderer) SetList(list List) {
	r.list = list
	r.cursor, r.offset = 0, 0
}

// SetSize updates the drawable area.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	r.clamp()
}

// Cursor returns the selected row.
func (r *Renderer) Cursor() int { return r.cursor }

// Offset returns the first visible row.
func (r *Renderer) Offset() int { return r.offset }

// SetCursor moves the cursor to i, clamped to the list, and scrolls so it
// stays visible.
func (r *Renderer) SetCursor(i int) {
	r.cursor = i
	r.clamp()
}

// Move shifts the cursor by delta rows.
func (r *Renderer) Move(delta int) { r.SetCursor(r.cursor + delta) }

// Page returns the number of rows moved by a page up or down.
func (r *Renderer) Page() int { return max(r.visible()-1, 1) }

func (r *Renderer) visible() int {
	if r.height <= 0 {
		return 20
	}
	return r.height
}

func (r *Renderer) clamp() {
	n := r.list.Len()
	r.cursor = min(max(r.cursor, 0), max(n-1, 0))
	h := r.visible()
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+h {
		r.offset = r.cursor - h + 1
	}
	r.offset = min(max(r.offset, 0), max(n-h, 0))
}

// View renders the visible rows.
func (r *Renderer) View() string {
	n := r.list.Len()
	if n == 0 {
		return r.Empty
	}
	end := min(r.offset+r.visible(), n)
	var b strings.Builder
	for i := r.offset; i < end; i++ {
		b.WriteString(r.list.Row(i, i == r.cursor, r.width))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
