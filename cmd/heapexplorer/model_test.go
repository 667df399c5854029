package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

func TestInitialSelection(t *testing.T) {
	helper, _ := NewTestHelper()
	m := helper.GetModel()
	require.NotEmpty(t, m.objects)
	require.Equal(t, m.objects[0].addr, m.current)
	require.Equal(t, ObjectPane, m.focusedPane)
}

func TestObjectCursorChangesCurrent(t *testing.T) {
	helper, _ := NewTestHelper()
	helper.SendWindowSize(120, 40)

	helper.SendKey(tea.KeyDown)
	m := helper.GetModel()
	require.Equal(t, m.objects[1].addr, m.current)

	helper.SendKeyRune('G')
	m = helper.GetModel()
	require.Equal(t, m.objects[len(m.objects)-1].addr, m.current)

	helper.SendKeyRune('g')
	require.Equal(t, m.objects[0].addr, helper.GetModel().current)
}

func TestFollowEdgesAndBack(t *testing.T) {
	helper, f := NewTestHelper()
	helper.SendWindowSize(120, 40)
	helper.Select(f.vec)

	m := helper.GetModel()
	require.Len(t, m.edges, 2)
	require.Equal(t, "simplevector", m.objects[m.objList.Cursor()].kind)

	// Enter in the object pane moves focus to the edges.
	helper.SendKey(tea.KeyEnter)
	require.Equal(t, EdgePane, helper.GetModel().focusedPane)

	helper.SendKey(tea.KeyEnter)
	m = helper.GetModel()
	require.Equal(t, f.pair, m.current)
	require.Equal(t, []heap.Address{f.vec}, m.history)
	require.Equal(t, m.index[f.pair], m.objList.Cursor())
	require.Len(t, m.edges, 2)
	require.Equal(t, "string", m.edges[0].kind)

	helper.SendKey(tea.KeyDown).SendKey(tea.KeyEnter)
	require.Equal(t, f.y, helper.GetModel().current)

	helper.SendKey(tea.KeyLeft)
	require.Equal(t, f.pair, helper.GetModel().current)
	helper.SendKey(tea.KeyBackspace)
	require.Equal(t, f.vec, helper.GetModel().current)

	helper.SendKey(tea.KeyLeft)
	m = helper.GetModel()
	require.Equal(t, f.vec, m.current)
	require.Equal(t, "at start of history", m.statusMessage)
}

func TestFollowNullEdge(t *testing.T) {
	helper, f := NewTestHelper()
	helper.Select(f.vec)
	helper.SendKey(tea.KeyTab).SendKey(tea.KeyDown).SendKey(tea.KeyEnter)

	m := helper.GetModel()
	require.Equal(t, f.vec, m.current)
	require.Empty(t, m.history)
	require.Equal(t, "null slot", m.statusMessage)
}

func TestScanFailureIsShown(t *testing.T) {
	helper, f := NewTestHelper()
	helper.SendWindowSize(120, 40)
	helper.Select(f.odd)

	m := helper.GetModel()
	require.ErrorIs(t, m.err, scan.ErrUnimplementedWidth)
	require.Empty(t, m.edges)
	require.Contains(t, helper.GetView(), "scan failed")

	// Moving on clears the error.
	helper.Select(f.pair)
	require.NoError(t, helper.GetModel().err)
}

func TestCopyAddress(t *testing.T) {
	var copied []string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	defer func() { copyToClipboard = orig }()

	helper, f := NewTestHelper()
	helper.Select(f.pair)
	helper.SendKeyRune('c')
	require.Equal(t, []string{f.pair.String()}, copied)
	require.Equal(t, "copied "+f.pair.String(), helper.GetModel().statusMessage)

	helper.SendKey(tea.KeyTab).SendKey(tea.KeyDown).SendKeyRune('y')
	require.Equal(t, f.y.String(), copied[1])
}

func TestCopyFailure(t *testing.T) {
	orig := copyToClipboard
	copyToClipboard = func(string) error { return errors.New("no clipboard") }
	defer func() { copyToClipboard = orig }()

	helper, _ := NewTestHelper()
	helper.SendKeyRune('c')
	require.Equal(t, "copy failed: no clipboard", helper.GetModel().statusMessage)
}

func TestHelpToggle(t *testing.T) {
	helper, _ := NewTestHelper()
	helper.SendWindowSize(120, 40)

	helper.SendKeyRune('?')
	require.True(t, helper.GetModel().showHelp)
	require.Contains(t, helper.GetView(), "Keyboard Shortcuts")

	// Other keys are swallowed while help is up.
	cur := helper.GetModel().current
	helper.SendKey(tea.KeyDown)
	require.Equal(t, cur, helper.GetModel().current)

	helper.SendKeyRune('?')
	require.False(t, helper.GetModel().showHelp)

	helper.SendKeyRune('?').SendKey(tea.KeyEsc)
	require.False(t, helper.GetModel().showHelp)
}

func TestDetailOverlay(t *testing.T) {
	helper, f := NewTestHelper()
	helper.SendWindowSize(120, 40)
	helper.Select(f.pair)

	helper.SendKeyRune('d')
	m := helper.GetModel()
	require.True(t, m.detail.IsVisible())
	view := helper.GetView()
	require.Contains(t, view, "Object "+f.pair.String())
	require.Contains(t, view, "Pattern:")
	require.Contains(t, view, "Memory:")

	helper.SendKey(tea.KeyEsc)
	m = helper.GetModel()
	require.False(t, m.detail.IsVisible())
}

func TestDetailDescribesFailures(t *testing.T) {
	helper, f := NewTestHelper()
	helper.Select(f.odd)
	text := helper.model.describe(f.odd)
	require.Contains(t, text, "Type:      Odd")
	require.Contains(t, text, "unimplemented field descriptor width")
	require.Contains(t, text, "Memory:")
}

func TestViewRendersPanes(t *testing.T) {
	helper, f := NewTestHelper()
	helper.SendWindowSize(120, 40)
	helper.Select(f.pair)

	view := helper.GetView()
	for _, want := range []string{"Heap Explorer", "Image: test.img", "Objects (", "Edges of " + f.pair.String(), "Pair"} {
		require.Contains(t, view, want)
	}
}

func TestQuit(t *testing.T) {
	helper, _ := NewTestHelper()
	helper.SendKeyRune('q')
	require.NotNil(t, helper.cmd)
	_, ok := helper.cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func TestHexDump(t *testing.T) {
	out := hexDump(0x1000, []byte("ABCDEFGHIJKLMNOPQ"))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "0x1000  41 42 43"))
	require.True(t, strings.HasSuffix(lines[0], "|ABCDEFGHIJKLMNOP|"))
	require.True(t, strings.HasPrefix(lines[1], "0x1010  51 "))
	require.True(t, strings.HasSuffix(lines[1], "|Q|"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
	require.Equal(t, "anything", truncate("anything", 0))
}
