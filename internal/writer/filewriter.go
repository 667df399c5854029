// Package writer exposes sinks for heap image emission.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a fully encoded heap image.
type Sink interface {
	WriteImage(buf []byte) error
}

// FileWriter replaces the file at Path with an encoded image. Readers that
// have the old image mapped keep seeing it; new opens see the new one.
type FileWriter struct {
	Path string

	// Perm is applied to the new file. Zero means 0o644.
	Perm os.FileMode
}

var _ Sink = (*FileWriter)(nil)

// WriteImage stages buf in a temporary file next to Path and renames it
// into place once it is on disk.
func (w *FileWriter) WriteImage(buf []byte) error {
	// Same directory, so the rename cannot cross filesystems
	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, ".heapscan-img-*")
	if err != nil {
		return fmt.Errorf("writer: stage %s: %w", w.Path, err)
	}
	staged := tmp.Name()

	// Drop the staged file on any early return
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(staged)
		}
	}()

	if _, err := tmp.Write(buf); err != nil {
		return fmt.Errorf("writer: write %s: %w", staged, err)
	}
	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	// CreateTemp always uses 0600
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("writer: chmod %s: %w", staged, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("writer: sync %s: %w", staged, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writer: close %s: %w", staged, err)
	}

	if err := os.Rename(staged, w.Path); err != nil {
		return fmt.Errorf("writer: replace %s: %w", w.Path, err)
	}
	committed = true
	return nil
}
