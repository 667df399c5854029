package writer

// MemWriter captures image bytes in memory.
type MemWriter struct {
	Buf []byte
}

var _ Sink = (*MemWriter)(nil)

// WriteImage stores a copy of buf.
func (w *MemWriter) WriteImage(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	return nil
}
