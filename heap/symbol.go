package heap

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/heapscan/internal/format"
)

// SymbolName reads the NUL-terminated name of the symbol at sym. Names that
// are not valid UTF-8 are decoded as Latin-1 so they still print.
func SymbolName(mem Memory, sym Address) string {
	start := sym.Plus(format.SymbolNameOffset)
	var b []byte
	for i := range format.MaxSymbolNameLen {
		c := mem.Load8(start.Plus(uint64(i)))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// TypeName returns a printable name for the type t.
func TypeName(rt *Runtime, mem Memory, t Address) string {
	switch {
	case t.IsNull():
		return "<null>"
	case t == rt.BuffTag:
		return "<buffer>"
	case !mem.Mapped(Descriptor(t)):
		return fmt.Sprintf("<type %s>", Descriptor(t))
	}
	tn := DatatypeAt(mem, t).Name()
	if tn.IsNull() || !mem.Mapped(tn) {
		return fmt.Sprintf("<type %s>", Descriptor(t))
	}
	sym := mem.LoadWord(tn.Plus(format.TypeNameNameOffset))
	if sym.IsNull() || !mem.Mapped(sym) {
		return fmt.Sprintf("<type %s>", Descriptor(t))
	}
	return SymbolName(mem, sym)
}
