package heap

// View is a typed window onto foreign memory: a base address plus the Memory
// it lives in. Traversal code reads fields through a View instead of doing
// its own address arithmetic.
type View struct {
	mem  Memory
	base Address
}

// NewView returns a view of the object at base.
func NewView(mem Memory, base Address) View {
	return View{mem: mem, base: base}
}

func (v View) Base() Address  { return v.base }
func (v View) Memory() Memory { return v.mem }

// FieldAt returns the address of the field at byte offset off.
func (v View) FieldAt(off int) Address { return v.base.Offset(int64(off)) }

// Slot returns the address of the i-th word of the object.
func (v View) Slot(i int) Address { return v.base.Shift(i) }

// Word loads the word at byte offset off.
func (v View) Word(off int) Address { return v.mem.LoadWord(v.FieldAt(off)) }

func (v View) U8(off int) uint8   { return v.mem.Load8(v.FieldAt(off)) }
func (v View) U16(off int) uint16 { return v.mem.Load16(v.FieldAt(off)) }
func (v View) U32(off int) uint32 { return v.mem.Load32(v.FieldAt(off)) }
func (v View) I16(off int) int16  { return int16(v.U16(off)) }
func (v View) I32(off int) int32  { return int32(v.U32(off)) }

// Follow returns a view of the object referenced by the word at off.
func (v View) Follow(off int) View { return NewView(v.mem, v.Word(off)) }
