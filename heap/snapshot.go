package heap

// Snapshot is a self-contained heap: memory, the runtime description needed
// to interpret it, and the addresses of the objects it holds.
type Snapshot struct {
	Mem     *Image
	Runtime *Runtime

	// Objects lists every object in allocation order.
	Objects []Address

	// StackBases maps thread ids to the top of each thread's stack. Only
	// tasks on copied stacks consult it.
	StackBases map[int16]Address

	// CopyStacks records that the runtime was built with copied stacks.
	CopyStacks bool
}
