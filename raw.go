package emplace

// Raw places a value with a caller-written routine. The routine must
// initialize a complete value within the region and return a handle whose
// metadata describes it; nothing here can check that.
type Raw[O any] struct {
	layout Layout
	write  func(Memory) O
	once
}

// NewRaw returns an initializer reporting l and delegating placement to
// write. write receives a region exactly l.Size() bytes long, so writes made
// through Store, At or Memory.Slice are bounds checked.
//
// Use a layout derived from LayoutOf (or built from one) when the value
// holds pointers; shapeless layouts get memory the collector does not scan.
func NewRaw[O any](l Layout, write func(Memory) O) *Raw[O] {
	return &Raw[O]{layout: l, write: write}
}

// Layout implements Initializer.
func (r *Raw[O]) Layout() Layout {
	r.check()
	return r.layout
}

// Emplace implements Initializer by calling the writer once.
func (r *Raw[O]) Emplace(mem Memory) O {
	r.consume()
	mem.require(r.layout)
	write := r.write
	r.write = nil
	return write(mem.Slice(0, r.layout.size))
}
