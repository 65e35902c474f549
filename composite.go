package emplace

import "unsafe"

// Dst is a handle to a header H followed in the same allocation by a tail
// whose handle is M. M carries whatever the tail needs to be used: a
// length for []T, a method table for an interface, or another Dst when
// composites nest.
type Dst[H, M any] struct {
	header *H
	tail   M
}

// Header returns the header.
func (d Dst[H, M]) Header() *H { return d.header }

// Tail returns the tail handle.
func (d Dst[H, M]) Tail() M { return d.tail }

// Pointer returns the start of the composite, which is also the header.
func (d Dst[H, M]) Pointer() unsafe.Pointer { return unsafe.Pointer(d.header) }

// Composite places a header and then a tail built by a nested initializer.
// The tail may itself be a Composite; each level extends the layout of the
// one below it.
type Composite[H, M any] struct {
	header H
	tail   Initializer[M]
	once
}

// NewComposite returns an initializer for header followed by tail.
//
// Code that declares a composite type C with header H and tail handle M
// uses Composite[H, M] as C's initializer, whatever strategy builds the tail.
func NewComposite[H, M any](header H, tail Initializer[M]) *Composite[H, M] {
	return &Composite[H, M]{header: header, tail: tail}
}

// Layout panics if the combined layout overflows the address space.
func (c *Composite[H, M]) Layout() Layout {
	c.check()
	l, _, _ := c.extend()
	return l
}

// Emplace implements Initializer: the header goes at the start of mem and
// the tail at the offset Extend gives it.
func (c *Composite[H, M]) Emplace(mem Memory) Dst[H, M] {
	c.consume()
	whole, off, tl := c.extend()
	mem.require(whole)
	h := Store(mem, c.header)
	tail := c.tail.Emplace(mem.Slice(off, tl.size))
	var zero H
	c.header = zero
	c.tail = nil
	return Dst[H, M]{header: h, tail: tail}
}

// Fallback consumes c without placing it and returns the header and the
// untouched tail initializer.
func (c *Composite[H, M]) Fallback() (H, Initializer[M]) {
	c.consume()
	h, tail := c.header, c.tail
	var zero H
	c.header = zero
	c.tail = nil
	return h, tail
}

// extend returns the whole layout, the tail offset and the tail layout.
func (c *Composite[H, M]) extend() (Layout, uintptr, Layout) {
	tl := c.tail.Layout()
	whole, off, err := LayoutOf[H]().Extend(tl)
	if err != nil {
		panic(err)
	}
	return whole, off, tl
}
