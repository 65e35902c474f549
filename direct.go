package emplace

// Direct places a sized value as is.
type Direct[T any] struct {
	v T
	once
}

// NewDirect returns an initializer that moves v into place.
func NewDirect[T any](v T) *Direct[T] {
	return &Direct[T]{v: v}
}

// Layout implements Initializer. It is the layout of T.
func (d *Direct[T]) Layout() Layout {
	d.check()
	return LayoutOf[T]()
}

// Emplace implements Initializer by moving the value into mem.
func (d *Direct[T]) Emplace(mem Memory) *T {
	d.consume()
	p := Store(mem, d.v)
	var zero T
	d.v = zero
	return p
}

// Fallback consumes d without placing it and returns the held value.
func (d *Direct[T]) Fallback() T {
	d.consume()
	v := d.v
	var zero T
	d.v = zero
	return v
}
