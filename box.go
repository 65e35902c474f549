package emplace

import "go.uber.org/zap"

// Box exclusively owns a placed value and the memory under it.
type Box[O any] struct {
	p        placement[O]
	released bool
}

// New places init on the Heap and boxes it.
func New[O any](init Initializer[O]) (*Box[O], error) {
	return NewIn[O](Heap, init)
}

// NewIn places init in memory from a and boxes it. On allocation failure
// it returns an *AllocError holding init unconsumed.
func NewIn[O any](a Allocator, init Initializer[O]) (*Box[O], error) {
	p, err := place(a, init)
	if err != nil {
		return nil, err
	}
	return &Box[O]{p: p}, nil
}

// Get returns the handle. It panics after Release.
func (b *Box[O]) Get() O {
	if b.released {
		panic("emplace: use after Release()")
	}
	return b.p.handle
}

// Layout returns the layout the value was placed with.
func (b *Box[O]) Layout() Layout { return b.p.layout }

// Release destroys the value and gives its memory back. Later calls do
// nothing.
func (b *Box[O]) Release() {
	if b.released {
		return
	}
	b.released = true
	Logger().Debug("box released", zap.Stringer("layout", b.p.layout))
	b.p.destroy()
}
