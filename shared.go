package emplace

import (
	"sync/atomic"

	"go.uber.org/zap"
)

type sharedBox[O any] struct {
	refs atomic.Int64
	p    placement[O]
}

// Shared is one reference to a reference-counted placed value. Each
// reference is released once; the last release destroys the value.
// Shared is safe for concurrent use.
type Shared[O any] struct {
	box      *sharedBox[O]
	released atomic.Bool
}

// NewShared places init on the Heap and returns the first reference to it.
func NewShared[O any](init Initializer[O]) (*Shared[O], error) {
	return NewSharedIn[O](Heap, init)
}

// NewSharedIn places init in memory from a and returns the first reference
// to it. On allocation failure it returns an *AllocError holding init
// unconsumed.
func NewSharedIn[O any](a Allocator, init Initializer[O]) (*Shared[O], error) {
	p, err := place(a, init)
	if err != nil {
		return nil, err
	}
	box := &sharedBox[O]{p: p}
	box.refs.Store(1)
	return &Shared[O]{box: box}, nil
}

// Clone returns a new reference to the same value.
func (s *Shared[O]) Clone() *Shared[O] {
	s.live()
	s.box.refs.Add(1)
	return &Shared[O]{box: s.box}
}

// Get returns the handle. It panics after this reference is released.
func (s *Shared[O]) Get() O {
	s.live()
	return s.box.p.handle
}

// Refs returns the number of live references.
func (s *Shared[O]) Refs() int64 {
	return s.box.refs.Load()
}

// Release drops this reference. Later calls on the same reference do
// nothing.
func (s *Shared[O]) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.box.refs.Add(-1) == 0 {
		Logger().Debug("shared value released", zap.Stringer("layout", s.box.p.layout))
		s.box.p.destroy()
	}
}

func (s *Shared[O]) live() {
	if s.released.Load() {
		panic("emplace: use after Release()")
	}
}
