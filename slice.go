package emplace

import (
	"fmt"
	"iter"
	"unsafe"
)

// SliceIter fills a variable-length array from an iterator, writing each
// element straight to its final address.
type SliceIter[T any] struct {
	n      int
	seq    iter.Seq[T]
	layout Layout
	once
}

// NewSliceIter returns an initializer for an array of n elements drawn
// from seq. seq must yield at least n elements; extra ones are not pulled.
func NewSliceIter[T any](n int, seq iter.Seq[T]) (*SliceIter[T], error) {
	l, err := ArrayLayout[T](n)
	if err != nil {
		return nil, err
	}
	return &SliceIter[T]{n: n, seq: seq, layout: l}, nil
}

// Layout implements Initializer. It is the layout of n elements of T.
func (s *SliceIter[T]) Layout() Layout {
	s.check()
	return s.layout
}

// Emplace panics if seq runs dry before n elements were written.
func (s *SliceIter[T]) Emplace(mem Memory) []T {
	s.consume()
	out := sliceIn[T](mem, s.layout, s.n)
	i := 0
	if s.n > 0 {
		for v := range s.seq {
			out[i] = v
			i++
			if i == s.n {
				break
			}
		}
	}
	if i < s.n {
		panic(fmt.Sprintf("emplace: iterator yielded %d of %d elements", i, s.n))
	}
	s.seq = nil
	return out
}

// Fallback consumes s without placing it and returns its count and iterator.
func (s *SliceIter[T]) Fallback() (int, iter.Seq[T]) {
	s.consume()
	seq := s.seq
	s.seq = nil
	return s.n, seq
}

// SliceFunc fills a variable-length array by calling a generator once per
// element.
type SliceFunc[T any] struct {
	n      int
	f      func() T
	layout Layout
	once
}

// NewSliceFunc returns an initializer for an array of n results of f.
func NewSliceFunc[T any](n int, f func() T) (*SliceFunc[T], error) {
	l, err := ArrayLayout[T](n)
	if err != nil {
		return nil, err
	}
	return &SliceFunc[T]{n: n, f: f, layout: l}, nil
}

// Layout implements Initializer. It is the layout of n elements of T.
func (s *SliceFunc[T]) Layout() Layout {
	s.check()
	return s.layout
}

// Emplace implements Initializer, calling f once per element in order.
func (s *SliceFunc[T]) Emplace(mem Memory) []T {
	s.consume()
	out := sliceIn[T](mem, s.layout, s.n)
	for i := range out {
		out[i] = s.f()
	}
	s.f = nil
	return out
}

// Fallback consumes s without placing it and returns its count and generator.
func (s *SliceFunc[T]) Fallback() (int, func() T) {
	s.consume()
	f := s.f
	s.f = nil
	return s.n, f
}

// sliceIn views the start of mem as n elements of T.
func sliceIn[T any](mem Memory, l Layout, n int) []T {
	mem.require(l)
	return unsafe.Slice((*T)(mem.base()), n)
}
