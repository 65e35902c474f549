package emplace

import "iter"

type integer interface {
	~int | ~int32 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// countFrom yields start, start+1, ... until the consumer stops.
func countFrom[T integer](start T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := start; ; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// failingAllocator refuses every request.
type failingAllocator struct {
	calls int
}

func (f *failingAllocator) Allocate(Layout) (Memory, error) {
	f.calls++
	return Memory{}, ErrOutOfMemory
}

// shortAllocator hands out regions one byte too small.
type shortAllocator struct{}

func (shortAllocator) Allocate(l Layout) (Memory, error) {
	mem, err := Heap.Allocate(l)
	if err != nil {
		return mem, err
	}
	mem.size = l.Size() - 1
	return mem, nil
}

// tracked counts Drop calls through a pointer that outlives the value.
type tracked struct {
	id    int
	drops *int
}

func (t *tracked) Drop() { *t.drops++ }
