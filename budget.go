package emplace

import (
	"fmt"
	"sync/atomic"
)

// Budget caps the bytes an allocator may have outstanding. Requests past
// the cap fail with ErrOutOfMemory. Budget is safe for concurrent use if
// the wrapped allocator is.
type Budget struct {
	a     Allocator
	limit uintptr
	used  atomic.Uintptr
}

// NewBudget wraps a with a limit of limit bytes.
func NewBudget(a Allocator, limit uintptr) *Budget {
	return &Budget{a: a, limit: limit}
}

// Allocate implements Allocator, charging l.Size() before asking the
// wrapped allocator.
func (b *Budget) Allocate(l Layout) (Memory, error) {
	for {
		cur := b.used.Load()
		if l.size > b.limit-cur {
			return Memory{}, fmt.Errorf("%w: %d of %d bytes in use, %d requested",
				ErrOutOfMemory, cur, b.limit, l.size)
		}
		if b.used.CompareAndSwap(cur, cur+l.size) {
			break
		}
	}
	mem, err := b.a.Allocate(l)
	if err != nil {
		b.used.Add(^(l.size - 1))
		return Memory{}, err
	}
	return mem, nil
}

// Deallocate implements Deallocator and refunds the charge.
func (b *Budget) Deallocate(mem Memory, l Layout) {
	if d, ok := b.a.(Deallocator); ok {
		d.Deallocate(mem, l)
	}
	b.used.Add(^(l.size - 1))
}

// Used returns the bytes currently charged against the budget.
func (b *Budget) Used() uintptr { return b.used.Load() }

// Limit returns the budget in bytes.
func (b *Budget) Limit() uintptr { return b.limit }
