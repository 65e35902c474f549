package emplace

import (
	"errors"
	"fmt"
	"math/bits"
	"reflect"
	"unsafe"

	"go.uber.org/zap"
)

var (
	// ErrOutOfMemory is returned by allocators that cannot satisfy a request.
	ErrOutOfMemory = errors.New("emplace: out of memory")
	// ErrPointerLayout is returned by allocators whose memory the garbage
	// collector does not scan when asked for a layout that holds pointers.
	ErrPointerLayout = errors.New("emplace: layout holds pointers the allocator cannot track")
)

// Allocator hands out memory regions for layouts.
type Allocator interface {
	// Allocate returns a region at least l.Size() bytes long and aligned
	// to l.Align(), or an error leaving no memory claimed.
	Allocate(l Layout) (Memory, error)
}

// Deallocator is implemented by allocators that want regions back once the
// value in them is destroyed.
type Deallocator interface {
	Deallocate(mem Memory, l Layout)
}

// Dropper is implemented by handles that need a hook run before their
// memory is released by Box or Shared.
type Dropper interface {
	Drop()
}

// AllocError reports an allocation failure. Init is the initializer that
// was about to be placed; it has not been consumed and may be retried
// against another allocator.
type AllocError[O any] struct {
	Layout Layout
	Err    error
	Init   Initializer[O]
}

// Error implements error.
func (e *AllocError[O]) Error() string {
	return fmt.Sprintf("emplace: allocate %s: %v", e.Layout, e.Err)
}

// Unwrap returns the allocator's error.
func (e *AllocError[O]) Unwrap() error { return e.Err }

// EmplaceIn allocates memory for init from a and places init in it.
// On allocation failure it returns an *AllocError holding init unconsumed.
func EmplaceIn[O any](a Allocator, init Initializer[O]) (O, error) {
	p, err := place(a, init)
	return p.handle, err
}

// Emplace is EmplaceIn on the Heap.
func Emplace[O any](init Initializer[O]) (O, error) {
	return EmplaceIn[O](Heap, init)
}

// placement is a placed value together with what is needed to destroy it.
type placement[O any] struct {
	handle O
	mem    Memory
	layout Layout
	alloc  Allocator
}

func place[O any](a Allocator, init Initializer[O]) (placement[O], error) {
	l := init.Layout()
	mem, err := a.Allocate(l)
	if err != nil {
		Logger().Debug("allocation failed", zap.Stringer("layout", l), zap.Error(err))
		return placement[O]{}, &AllocError[O]{Layout: l, Err: err, Init: init}
	}
	mem.require(l)
	return placement[O]{
		handle: init.Emplace(mem),
		mem:    mem,
		layout: l,
		alloc:  a,
	}, nil
}

// destroy runs the drop hook, clears the region and returns it to the
// allocator.
func (p *placement[O]) destroy() {
	if d, ok := any(p.handle).(Dropper); ok {
		d.Drop()
	}
	var zero O
	p.handle = zero
	p.mem.zero(p.layout)
	if d, ok := p.alloc.(Deallocator); ok {
		d.Deallocate(p.mem, p.layout)
	}
	p.mem = Memory{}
}

// maxAlloc is the largest single allocation the Go runtime can serve.
// Larger requests abort the process instead of failing.
const maxAlloc = uintptr(1) << min(47, bits.UintSize-1)

// HeapAllocator allocates from the Go heap. Layouts holding pointers get a
// value of their shape, scanned by the garbage collector; everything else
// gets an aligned pointer-free buffer. Regions are zeroed and reclaimed by
// the collector, so there is no Deallocate.
type HeapAllocator struct{}

// Heap is the process-wide allocator.
var Heap HeapAllocator

// Allocate implements Allocator. Requests past what the runtime can
// allocate fail with ErrOutOfMemory.
func (HeapAllocator) Allocate(l Layout) (Memory, error) {
	if l.size == 0 {
		return Memory{ptr: unsafe.Pointer(&zeroBase)}, nil
	}
	if l.size+l.align > maxAlloc {
		return Memory{}, fmt.Errorf("%w: %d bytes exceeds the heap limit of %d", ErrOutOfMemory, l.size, maxAlloc)
	}
	if !l.ptrs {
		return alignedBuffer(l.size, l.align), nil
	}
	return scannedValue(l)
}

// scannedValue allocates a Go value covering l. An array of a plain type
// is allocated as a slice, which needs no new array type.
func scannedValue(l Layout) (Memory, error) {
	s := l.shape
	if s != nil && s.elem != nil && s.elem.typ != nil && s.elem.typ.Size() == s.stride {
		v := reflect.MakeSlice(reflect.SliceOf(s.elem.typ), s.count, s.count)
		return Memory{ptr: v.UnsafePointer(), size: l.size, room: l.size, scanned: true}, nil
	}
	t := s.build()
	if t == nil || t.Size() < l.size || uintptr(t.Align()) < l.align {
		return Memory{}, ErrPointerLayout
	}
	v := reflect.New(t)
	return Memory{ptr: v.UnsafePointer(), size: t.Size(), room: t.Size(), scanned: true}, nil
}

// alignedBuffer over-allocates a word slice and trims it to an aligned
// start, the way aligned mallocs are built on top of make. One spare byte
// keeps the end address inside the buffer.
func alignedBuffer(size, align uintptr) Memory {
	const word = unsafe.Sizeof(uint64(0))
	extra := uintptr(0)
	if align > word {
		extra = align - word
	}
	buf := make([]uint64, (size+extra+word)/word)
	base := unsafe.Pointer(unsafe.SliceData(buf))
	off := (align - uintptr(base)%align) % align
	return Memory{ptr: unsafe.Add(base, off), size: size, room: uintptr(len(buf))*word - off}
}
