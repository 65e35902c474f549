package emplace

import (
	"fmt"
	"reflect"
	"unsafe"
)

// zeroBase is the address handed out for zero-sized regions.
var zeroBase uint64

// Memory is a region an initializer writes into. It does not own the
// bytes; whoever allocated the region keeps it alive.
//
// A scanned region was allocated with a Go type covering it, so pointers
// stored in it are visible to the garbage collector. Pointer-bearing
// values may only be stored in scanned regions.
//
// room is how many bytes from ptr belong to the same underlying
// allocation, which may be more than size.
type Memory struct {
	ptr     unsafe.Pointer
	size    uintptr
	room    uintptr
	scanned bool
}

// MemoryOf returns the region occupied by *p. The region is scanned.
func MemoryOf[T any](p *T) Memory {
	n := unsafe.Sizeof(*p)
	return Memory{ptr: unsafe.Pointer(p), size: n, room: n, scanned: true}
}

// Pointer returns the start address of the region.
func (m Memory) Pointer() unsafe.Pointer { return m.ptr }

// Size returns the region size in bytes.
func (m Memory) Size() uintptr { return m.size }

// Scanned reports whether the garbage collector sees pointers stored in m.
func (m Memory) Scanned() bool { return m.scanned }

// Fits reports whether m is large enough and aligned enough for l.
// Any region fits a zero-sized layout.
func (m Memory) Fits(l Layout) bool {
	if l.size == 0 {
		return true
	}
	if m.ptr == nil || m.size < l.size {
		return false
	}
	return l.align == 0 || uintptr(m.ptr)%l.align == 0
}

// Slice returns the sub-region [off, off+size). It panics if the
// sub-region does not lie inside m.
//
// An empty sub-region starts at m+off like any other. Only when that
// address is past the end of the underlying allocation does it get the
// shared zero-size address instead.
func (m Memory) Slice(off, size uintptr) Memory {
	if off > m.size || size > m.size-off {
		panic(fmt.Sprintf("emplace: slice [%d:%d] out of region of %d bytes", off, off+size, m.size))
	}
	room := max(m.room, m.size)
	if size == 0 && (m.ptr == nil || off >= room) {
		return Memory{ptr: unsafe.Pointer(&zeroBase), scanned: m.scanned}
	}
	return Memory{ptr: unsafe.Add(m.ptr, off), size: size, room: room - off, scanned: m.scanned}
}

// Bytes exposes the region as a byte slice. It must not be used to write
// pointer words.
func (m Memory) Bytes() []byte {
	if m.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(m.ptr), m.size)
}

// base is the start address, never nil.
func (m Memory) base() unsafe.Pointer {
	if m.ptr == nil {
		return unsafe.Pointer(&zeroBase)
	}
	return m.ptr
}

// require panics unless a value of layout l may be written to m.
func (m Memory) require(l Layout) {
	if !m.Fits(l) {
		panic(fmt.Sprintf("emplace: region of %d bytes at %#x does not fit %s",
			m.size, uintptr(m.ptr), l))
	}
	if l.ptrs && !m.scanned {
		panic(fmt.Sprintf("emplace: %s holds pointers but region is not scanned", l))
	}
}

// zero clears the region previously occupied by a value of layout l.
// Scanned regions are cleared through their types so the write barrier
// sees every pointer store; without a shape they are left alone.
func (m Memory) zero(l Layout) {
	if m.size == 0 || l.size == 0 {
		return
	}
	if m.scanned {
		if l.shape != nil && l.shape.size <= m.size {
			clearShape(m.ptr, l.shape)
		}
		return
	}
	clear(m.Bytes()[:l.size])
}

// clearShape zeroes the value s describes at p, leaf by leaf. It never
// builds a type.
func clearShape(p unsafe.Pointer, s *shape) {
	if s.size == 0 {
		return
	}
	switch {
	case s.typ != nil:
		reflect.NewAt(s.typ, p).Elem().SetZero()
	case s.elem != nil:
		if et := s.elem.typ; et != nil && et.Size() == s.stride {
			reflect.SliceAt(et, p, s.count).Clear()
			return
		}
		for i := range s.count {
			clearShape(unsafe.Add(p, uintptr(i)*s.stride), s.elem)
		}
	default:
		clearShape(p, s.head)
		if s.tail.size != 0 {
			clearShape(unsafe.Add(p, s.offset), s.tail)
		}
	}
}

// Store writes v at the start of m and returns a typed pointer to it.
func Store[T any](m Memory, v T) *T {
	m.require(LayoutOf[T]())
	p := (*T)(m.base())
	*p = v
	return p
}

// At reinterprets the start of m as a *T.
func At[T any](m Memory) *T {
	m.require(LayoutOf[T]())
	return (*T)(m.base())
}
