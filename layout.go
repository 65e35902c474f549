package emplace

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"reflect"

	"fortio.org/safecast"
)

var (
	// ErrLayoutOverflow is returned when a layout would not fit in the address space.
	ErrLayoutOverflow = errors.New("emplace: layout size overflows address space")
	// ErrBadAlign is returned when an alignment is zero or not a power of two.
	ErrBadAlign = errors.New("emplace: alignment is not a power of two")
)

// maxSize bounds every layout: size rounded up to its alignment must stay
// representable as a non-negative int.
const maxSize = uintptr(math.MaxInt)

// Layout is the size and alignment of a contiguous memory region.
//
// A layout derived from Go types also records how those types compose, so
// the heap can hand out memory the garbage collector scans precisely.
// Layouts built with NewLayout have no shape and are treated as pointer-free.
type Layout struct {
	size  uintptr
	align uintptr
	shape *shape
	ptrs  bool
}

// shape is the recipe for a layout's Go type: a leaf type, an array of a
// shape, or a header shape followed by a tail shape. Building the type
// registers it with reflect for the life of the process, so only
// pointer-bearing layouts placed on the heap are ever built.
type shape struct {
	size uintptr

	typ reflect.Type

	elem   *shape
	count  int
	stride uintptr

	head, tail *shape
	offset     uintptr
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	return layoutOfType(reflect.TypeFor[T]())
}

func layoutOfType(t reflect.Type) Layout {
	return Layout{
		size:  t.Size(),
		align: uintptr(t.Align()),
		shape: &shape{size: t.Size(), typ: t},
		ptrs:  hasPointers(t),
	}
}

// ArrayLayout returns the layout of n consecutive values of T.
func ArrayLayout[T any](n int) (Layout, error) {
	return LayoutOf[T]().Repeat(n)
}

// NewLayout returns a shapeless layout of the given size and alignment.
func NewLayout(size, align uintptr) (Layout, error) {
	if !isPow2(align) {
		return Layout{}, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	if size > maxSize-(align-1) {
		return Layout{}, fmt.Errorf("%w: size %d, align %d", ErrLayoutOverflow, size, align)
	}
	return Layout{size: size, align: align}, nil
}

// Size returns the size in bytes.
func (l Layout) Size() uintptr { return l.size }

// Align returns the alignment in bytes. It is always a power of two for a
// layout produced by this package (the zero Layout reports 0).
func (l Layout) Align() uintptr { return l.align }

// HasPointers reports whether values of this layout hold pointers the
// garbage collector must see.
func (l Layout) HasPointers() bool { return l.ptrs }

// Equal reports whether l and o describe the same size and alignment.
// Shapes are ignored.
func (l Layout) Equal(o Layout) bool {
	return l.size == o.size && l.align == o.align
}

// String formats l as Layout{size: N, align: M}.
func (l Layout) String() string {
	return fmt.Sprintf("Layout{size: %d, align: %d}", l.size, l.align)
}

// PaddingNeededFor returns how many bytes must follow l so that the next
// byte is aligned to align.
func (l Layout) PaddingNeededFor(align uintptr) uintptr {
	up, ok := roundUp(l.size, align)
	if !ok {
		return 0
	}
	return up - l.size
}

// PadToAlign rounds the size up to a multiple of the alignment.
func (l Layout) PadToAlign() Layout {
	l.size += l.PaddingNeededFor(l.align)
	return l
}

// Repeat returns the layout of n copies of l, each padded to l's alignment.
func (l Layout) Repeat(n int) (Layout, error) {
	if !isPow2(l.align) {
		return Layout{}, fmt.Errorf("%w: %d", ErrBadAlign, l.align)
	}
	count, err := safecast.Conv[uint](n)
	if err != nil {
		return Layout{}, fmt.Errorf("emplace: element count %d: %w", n, err)
	}
	stride := l.PadToAlign().size
	hi, total := bits.Mul(uint(stride), count)
	if hi != 0 || uintptr(total) > maxSize-(l.align-1) {
		return Layout{}, fmt.Errorf("%w: %d elements of %d bytes", ErrLayoutOverflow, n, stride)
	}
	out := Layout{
		size:  uintptr(total),
		align: l.align,
		ptrs:  l.ptrs && count > 0,
	}
	if l.shape != nil {
		out.shape = &shape{size: out.size, elem: l.shape, count: n, stride: stride}
	}
	return out, nil
}

// Extend appends next after l. It returns the combined layout, padded to
// the larger of the two alignments, and the offset of next within it. The
// offset is l's size rounded up to next's alignment.
//
// Every header/tail offset in this package is computed here.
func (l Layout) Extend(next Layout) (Layout, uintptr, error) {
	if !isPow2(l.align) || !isPow2(next.align) {
		return Layout{}, 0, fmt.Errorf("%w: extend %s by %s", ErrBadAlign, l, next)
	}
	align := max(l.align, next.align)
	offset, ok := roundUp(l.size, next.align)
	if !ok || next.size > maxSize-offset {
		return Layout{}, 0, fmt.Errorf("%w: extend %s by %s", ErrLayoutOverflow, l, next)
	}
	size, ok := roundUp(offset+next.size, align)
	if !ok || size > maxSize-(align-1) {
		return Layout{}, 0, fmt.Errorf("%w: extend %s by %s", ErrLayoutOverflow, l, next)
	}
	out := Layout{
		size:  size,
		align: align,
		ptrs:  l.ptrs || next.ptrs,
	}
	if l.shape != nil && next.shape != nil {
		out.shape = &shape{size: size, head: l.shape, tail: next.shape, offset: offset}
	}
	return out, offset, nil
}

// build returns the Go type s describes, or nil if reflect would place
// some part of it differently than the layout arithmetic did.
func (s *shape) build() reflect.Type {
	switch {
	case s == nil:
		return nil
	case s.typ != nil:
		return s.typ
	case s.elem != nil:
		et := s.elem.build()
		if et == nil || et.Size() != s.stride {
			return nil
		}
		return reflect.ArrayOf(s.count, et)
	default:
		ht, tt := s.head.build(), s.tail.build()
		if ht == nil || tt == nil {
			return nil
		}
		st := reflect.StructOf([]reflect.StructField{
			{Name: "Header", Type: ht},
			{Name: "Tail", Type: tt},
		})
		if st.Field(1).Offset != s.offset {
			return nil
		}
		return st
	}
}

func isPow2(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// roundUp rounds x up to a multiple of align. ok is false on overflow.
func roundUp(x, align uintptr) (uintptr, bool) {
	if align == 0 {
		return x, true
	}
	mask := align - 1
	if x > maxSize-mask {
		return 0, false
	}
	return (x + mask) &^ mask, true
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
