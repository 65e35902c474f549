package emplace

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndAt(t *testing.T) {
	var slot fstStruct
	mem := MemoryOf(&slot)
	assert.True(t, mem.Scanned())
	assert.Equal(t, unsafe.Sizeof(slot), mem.Size())

	want := fstStruct{a: 159, b: 47521, c: 12345.12345}
	p := Store(mem, want)
	assert.Equal(t, unsafe.Pointer(&slot), unsafe.Pointer(p))
	assert.Equal(t, want, slot)
	assert.Equal(t, want, *At[fstStruct](mem))
}

func TestMemorySlice(t *testing.T) {
	var buf [4]uint64
	mem := MemoryOf(&buf)

	sub := mem.Slice(8, 16)
	assert.Equal(t, uintptr(16), sub.Size())
	assert.Equal(t, unsafe.Pointer(&buf[1]), sub.Pointer())
	Store(sub, uint64(7))
	assert.Equal(t, uint64(7), buf[1])

	inner := mem.Slice(16, 0)
	assert.Equal(t, uintptr(0), inner.Size())
	assert.Equal(t, unsafe.Pointer(&buf[2]), inner.Pointer())

	// The end address is past the allocation, so it is not handed out.
	empty := mem.Slice(32, 0)
	assert.Equal(t, uintptr(0), empty.Size())
	assert.NotNil(t, empty.Pointer())
	assert.NotEqual(t, unsafe.Add(unsafe.Pointer(&buf), 32), empty.Pointer())

	assert.Panics(t, func() { mem.Slice(24, 16) })
	assert.Panics(t, func() { mem.Slice(33, 0) })
}

func TestMemoryFits(t *testing.T) {
	var buf [2]uint64
	mem := MemoryOf(&buf)

	assert.True(t, mem.Fits(LayoutOf[[2]uint64]()))
	assert.False(t, mem.Fits(LayoutOf[[3]uint64]()))

	odd := mem.Slice(1, 8)
	assert.True(t, odd.Fits(LayoutOf[uint8]()))
	assert.False(t, odd.Fits(LayoutOf[uint32]()))
	assert.True(t, odd.Fits(LayoutOf[struct{}]()))
	assert.True(t, Memory{}.Fits(LayoutOf[[0]uint64]()))
	assert.False(t, Memory{}.Fits(LayoutOf[uint8]()))

	assert.Panics(t, func() { Store(odd, uint32(1)) })
	assert.Panics(t, func() { Store(mem.Slice(0, 4), uint64(1)) })
}

func TestStoreZeroSized(t *testing.T) {
	p := Store(Memory{}, struct{}{})
	assert.NotNil(t, p)
}

func TestStorePointersNeedScannedMemory(t *testing.T) {
	l, err := NewLayout(16, 8)
	require.NoError(t, err)
	mem, err := Heap.Allocate(l)
	require.NoError(t, err)
	require.False(t, mem.Scanned())

	assert.Panics(t, func() { Store(mem, "not here") })
	assert.NotPanics(t, func() { Store(mem, [2]uint64{1, 2}) })
}

func TestMemoryBytes(t *testing.T) {
	var v uint32
	mem := MemoryOf(&v)
	b := mem.Bytes()
	require.Len(t, b, 4)
	for i := range b {
		b[i] = 0xff
	}
	assert.Equal(t, uint32(0xffffffff), v)
	assert.Nil(t, Memory{}.Bytes())
}
