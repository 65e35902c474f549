package emplace

import (
	"fmt"
	"unsafe"

	"fortio.org/safecast"
	"go.uber.org/zap"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

const ptrAlign = unsafe.Alignof(uintptr(0))

// chunk represents a single memory chunk within an arena.
type chunk struct {
	buf    []byte  // backing memory
	offset uintptr // allocation offset within buf
}

// take bumps n bytes aligned to align off the chunk. room is what is left
// of the chunk from the returned address.
func (c *chunk) take(n, align uintptr) (p unsafe.Pointer, room uintptr, ok bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
	mask := align - 1
	off := ((base + c.offset + mask) &^ mask) - base
	if off+n > uintptr(len(c.buf)) {
		return nil, 0, false
	}
	c.offset = off + n
	return unsafe.Pointer(&c.buf[off]), uintptr(len(c.buf)) - off, true
}

// Arena is a chunked bump allocator. Not goroutine-safe by default.
// Use SafeArena for concurrent access.
//
// Chunk memory is not scanned by the garbage collector, so an arena only
// accepts pointer-free layouts. Values are never freed one by one; Reset
// and Release reclaim everything at once.
type Arena struct {
	chunks      []*chunk
	cur         int
	chunkSize   int
	maxCapacity int
	log         *zap.Logger

	placements int
	failures   int
	frees      int
}

// Option configures an Arena.
type Option func(*Arena)

// WithMaxCapacity stops the arena from growing past n bytes of chunks.
// Requests that would need more fail with ErrOutOfMemory. n <= 0 means
// no limit.
func WithMaxCapacity(n int) Option {
	return func(a *Arena) { a.maxCapacity = n }
}

// WithLogger sets the logger for chunk growth and failures. By default the
// package Logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(a *Arena) { a.log = l }
}

// NewArena creates a new Arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewArena(chunkSize int, opts ...Option) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	for _, opt := range opts {
		opt(a)
	}
	if !a.grow(1) {
		a.chunks = []*chunk{}
	}
	return a
}

// Allocate implements Allocator.
func (a *Arena) Allocate(l Layout) (Memory, error) {
	a.panicIfReleased()
	if l.ptrs {
		return a.fail(l, ErrPointerLayout)
	}
	if l.size == 0 {
		a.placements++
		return Memory{ptr: unsafe.Pointer(&zeroBase)}, nil
	}
	if _, err := safecast.Conv[int](l.size + l.align); err != nil {
		return a.fail(l, fmt.Errorf("%w: %v", ErrOutOfMemory, err))
	}
	if l.size+l.align > maxAlloc {
		return a.fail(l, fmt.Errorf("%w: %d bytes exceeds the heap limit of %d", ErrOutOfMemory, l.size, maxAlloc))
	}
	p, room, ok := a.bump(l.size, l.align)
	if !ok {
		return a.fail(l, fmt.Errorf("%w: arena capacity %d of %d bytes", ErrOutOfMemory, a.Capacity(), a.maxCapacity))
	}
	a.placements++
	return Memory{ptr: p, size: l.size, room: room}, nil
}

// Deallocate implements Deallocator. Arena memory is only reclaimed by
// Reset or Release; this just counts the call.
func (a *Arena) Deallocate(Memory, Layout) {
	a.frees++
}

func (a *Arena) fail(l Layout, err error) (Memory, error) {
	a.failures++
	a.logger().Debug("arena allocation refused", zap.Stringer("layout", l), zap.Error(err))
	return Memory{}, err
}

// AllocBytes returns a []byte slice pointing into the arena's backing chunk.
// The caller must ensure the arena remains reachable while the returned slice is in use.
// Returns nil if n <= 0 or the arena is at its capacity limit.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p, _, ok := a.bump(uintptr(n), ptrAlign)
	if !ok {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// bump takes n bytes aligned to align from the first chunk at or after
// the current one with room, growing the arena if none has.
func (a *Arena) bump(n, align uintptr) (unsafe.Pointer, uintptr, bool) {
	// Fast path: current chunk
	if a.cur < len(a.chunks) {
		if p, room, ok := a.chunks[a.cur].take(n, align); ok {
			return p, room, true
		}
	}
	a.panicIfReleased()
	// Chunks left over from before a Reset
	for i := a.cur + 1; i < len(a.chunks); i++ {
		if p, room, ok := a.chunks[i].take(n, align); ok {
			a.cur = i
			return p, room, true
		}
	}
	if !a.grow(int(n + align - 1)) {
		return nil, 0, false
	}
	return a.chunks[a.cur].take(n, align)
}

// EnsureCapacity ensures the current chunk has at least n free bytes.
// If not, it grows the arena with a new chunk.
func (a *Arena) EnsureCapacity(n int) {
	a.panicIfReleased()
	if a.cur < len(a.chunks) {
		c := a.chunks[a.cur]
		if uintptr(n)+alignPtr(c.offset) <= uintptr(len(c.buf)) {
			return
		}
	}
	a.grow(n)
}

// Reset resets allocation offsets to zero but keeps allocated chunks for reuse.
// Memory handed out before the Reset must no longer be used.
func (a *Arena) Reset() {
	a.panicIfReleased()
	for _, c := range a.chunks {
		c.offset = 0
	}
	a.cur = 0
}

// Release drops all chunks and makes the arena unusable.
// Any subsequent operations will panic.
func (a *Arena) Release() {
	a.chunks = nil
	a.cur = 0
}

// grow appends a new chunk of at least need bytes and makes it current.
// It reports false if the capacity limit forbids it.
func (a *Arena) grow(need int) bool {
	size := max(a.chunkSize, need)
	if a.maxCapacity > 0 {
		room := a.maxCapacity - a.Capacity()
		if room < need {
			return false
		}
		size = min(size, room)
	}
	a.chunks = append(a.chunks, &chunk{buf: make([]byte, size)})
	a.cur = len(a.chunks) - 1
	a.logger().Debug("arena grew",
		zap.Int("chunk_bytes", size),
		zap.Int("chunks", len(a.chunks)),
		zap.Int("capacity", a.Capacity()))
	return true
}

func (a *Arena) logger() *zap.Logger {
	if a.log != nil {
		return a.log
	}
	return Logger()
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		panic("arena: use after Release()")
	}
}

// alignPtr aligns the offset up to pointer size alignment.
func alignPtr(off uintptr) uintptr {
	mask := ptrAlign - 1
	return (off + mask) & ^mask
}
