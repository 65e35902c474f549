package emplace

import "sync"

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
// Placement into a region returned by Allocate happens outside the lock;
// the region belongs to the caller until it is released.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a new thread-safe arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewSafeArena(chunkSize int, opts ...Option) *SafeArena {
	return &SafeArena{a: NewArena(chunkSize, opts...)}
}

// Allocate implements Allocator.
func (s *SafeArena) Allocate(l Layout) (Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(l)
}

// Deallocate implements Deallocator.
func (s *SafeArena) Deallocate(mem Memory, l Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Deallocate(mem, l)
}

// AllocBytes thread-safely allocates n bytes and returns a slice pointing to them.
// Returns nil if n <= 0.
func (s *SafeArena) AllocBytes(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocBytes(n)
}

// EnsureCapacity thread-safely ensures the current chunk has at least n free bytes.
func (s *SafeArena) EnsureCapacity(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.EnsureCapacity(n)
}

// Reset thread-safely resets allocation offsets to zero for arena reuse.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely drops all chunks and makes the arena unusable.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}
