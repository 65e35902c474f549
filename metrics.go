package emplace

// SizeInUse returns the bytes bumped so far across all chunks, alignment
// padding included.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, c := range a.chunks {
		sum += int(c.offset)
	}
	return sum
}

// NumChunks returns the number of chunks currently allocated by the arena.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

// Capacity returns the total capacity (in bytes) of all chunks in the arena.
func (a *Arena) Capacity() int {
	sum := 0
	for _, c := range a.chunks {
		sum += len(c.buf)
	}
	return sum
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// ChunkSize returns the default chunk size used by this arena.
func (a *Arena) ChunkSize() int {
	return a.chunkSize
}

// Metrics returns a snapshot of the arena's capacity and placement counts.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		NumChunks:   a.NumChunks(),
		ChunkSize:   a.ChunkSize(),
		Utilization: a.Utilization(),
		Placements:  a.placements,
		Failures:    a.failures,
		Frees:       a.frees,
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse   int     `json:"size_in_use" msgpack:"size_in_use"` // Bytes currently allocated
	Capacity    int     `json:"capacity" msgpack:"capacity"`       // Total capacity in bytes
	NumChunks   int     `json:"num_chunks" msgpack:"num_chunks"`   // Number of chunks
	ChunkSize   int     `json:"chunk_size" msgpack:"chunk_size"`   // Default chunk size
	Utilization float64 `json:"utilization" msgpack:"utilization"` // Ratio of used to total capacity (0.0-1.0)
	Placements  int     `json:"placements" msgpack:"placements"`   // Successful Allocate calls
	Failures    int     `json:"failures" msgpack:"failures"`       // Refused Allocate calls
	Frees       int     `json:"frees" msgpack:"frees"`             // Deallocate calls
}

// locked runs f on the wrapped arena under the SafeArena mutex.
func locked[T any](s *SafeArena, f func(*Arena) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.a)
}

// SizeInUse is Arena.SizeInUse under the lock.
func (s *SafeArena) SizeInUse() int { return locked(s, (*Arena).SizeInUse) }

// NumChunks is Arena.NumChunks under the lock.
func (s *SafeArena) NumChunks() int { return locked(s, (*Arena).NumChunks) }

// Capacity is Arena.Capacity under the lock.
func (s *SafeArena) Capacity() int { return locked(s, (*Arena).Capacity) }

// Utilization is Arena.Utilization under the lock.
func (s *SafeArena) Utilization() float64 { return locked(s, (*Arena).Utilization) }

// ChunkSize is Arena.ChunkSize under the lock.
func (s *SafeArena) ChunkSize() int { return locked(s, (*Arena).ChunkSize) }

// Metrics is Arena.Metrics under the lock.
func (s *SafeArena) Metrics() ArenaMetrics { return locked(s, (*Arena).Metrics) }
