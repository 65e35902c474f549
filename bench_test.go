package emplace

import (
	"fmt"
	"runtime"
	"testing"
)

type benchHeader struct {
	ID    int64
	Kind  uint32
	Count uint32
}

// separate is the two-allocation layout a composite replaces.
type separate struct {
	benchHeader
	Tail []uint64
}

// BenchmarkComposite compares one placed header+tail with a header
// pointing at a separately allocated tail.
func BenchmarkComposite(b *testing.B) {
	for _, n := range []int{4, 64, 1024} {
		b.Run(fmt.Sprintf("Heap/n-%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tail, _ := NewSliceFunc(n, func() uint64 { return uint64(i) })
				if _, err := Emplace(NewComposite(benchHeader{ID: int64(i)}, tail)); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("Arena/n-%d", n), func(b *testing.B) {
			a := NewArena(1024 * 1024)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				tail, _ := NewSliceFunc(n, func() uint64 { return uint64(i) })
				if _, err := EmplaceIn(a, NewComposite(benchHeader{ID: int64(i)}, tail)); err != nil {
					b.Fatal(err)
				}
				if i%100 == 99 {
					a.Reset()
				}
			}
		})

		b.Run(fmt.Sprintf("Builtin/n-%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := &separate{benchHeader: benchHeader{ID: int64(i)}, Tail: make([]uint64, n)}
				for j := range s.Tail {
					s.Tail[j] = uint64(i)
				}
				if i%1000 == 0 {
					runtime.GC()
				}
			}
		})
	}
}

func BenchmarkArenaAllocBytes(b *testing.B) {
	a := NewArena(1024 * 1024) // 1MB chunks
	sizes := []int{8, 64, 256, 1024}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size-%d", size), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				a.AllocBytes(size)
				if i%1000 == 999 { // Reset periodically to avoid growing too much
					a.Reset()
				}
			}
		})
	}
}

func BenchmarkLayoutExtend(b *testing.B) {
	tail, err := ArrayLayout[uint64](64)
	if err != nil {
		b.Fatal(err)
	}
	head := LayoutOf[benchHeader]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := head.Extend(tail); err != nil {
			b.Fatal(err)
		}
	}
}
