// Package emplace builds values whose size is only known at run time
// directly inside a single allocation.
//
// # Overview
//
// A composite value is a fixed-size header followed by a tail: a
// variable-length array, a value behind an interface, or another composite.
// Instead of allocating the tail separately, or building it first and
// copying it in, an Initializer reports the combined Layout up front and
// then writes every part straight to its final address.
//
// # Basic Usage
//
//	tail, _ := emplace.NewSliceIter(100, counter) // []uint64 from an iter.Seq
//	init := emplace.NewComposite(header{ID: 7}, tail)
//
//	pkt, err := emplace.Emplace(init) // one heap allocation
//	if err != nil {
//		return err
//	}
//	pkt.Header().ID // 7
//	pkt.Tail()[99]  // last element
//
// # Strategies
//
//   - Direct: a sized value, placed as is
//   - SliceIter, SliceFunc: arrays filled from an iterator or a generator
//   - Upcast: a concrete value handed back as an interface
//   - Raw: caller-written placement for anything else
//   - Composite: a header plus any of the above as its tail, nested freely
//
// Every initializer is single use. Emplace or Fallback consumes it; using
// it again panics with ErrConsumed.
//
// # Allocators
//
// EmplaceIn drives an initializer against any Allocator. Heap allocates
// from the Go heap with the exact type of the composite, so the garbage
// collector tracks pointers inside it. Arena and SafeArena bump-allocate
// from chunks and accept only pointer-free layouts. Budget caps the bytes
// an allocator may hand out.
//
// When allocation fails the error is an *AllocError whose Init field is the
// initializer, still unconsumed, so the caller can retry elsewhere:
//
//	v, err := emplace.EmplaceIn(arena, init)
//	var ae *emplace.AllocError[emplace.Dst[header, []uint64]]
//	if errors.As(err, &ae) {
//		v, err = emplace.Emplace(ae.Init)
//	}
//
// # Ownership
//
// Box owns a placed value exclusively; Shared counts references to it.
// Releasing the last owner runs the handle's Drop hook if it has one,
// clears the memory and hands it back to the allocator.
//
// # Important Notes
//
//   - Placement is synchronous and never partially succeeds: it returns a
//     complete handle or panics
//   - An iterator that yields fewer elements than promised is a programming
//     error and panics
//   - Pointer-bearing values need scanned memory (Heap, or MemoryOf a Go
//     value); arenas refuse them with ErrPointerLayout
package emplace
