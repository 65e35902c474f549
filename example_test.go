package emplace

import (
	"errors"
	"fmt"
)

// Example places a header and a five-element tail in one allocation.
func Example() {
	type header struct {
		ID    uint32
		Flags uint8
	}
	powers := func(yield func(uint64) bool) {
		for i := uint64(1); ; i *= 2 {
			if !yield(i) {
				return
			}
		}
	}

	tail, err := NewSliceIter(5, powers)
	if err != nil {
		panic(err)
	}
	init := NewComposite(header{ID: 7, Flags: 1}, tail)
	fmt.Println(init.Layout())

	pkt, err := Emplace(init)
	if err != nil {
		panic(err)
	}
	fmt.Println(pkt.Header().ID, pkt.Tail())

	// Output:
	// Layout{size: 48, align: 8}
	// 7 [1 2 4 8 16]
}

// ExampleEmplaceIn retries on the heap when an arena cannot take a value.
func ExampleEmplaceIn() {
	a := NewArena(0)
	defer a.Release()

	init := NewDirect([]string{"tail", "on", "heap"})
	v, err := EmplaceIn(a, init)
	var ae *AllocError[*[]string]
	if errors.As(err, &ae) {
		fmt.Println("arena refused:", errors.Is(err, ErrPointerLayout))
		v, err = Emplace(ae.Init)
	}
	if err != nil {
		panic(err)
	}
	fmt.Println(*v)

	// Output:
	// arena refused: true
	// [tail on heap]
}

type celsius float64

func (c celsius) String() string { return fmt.Sprintf("%.1fC", float64(c)) }

// ExampleNewUpcast places a concrete value and uses it through an interface.
func ExampleNewUpcast() {
	s, err := Emplace(NewUpcast[celsius, fmt.Stringer](21.5))
	if err != nil {
		panic(err)
	}
	fmt.Println(s.String())

	// Output:
	// 21.5C
}

// ExampleShared shows reference counting over a placed value.
func ExampleShared() {
	s, err := NewShared(NewDirect(uint64(10)))
	if err != nil {
		panic(err)
	}
	c := s.Clone()
	fmt.Println(s.Refs(), *c.Get())

	s.Release()
	fmt.Println(c.Refs())
	c.Release()

	// Output:
	// 2 10
	// 1
}

// ExampleArena places composites into an arena and reports its usage.
func ExampleArena() {
	a := NewArena(1024)
	defer a.Release()

	for i := range 3 {
		tail, err := NewSliceFunc(4, func() uint32 { return uint32(i) })
		if err != nil {
			panic(err)
		}
		d, err := EmplaceIn(a, NewComposite(uint32(i), tail))
		if err != nil {
			panic(err)
		}
		fmt.Println(*d.Header(), d.Tail())
	}
	fmt.Printf("in use: %d bytes, placements: %d\n", a.SizeInUse(), a.Metrics().Placements)

	// Output:
	// 0 [0 0 0 0]
	// 1 [1 1 1 1]
	// 2 [2 2 2 2]
	// in use: 60 bytes, placements: 3
}
