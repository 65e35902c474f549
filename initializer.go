package emplace

import "errors"

// ErrConsumed is the panic value raised when an initializer is used after
// Emplace or Fallback.
var ErrConsumed = errors.New("emplace: initializer already consumed")

// Initializer knows how big a not-yet-built value will be and how to build
// it directly in caller-supplied memory.
//
// Layout may be called any number of times before Emplace and always
// reports what Emplace will write. Emplace is called at most once, with a
// region that fits Layout(), and returns a handle to the value it wrote.
// O is that handle: *T for sized values, []T for arrays, an interface for
// upcast values, Dst for header+tail composites.
type Initializer[O any] interface {
	Layout() Layout
	Emplace(mem Memory) O
}

// once tracks the single unconsumed -> consumed transition.
type once struct {
	used bool
}

func (o *once) check() {
	if o.used {
		panic(ErrConsumed)
	}
}

func (o *once) consume() {
	o.check()
	o.used = true
}
