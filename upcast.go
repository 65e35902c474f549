package emplace

import (
	"fmt"
	"reflect"
)

// Upcast places a concrete value C and hands it back as I, typically an
// interface C implements through its pointer. The interface value points
// straight at the placed C.
type Upcast[C, I any] struct {
	v    C
	cast func(*C) I
	once
}

// NewUpcast returns an initializer that places v and converts the result
// to I. It panics if *C cannot be converted to I.
func NewUpcast[C, I any](v C) *Upcast[C, I] {
	if _, ok := any((*C)(nil)).(I); !ok {
		panic(fmt.Sprintf("emplace: %s does not implement %s",
			reflect.TypeFor[*C](), reflect.TypeFor[I]()))
	}
	return &Upcast[C, I]{v: v, cast: convert[C, I]}
}

// convert is the cast NewUpcast installs. *C was checked to implement I
// when the initializer was built, so the assertion cannot fail.
func convert[C, I any](p *C) I { return any(p).(I) }

// NewUpcastFunc is NewUpcast with an explicit conversion, for targets that
// are not interfaces, such as viewing a placed [N]T as []T.
func NewUpcastFunc[C, I any](v C, cast func(*C) I) *Upcast[C, I] {
	return &Upcast[C, I]{v: v, cast: cast}
}

// Layout implements Initializer. It is the layout of C.
func (u *Upcast[C, I]) Layout() Layout {
	u.check()
	return LayoutOf[C]()
}

// Emplace implements Initializer by storing the value and converting the
// pointer to it.
func (u *Upcast[C, I]) Emplace(mem Memory) I {
	u.consume()
	p := Store(mem, u.v)
	var zero C
	u.v = zero
	return u.cast(p)
}

// Fallback consumes u without placing it and returns the concrete value.
func (u *Upcast[C, I]) Fallback() C {
	u.consume()
	v := u.v
	var zero C
	u.v = zero
	return v
}
