package emplace

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceIter(t *testing.T) {
	init, err := NewSliceIter(100, countFrom(uintptr(0)))
	require.NoError(t, err)
	assert.True(t, init.Layout().Equal(LayoutOf[[100]uintptr]()))

	data, err := Emplace(init)
	require.NoError(t, err)
	require.Len(t, data, 100)
	for i, x := range data {
		assert.Equal(t, uintptr(i), x)
	}
}

func TestSliceIterPullsExactlyCount(t *testing.T) {
	pulled := 0
	seq := func(yield func(int) bool) {
		for i := 0; ; i++ {
			pulled++
			if !yield(i * 3) {
				return
			}
		}
	}
	init, err := NewSliceIter(7, seq)
	require.NoError(t, err)
	data, err := Emplace(init)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 9, 12, 15, 18}, data)
	assert.Equal(t, 7, pulled)
}

func TestSliceIterInOrder(t *testing.T) {
	words := []string{"header", "tail", "nested", "tail"}
	init, err := NewSliceIter(len(words), slices.Values(words))
	require.NoError(t, err)
	data, err := Emplace(init)
	require.NoError(t, err)
	assert.Equal(t, words, data)
}

func TestSliceIterUnderrunPanics(t *testing.T) {
	init, err := NewSliceIter(3, slices.Values([]int{1, 2}))
	require.NoError(t, err)
	assert.PanicsWithValue(t, "emplace: iterator yielded 2 of 3 elements", func() {
		Emplace(init)
	})
}

func TestSliceIterEmpty(t *testing.T) {
	init, err := NewSliceIter(0, slices.Values([]int(nil)))
	require.NoError(t, err)
	assert.Equal(t, uintptr(0), init.Layout().Size())
	data, err := Emplace(init)
	require.NoError(t, err)
	assert.Len(t, data, 0)
}

func TestSliceIterRejectsBadCount(t *testing.T) {
	_, err := NewSliceIter(-1, countFrom(0))
	assert.Error(t, err)
}

func TestSliceIterFallback(t *testing.T) {
	init, err := NewSliceIter(2, slices.Values([]int{4, 5}))
	require.NoError(t, err)
	n, seq := init.Fallback()
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{4, 5}, slices.Collect(seq))
	assert.PanicsWithValue(t, ErrConsumed, func() { init.Layout() })
}

func TestSliceFunc(t *testing.T) {
	i := 0
	init, err := NewSliceFunc(10065, func() int {
		i++
		return i
	})
	require.NoError(t, err)
	data, err := Emplace(init)
	require.NoError(t, err)
	require.Len(t, data, 10065)
	for j, x := range data {
		assert.Equal(t, j+1, x)
	}
	assert.Equal(t, 10065, i)
}

func TestSliceFuncSingleUse(t *testing.T) {
	init, err := NewSliceFunc(4, func() uint16 { return 9 })
	require.NoError(t, err)
	_, err = Emplace(init)
	require.NoError(t, err)
	assert.PanicsWithValue(t, ErrConsumed, func() { Emplace(init) })
}

func TestSliceFuncFallback(t *testing.T) {
	init, err := NewSliceFunc(3, func() uint16 { return 9 })
	require.NoError(t, err)
	n, f := init.Fallback()
	assert.Equal(t, 3, n)
	assert.Equal(t, uint16(9), f())
}
