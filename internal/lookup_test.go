package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLookup() *Lookup {
	l := NewLookup(4, 3)
	copy(l.Weights(), []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		-1, 0, 1,
	})
	return l
}

func TestLookupRow(t *testing.T) {
	l := newTestLookup()
	assert.Equal(t, 4, l.Rows())
	assert.Equal(t, 3, l.Cols())
	assert.Equal(t, []float32{4, 5, 6}, l.Row(1))

	row := l.Row(1)
	row[0] = 40
	assert.Equal(t, float32(40), l.Weights()[3])
	assert.Equal(t, 3, cap(row))
}

func TestForwardLookup(t *testing.T) {
	l := newTestLookup()

	out := make([]float32, 6)
	l.ForwardLookup([]int{2, 0}, out)
	assert.Equal(t, []float32{7, 8, 9, 1, 2, 3}, out)

	assert.Panics(t, func() { l.ForwardLookup([]int{0}, out) })
}

func TestForwardLookupAvg(t *testing.T) {
	l := newTestLookup()

	out := []float32{99, 99, 99}
	l.ForwardLookupAvg([]int{0, 1, 2}, out)
	assert.InDeltaSlice(t, []float32{4, 5, 6}, out, 1e-6)

	l.ForwardLookupAvg(nil, out)
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestForwardPoint(t *testing.T) {
	l := newTestLookup()
	assert.InDelta(t, 1*1+2*0+3*-1, l.ForwardPoint([]float32{1, 0, -1}, 0), 1e-6)
	assert.Panics(t, func() { l.ForwardPoint([]float32{1, 0}, 0) })
}

func TestAvgBackpropIsUnscaled(t *testing.T) {
	l := newTestLookup()
	before := append([]float32(nil), l.Weights()...)
	window := []int{0, 1, 3}

	hidden := make([]float32, 3)
	l.ForwardLookupAvg(window, hidden)

	grad := []float32{0.5, -1, 2}
	l.BackpropLookup(window, grad)

	for _, idx := range window {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, grad[j], l.Row(idx)[j]-before[idx*3+j], 1e-6, "row %d col %d", idx, j)
		}
	}
	assert.Equal(t, before[6:9], l.Row(2), "rows outside the window are untouched")
}

func TestBackpropAccumulate(t *testing.T) {
	l := newTestLookup()
	in := []float32{1, 1, 1}
	acc := []float32{10, 10, 10}

	l.BackpropAccumulate(in, 1, 0.5, acc)

	assert.InDeltaSlice(t, []float32{12, 12.5, 13}, acc, 1e-6, "accumulates the old row")
	assert.InDeltaSlice(t, []float32{4.5, 5.5, 6.5}, l.Row(1), 1e-6)
}

func TestBackpropLookupConcat(t *testing.T) {
	l := newTestLookup()
	l.BackpropLookupConcat([]int{0, 3}, []float32{1, 1, 1, 2, 2, 2})

	assert.Equal(t, []float32{2, 3, 4}, l.Row(0))
	assert.Equal(t, []float32{1, 2, 3}, l.Row(3))
	assert.Panics(t, func() { l.BackpropLookupConcat([]int{0}, []float32{1}) })
}

func TestLookupResize(t *testing.T) {
	l := newTestLookup()

	l.Resize(6)
	require.Equal(t, 6, l.Rows())
	assert.Equal(t, []float32{-1, 0, 1}, l.Row(3))
	assert.Equal(t, []float32{0, 0, 0}, l.Row(5))

	l.Resize(2)
	require.Equal(t, 2, l.Rows())
	assert.Len(t, l.Weights(), 6)
	assert.Equal(t, []float32{4, 5, 6}, l.Row(1))
}
