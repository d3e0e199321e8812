package internal

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Lookup is a dense rows x cols float32 matrix, one row per vocabulary index
// (input side) or per output node (softmax / negative side).
//
// Rows are updated in place without locks. Concurrent trainers race on
// overlapping rows and the lost updates are accepted; see DESIGN.md.
type Lookup struct {
	rows    int
	cols    int
	weights []float32
}

func NewLookup(rows, cols int) *Lookup {
	return &Lookup{
		rows:    rows,
		cols:    cols,
		weights: make([]float32, rows*cols),
	}
}

func (l *Lookup) Rows() int { return l.rows }
func (l *Lookup) Cols() int { return l.cols }

func (l *Lookup) Weights() []float32 { return l.weights }

func (l *Lookup) Row(i int) []float32 {
	return l.weights[i*l.cols : (i+1)*l.cols : (i+1)*l.cols]
}

func (l *Lookup) vec(i int) blas32.Vector {
	return blas32.Vector{N: l.cols, Inc: 1, Data: l.Row(i)}
}

func (l *Lookup) wrap(x []float32) blas32.Vector {
	if len(x) != l.cols {
		panic(fmt.Errorf("%w: vector has %d elements, layer has %d columns", ErrDimensionMismatch, len(x), l.cols))
	}
	return blas32.Vector{N: l.cols, Inc: 1, Data: x}
}

// ForwardLookup copies each indexed row into out back to back. A single
// index is a plain row copy.
func (l *Lookup) ForwardLookup(indices []int, out []float32) {
	if len(out) != len(indices)*l.cols {
		panic(fmt.Errorf("%w: output has %d elements, want %d", ErrDimensionMismatch, len(out), len(indices)*l.cols))
	}
	for k, idx := range indices {
		copy(out[k*l.cols:(k+1)*l.cols], l.Row(idx))
	}
}

// ForwardLookupAvg writes the mean of the indexed rows into out.
func (l *Lookup) ForwardLookupAvg(indices []int, out []float32) {
	y := l.wrap(out)
	clear(out)
	if len(indices) == 0 {
		return
	}
	scale := 1 / float32(len(indices))
	for _, idx := range indices {
		blas32.Axpy(scale, l.vec(idx), y)
	}
}

// ForwardPoint is the dot product of in with row index.
func (l *Lookup) ForwardPoint(in []float32, index int) float32 {
	return blas32.Dot(l.wrap(in), l.vec(index))
}

// BackpropAccumulate adds g*row(index) into acc, then g*in into row(index).
func (l *Lookup) BackpropAccumulate(in []float32, index int, g float32, acc []float32) {
	row := l.vec(index)
	blas32.Axpy(g, row, l.wrap(acc))
	blas32.Axpy(g, l.wrap(in), row)
}

// BackpropLookup adds grad, unscaled, into every indexed row. This is the
// backward pass for both ForwardLookup with one index and ForwardLookupAvg.
func (l *Lookup) BackpropLookup(indices []int, grad []float32) {
	g := l.wrap(grad)
	for _, idx := range indices {
		blas32.Axpy(1, g, l.vec(idx))
	}
}

// BackpropLookupConcat is the backward pass of ForwardLookup over several
// indices: slice k of grad goes into row indices[k].
func (l *Lookup) BackpropLookupConcat(indices []int, grad []float32) {
	if len(grad) != len(indices)*l.cols {
		panic(fmt.Errorf("%w: gradient has %d elements, want %d", ErrDimensionMismatch, len(grad), len(indices)*l.cols))
	}
	for k, idx := range indices {
		g := blas32.Vector{N: l.cols, Inc: 1, Data: grad[k*l.cols : (k+1)*l.cols]}
		blas32.Axpy(1, g, l.vec(idx))
	}
}

// Resize changes the row count, keeping the common prefix of rows. Added
// rows are zero until the caller initialises them.
func (l *Lookup) Resize(rows int) {
	if rows == l.rows {
		return
	}
	weights := make([]float32, rows*l.cols)
	copy(weights, l.weights)
	l.weights = weights
	l.rows = rows
}
