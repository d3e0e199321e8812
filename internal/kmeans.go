package internal

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

const DefaultKMeansIterations = 10

// Cluster assigns every row of vs to one of k classes with spherical
// k-means: centroids are normalised means, rows go to the centroid with the
// largest dot product. Rows start round-robin, so the result is
// deterministic.
func Cluster(vs *Vectors, k, iters int) ([]int, error) {
	n := vs.Len()
	if k <= 0 {
		return nil, fmt.Errorf("classes must be positive, got %d", k)
	}
	if n == 0 {
		return nil, ErrEmptyVocab
	}
	k = min(k, n)

	classes := make([]int, n)
	for i := range classes {
		classes[i] = i % k
	}

	dim := vs.Dim
	cent := make([]float32, k*dim)
	sizes := make([]int, k)
	centroid := func(c int) blas32.Vector {
		return blas32.Vector{N: dim, Inc: 1, Data: cent[c*dim : (c+1)*dim]}
	}
	row := func(i int) blas32.Vector {
		return blas32.Vector{N: dim, Inc: 1, Data: vs.Row(i)}
	}

	for range iters {
		clear(cent)
		for c := range sizes {
			sizes[c] = 1
		}
		for i, c := range classes {
			blas32.Axpy(1, row(i), centroid(c))
			sizes[c]++
		}
		for c := range k {
			v := centroid(c)
			blas32.Scal(1/float32(sizes[c]), v)
			if norm := blas32.Nrm2(v); norm > 0 {
				blas32.Scal(1/norm, v)
			}
		}

		for i := range classes {
			best, bestScore := 0, float32(-10)
			for c := range k {
				if s := blas32.Dot(centroid(c), row(i)); s > bestScore {
					best, bestScore = c, s
				}
			}
			classes[i] = best
		}
	}
	return classes, nil
}
