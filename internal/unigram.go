package internal

import (
	"math"
	"math/rand/v2"
)

const (
	DefaultTableSize = 100_000_000
	UnigramPower     = 0.75
)

// UnigramTable maps uniformly drawn slots to vocabulary indices with
// probability proportional to count^power. The marker never appears.
type UnigramTable struct {
	slots []int32
}

func NewUnigramTable(v *Vocabulary, size int, power float64) (*UnigramTable, error) {
	n := v.Len()
	if n < 2 || size <= 0 {
		return nil, ErrEmptyVocab
	}

	var z float64
	for i := 1; i < n; i++ {
		z += math.Pow(float64(v.Entry(i).Count), power)
	}
	if z == 0 {
		return nil, ErrEmptyVocab
	}

	slots := make([]int32, size)
	i := 1
	d1 := math.Pow(float64(v.Entry(i).Count), power) / z
	for a := 0; a < size; a++ {
		slots[a] = int32(i)
		if float64(a)/float64(size) > d1 && i < n-1 {
			i++
			d1 += math.Pow(float64(v.Entry(i).Count), power) / z
		}
	}

	return &UnigramTable{slots: slots}, nil
}

func (t *UnigramTable) Len() int {
	return len(t.slots)
}

func (t *UnigramTable) At(slot int) int {
	return int(t.slots[slot])
}

func (t *UnigramTable) Sample(r *rand.Rand) int {
	return int(t.slots[r.IntN(len(t.slots))])
}
