package internal

import (
	"math"
	"math/rand/v2"
)

const (
	expTableSize = 1000
	maxExp       = 6
	sigmoidScale = float32(expTableSize) / (2 * maxExp)
)

var sigmoidTable = func() [expTableSize + 1]float32 {
	var t [expTableSize + 1]float32
	for i := 0; i < expTableSize; i++ {
		e := math.Exp((float64(i)/expTableSize*2 - 1) * maxExp)
		t[i] = float32(e / (e + 1))
	}
	t[expTableSize] = t[expTableSize-1]
	return t
}()

// sigmoid reads the precomputed table. ok is false when f is outside
// (-maxExp, maxExp); callers skip that step instead of clamping.
func sigmoid(f float32) (s float32, ok bool) {
	if f <= -maxExp || f >= maxExp {
		return 0, false
	}
	return sigmoidTable[int((f+maxExp)*sigmoidScale)], true
}

// newThreadRand seeds a per-worker generator from the run seed and worker id.
func newThreadRand(seed uint64, id int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(id)+1))
}
