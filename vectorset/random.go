package vectorset

import (
	"math/rand"
	"time"
)

// RandomSource is the only source of randomness used by clustering and sampling.
// *rand.Rand satisfies it, and tests can substitute a scripted sequence.
type RandomSource interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// NewRandomSource returns a deterministic source for the given seed.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// TimeSeed returns a seed that varies between runs, for interactive use where
// reproducibility is not wanted.
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

// SampleIndices draws k distinct indices from [0, n) uniformly without
// replacement using a partial Fisher-Yates shuffle. The result is in draw order.
func SampleIndices(n, k int, rng RandomSource) []int {
	if k > n {
		k = n
	}
	permutation := make([]int, n)
	for i := range permutation {
		permutation[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		permutation[i], permutation[j] = permutation[j], permutation[i]
	}
	return permutation[:k]
}
