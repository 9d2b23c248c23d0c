// Package similarity characterizes the pairwise cosine similarity distribution
// of an embedding set: a sampled histogram, summary statistics, and the most
// similar pairs, which are the near-duplicate candidates.
package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// It returns 0, never NaN, when either vector has zero norm. Vectors of
// different lengths are compared over the shorter length. Each vector is
// scaled by its largest magnitude first, so very large or very small
// components neither overflow nor underflow.
func Cosine(a, b []float64) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	a, b = a[:length], b[:length]

	scaleA := floats.Norm(a, math.Inf(1))
	scaleB := floats.Norm(b, math.Inf(1))
	if scaleA == 0 || scaleB == 0 {
		return 0
	}

	var dotProduct, normSquaredA, normSquaredB float64
	for i := 0; i < length; i++ {
		scaledA := a[i] / scaleA
		scaledB := b[i] / scaleB
		dotProduct += scaledA * scaledB
		normSquaredA += scaledA * scaledA
		normSquaredB += scaledB * scaledB
	}

	similarity := dotProduct / (math.Sqrt(normSquaredA) * math.Sqrt(normSquaredB))
	return math.Max(-1, math.Min(1, similarity))
}

func isZeroVector(vector []float64) bool {
	for _, value := range vector {
		if value != 0 {
			return false
		}
	}
	return true
}
