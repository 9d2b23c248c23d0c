package projection

import (
	"sort"

	"github.com/alDuncanson/latentscope/vectorset"
	"gonum.org/v1/gonum/stat"
)

// DimensionVariance is the sample variance of one original embedding dimension.
type DimensionVariance struct {
	Dimension int
	Variance  float64
}

// RankVariance returns the sample variance of every dimension, highest first.
// Ties are ordered by ascending dimension index.
func RankVariance(vectors vectorset.Set) ([]DimensionVariance, error) {
	numberOfVectors := vectors.Len()
	if numberOfVectors < 2 {
		return nil, &vectorset.InsufficientDataError{Operation: "variance ranking", Required: 2, Got: numberOfVectors}
	}

	columnValues := make([]float64, numberOfVectors)
	ranking := make([]DimensionVariance, vectors.Dimension())
	for dimensionIndex := range ranking {
		for vectorIndex := 0; vectorIndex < numberOfVectors; vectorIndex++ {
			columnValues[vectorIndex] = vectors.At(vectorIndex)[dimensionIndex]
		}
		ranking[dimensionIndex] = DimensionVariance{
			Dimension: dimensionIndex,
			Variance:  stat.Variance(columnValues, nil),
		}
	}

	sort.SliceStable(ranking, func(first, second int) bool {
		return ranking[first].Variance > ranking[second].Variance
	})
	return ranking, nil
}
