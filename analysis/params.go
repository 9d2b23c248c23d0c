package analysis

import (
	"github.com/alDuncanson/latentscope/vectorset"
)

// Allowed ranges for the interactive parameters.
const (
	MinClusterCount = 3
	MaxClusterCount = 10
)

// SampleSizes lists the similarity sample sizes a run may request, ascending.
var SampleSizes = []int{50, 100, 200, 500}

// Params configures a full analysis run.
type Params struct {
	// TargetClusterCount is k for the cluster engine.
	TargetClusterCount int

	// SampleSize is how many vectors the similarity analyzer compares pairwise.
	SampleSize int

	// SimilarityThreshold is the near-duplicate cutoff in [0, 1].
	SimilarityThreshold float64

	// ProjectionDimensions is the PCA target dimension d.
	ProjectionDimensions int

	// MaxIterations caps k-means assignment passes.
	MaxIterations int

	// RandomSeed pins clustering and sampling. Nil draws a time-based seed.
	RandomSeed *int64

	HistogramBins int
	TopK          int
	ExcerptLength int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		TargetClusterCount:   5,
		SampleSize:           100,
		SimilarityThreshold:  0.75,
		ProjectionDimensions: 2,
		MaxIterations:        100,
		HistogramBins:        20,
		TopK:                 10,
		ExcerptLength:        80,
	}
}

// WithSeed returns a copy of p pinned to seed.
func (p Params) WithSeed(seed int64) Params {
	p.RandomSeed = &seed
	return p
}

// Validate checks every parameter against its documented range. Limits that
// depend on the data (k ≤ N, d ≤ D) are checked when a run starts.
func (p Params) Validate() error {
	if p.TargetClusterCount < MinClusterCount || p.TargetClusterCount > MaxClusterCount {
		return &vectorset.InvalidParameterError{Name: "cluster count", Value: p.TargetClusterCount, Reason: "must be in [3, 10]"}
	}
	if !isAllowedSampleSize(p.SampleSize) {
		return &vectorset.InvalidParameterError{Name: "sample size", Value: p.SampleSize, Reason: "must be one of 50, 100, 200, 500"}
	}
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return &vectorset.InvalidParameterError{Name: "similarity threshold", Value: p.SimilarityThreshold, Reason: "must be in [0, 1]"}
	}
	if p.ProjectionDimensions < 1 {
		return &vectorset.InvalidParameterError{Name: "projection dimensions", Value: p.ProjectionDimensions, Reason: "must be at least 1"}
	}
	if p.MaxIterations < 1 {
		return &vectorset.InvalidParameterError{Name: "max iterations", Value: p.MaxIterations, Reason: "must be at least 1"}
	}
	if p.HistogramBins < 1 {
		return &vectorset.InvalidParameterError{Name: "histogram bins", Value: p.HistogramBins, Reason: "must be at least 1"}
	}
	if p.TopK < 1 {
		return &vectorset.InvalidParameterError{Name: "top pairs", Value: p.TopK, Reason: "must be at least 1"}
	}
	if p.ExcerptLength < 1 {
		return &vectorset.InvalidParameterError{Name: "excerpt length", Value: p.ExcerptLength, Reason: "must be at least 1"}
	}
	return nil
}

// NextSampleSize returns the allowed sample size after current, wrapping around.
func NextSampleSize(current int) int {
	for position, size := range SampleSizes {
		if size == current {
			return SampleSizes[(position+1)%len(SampleSizes)]
		}
	}
	return SampleSizes[0]
}

func isAllowedSampleSize(size int) bool {
	for _, allowed := range SampleSizes {
		if size == allowed {
			return true
		}
	}
	return false
}
