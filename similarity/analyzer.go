package similarity

import (
	"container/heap"
	"sort"

	"github.com/alDuncanson/latentscope/vectorset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options configures a similarity pass.
type Options struct {
	// SampleSize caps how many vectors are compared pairwise. When it is at
	// least N the whole set is used and no randomness is consumed.
	SampleSize int

	// Threshold is the near-duplicate cutoff in [0, 1]. Pairs strictly above it count.
	Threshold float64

	BinCount int
	TopK     int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		SampleSize: 100,
		Threshold:  0.75,
		BinCount:   20,
		TopK:       10,
	}
}

// Pair is one computed similarity between vectors IndexA < IndexB, addressed by
// their indices in the original set.
type Pair struct {
	IndexA     int
	IndexB     int
	Similarity float64
}

// TopPair is a ranked pair together with its documents for display.
type TopPair struct {
	Pair
	DocumentA vectorset.Document
	DocumentB vectorset.Document
}

// Stats summarizes the sampled similarity distribution.
type Stats struct {
	SampleSize             int
	PairCount              int
	Mean                   float64
	Median                 float64
	Min                    float64
	Max                    float64
	Threshold              float64
	AboveThreshold         int
	AboveThresholdFraction float64
}

// Analysis is a completed similarity pass. It retains every computed pair so
// that a threshold change can be answered without resampling.
type Analysis struct {
	// SampleIndices are the original indices that were compared, ascending.
	SampleIndices []int

	// Pairs holds every (IndexA, IndexB, Similarity) triple from the pass.
	Pairs []Pair

	Histogram Histogram
	Stats     Stats
	TopPairs  []TopPair

	// Warnings lists zero-norm vectors whose similarities were forced to 0.
	Warnings []vectorset.NumericDegeneracyWarning

	documents          []vectorset.Document
	sortedSimilarities []float64
	topK               int
}

// Analyze samples the set, computes all pairwise cosine similarities in the
// sample and derives the histogram, statistics and top pairs.
func Analyze(vectors vectorset.Set, documents []vectorset.Document, options Options, rng vectorset.RandomSource) (*Analysis, error) {
	if err := validateOptions(options); err != nil {
		return nil, err
	}
	numberOfVectors := vectors.Len()
	if numberOfVectors < 2 {
		return nil, &vectorset.InsufficientDataError{Operation: "similarity", Required: 2, Got: numberOfVectors}
	}
	if len(documents) != 0 && len(documents) != numberOfVectors {
		return nil, &vectorset.InvalidParameterError{Name: "documents", Value: len(documents), Reason: "document count must match vector count"}
	}

	sampleIndices := chooseSample(numberOfVectors, options.SampleSize, rng)

	var warnings []vectorset.NumericDegeneracyWarning
	for _, vectorIndex := range sampleIndices {
		if isZeroVector(vectors.At(vectorIndex)) {
			warnings = append(warnings, vectorset.NumericDegeneracyWarning{
				Index:  vectorIndex,
				Reason: "zero-norm vector, similarity forced to 0",
			})
		}
	}

	sampleCount := len(sampleIndices)
	pairs := make([]Pair, 0, sampleCount*(sampleCount-1)/2)
	histogram := newHistogram(options.BinCount)
	for first := 0; first < sampleCount; first++ {
		indexA := sampleIndices[first]
		for second := first + 1; second < sampleCount; second++ {
			indexB := sampleIndices[second]
			similarityScore := Cosine(vectors.At(indexA), vectors.At(indexB))
			pairs = append(pairs, Pair{IndexA: indexA, IndexB: indexB, Similarity: similarityScore})
			histogram.add(similarityScore)
		}
	}

	sortedSimilarities := make([]float64, len(pairs))
	for pairIndex, pair := range pairs {
		sortedSimilarities[pairIndex] = pair.Similarity
	}
	sort.Float64s(sortedSimilarities)

	analysis := &Analysis{
		SampleIndices:      sampleIndices,
		Pairs:              pairs,
		Histogram:          histogram,
		Warnings:           warnings,
		documents:          append([]vectorset.Document(nil), documents...),
		sortedSimilarities: sortedSimilarities,
		topK:               options.TopK,
	}
	analysis.Stats, analysis.TopPairs = analysis.evaluate(options.Threshold)
	return analysis, nil
}

// UpdateThreshold recomputes the threshold-dependent statistics and top pairs
// from the retained pairs of the original pass. The sample, the pairs and the
// histogram are unchanged, and the Analysis itself is not modified.
func (a *Analysis) UpdateThreshold(threshold float64) (Stats, []TopPair, error) {
	if threshold < 0 || threshold > 1 {
		return Stats{}, nil, &vectorset.InvalidParameterError{Name: "similarity threshold", Value: threshold, Reason: "must be in [0, 1]"}
	}
	stats, topPairs := a.evaluate(threshold)
	return stats, topPairs, nil
}

func (a *Analysis) evaluate(threshold float64) (Stats, []TopPair) {
	pairCount := len(a.sortedSimilarities)
	firstAbove := sort.Search(pairCount, func(i int) bool { return a.sortedSimilarities[i] > threshold })
	aboveThreshold := pairCount - firstAbove

	stats := Stats{
		SampleSize:             len(a.SampleIndices),
		PairCount:              pairCount,
		Mean:                   stat.Mean(a.sortedSimilarities, nil),
		Median:                 median(a.sortedSimilarities),
		Min:                    floats.Min(a.sortedSimilarities),
		Max:                    floats.Max(a.sortedSimilarities),
		Threshold:              threshold,
		AboveThreshold:         aboveThreshold,
		AboveThresholdFraction: float64(aboveThreshold) / float64(pairCount),
	}
	return stats, a.topPairsAbove(threshold)
}

// topPairsAbove keeps the topK most similar pairs strictly above threshold in a
// bounded min-heap, then returns them most similar first.
func (a *Analysis) topPairsAbove(threshold float64) []TopPair {
	candidates := &pairHeap{}
	for _, pair := range a.Pairs {
		if pair.Similarity <= threshold {
			continue
		}
		if candidates.Len() < a.topK {
			heap.Push(candidates, pair)
			continue
		}
		if ranksAbove(pair, (*candidates)[0]) {
			(*candidates)[0] = pair
			heap.Fix(candidates, 0)
		}
	}

	ranked := make([]Pair, candidates.Len())
	for position := len(ranked) - 1; position >= 0; position-- {
		ranked[position] = heap.Pop(candidates).(Pair)
	}

	topPairs := make([]TopPair, len(ranked))
	for position, pair := range ranked {
		topPairs[position] = TopPair{
			Pair:      pair,
			DocumentA: a.documentAt(pair.IndexA),
			DocumentB: a.documentAt(pair.IndexB),
		}
	}
	return topPairs
}

func (a *Analysis) documentAt(index int) vectorset.Document {
	if index < len(a.documents) {
		return a.documents[index]
	}
	return vectorset.Document{}
}

// chooseSample returns the sampled original indices in ascending order so that
// every generated pair satisfies IndexA < IndexB.
func chooseSample(numberOfVectors, sampleSize int, rng vectorset.RandomSource) []int {
	if sampleSize >= numberOfVectors {
		indices := make([]int, numberOfVectors)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	if rng == nil {
		rng = vectorset.NewRandomSource(vectorset.TimeSeed())
	}
	indices := vectorset.SampleIndices(numberOfVectors, sampleSize, rng)
	sort.Ints(indices)
	return indices
}

func median(sorted []float64) float64 {
	middle := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[middle]
	}
	return (sorted[middle-1] + sorted[middle]) / 2
}

func validateOptions(options Options) error {
	switch {
	case options.SampleSize < 2:
		return &vectorset.InvalidParameterError{Name: "sample size", Value: options.SampleSize, Reason: "must be at least 2"}
	case options.Threshold < 0 || options.Threshold > 1:
		return &vectorset.InvalidParameterError{Name: "similarity threshold", Value: options.Threshold, Reason: "must be in [0, 1]"}
	case options.BinCount < 1:
		return &vectorset.InvalidParameterError{Name: "histogram bins", Value: options.BinCount, Reason: "must be at least 1"}
	case options.TopK < 1:
		return &vectorset.InvalidParameterError{Name: "top pairs", Value: options.TopK, Reason: "must be at least 1"}
	}
	return nil
}

// ranksAbove orders pairs by similarity, then by lower indices first.
func ranksAbove(a, b Pair) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.IndexA != b.IndexA {
		return a.IndexA < b.IndexA
	}
	return a.IndexB < b.IndexB
}

// pairHeap is a min-heap whose root is the weakest retained pair.
type pairHeap []Pair

func (h pairHeap) Len() int           { return len(h) }
func (h pairHeap) Less(i, j int) bool { return ranksAbove(h[j], h[i]) }
func (h pairHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *pairHeap) Push(x any) { *h = append(*h, x.(Pair)) }

func (h *pairHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}
