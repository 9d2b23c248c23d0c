// Package cluster partitions embedding vectors into k groups with Lloyd's k-means.
//
// Everything random about a run comes from the caller's RandomSource, which is
// used once to pick k distinct starting vectors. The rest of the algorithm is
// deterministic: assignment ties go to the lowest cluster id, and a cluster
// left empty is reseeded with the input vector farthest from its nearest
// current centroid (lowest index on ties), so no new randomness enters mid-run.
package cluster

import (
	"math"

	"github.com/alDuncanson/latentscope/vectorset"
)

// Result is the outcome of a k-means run.
type Result struct {
	// Centroids holds k vectors of the input dimension.
	Centroids [][]float64

	// Assignment maps vector index to cluster id in [0, k).
	Assignment []int

	// Sizes holds the member count of each cluster. It always sums to N.
	Sizes []int

	// Iterations is the number of assignment passes actually performed.
	Iterations int

	// Converged reports whether assignments stopped changing before the iteration cap.
	Converged bool

	// Reseeds counts how many times an empty cluster was given a new centroid.
	Reseeds int
}

// KMeans clusters the set into k groups, running at most maxIterations
// assignment passes. Reaching the cap without converging is not an error; the
// caller can inspect Converged and Iterations.
func KMeans(vectors vectorset.Set, k, maxIterations int, rng vectorset.RandomSource) (*Result, error) {
	numberOfVectors := vectors.Len()
	if numberOfVectors < 1 {
		return nil, &vectorset.InsufficientDataError{Operation: "k-means", Required: 1, Got: numberOfVectors}
	}
	if k < 1 || k > numberOfVectors {
		return nil, &vectorset.InvalidClusterCountError{K: k, N: numberOfVectors}
	}
	if maxIterations < 1 {
		return nil, &vectorset.InvalidParameterError{Name: "max iterations", Value: maxIterations, Reason: "must be at least 1"}
	}

	centroids := make([][]float64, k)
	for clusterID, vectorIndex := range vectorset.SampleIndices(numberOfVectors, k, rng) {
		centroids[clusterID] = append([]float64(nil), vectors.At(vectorIndex)...)
	}

	result := &Result{Assignment: make([]int, numberOfVectors)}
	var previousAssignment []int

	for iteration := 1; iteration <= maxIterations; iteration++ {
		assignToNearest(vectors, centroids, result.Assignment)
		result.Iterations = iteration

		if previousAssignment != nil && sameAssignment(previousAssignment, result.Assignment) {
			result.Converged = true
			break
		}

		sizes := recomputeCentroids(vectors, centroids, result.Assignment)
		for clusterID, size := range sizes {
			if size == 0 {
				reseedEmptyCluster(vectors, centroids, clusterID)
				result.Reseeds++
			}
		}

		previousAssignment = append(previousAssignment[:0], result.Assignment...)
	}

	result.Centroids = centroids
	result.Sizes = clusterSizes(result.Assignment, k)
	return result, nil
}

// assignToNearest writes the id of the closest centroid for every vector.
// Strict comparison keeps the lowest id on ties.
func assignToNearest(vectors vectorset.Set, centroids [][]float64, assignment []int) {
	for vectorIndex := range assignment {
		assignment[vectorIndex], _ = nearestCentroid(vectors.At(vectorIndex), centroids)
	}
}

func nearestCentroid(vector []float64, centroids [][]float64) (int, float64) {
	bestCluster := 0
	bestDistance := math.Inf(1)
	for clusterID, centroid := range centroids {
		if distance := squaredEuclideanDistance(vector, centroid); distance < bestDistance {
			bestCluster = clusterID
			bestDistance = distance
		}
	}
	return bestCluster, bestDistance
}

// recomputeCentroids replaces every non-empty cluster's centroid with the mean of
// its members and returns the member counts. Empty clusters keep their old centroid.
func recomputeCentroids(vectors vectorset.Set, centroids [][]float64, assignment []int) []int {
	dimension := vectors.Dimension()
	sums := make([][]float64, len(centroids))
	for clusterID := range sums {
		sums[clusterID] = make([]float64, dimension)
	}
	sizes := make([]int, len(centroids))

	for vectorIndex, clusterID := range assignment {
		sizes[clusterID]++
		for componentIndex, value := range vectors.At(vectorIndex) {
			sums[clusterID][componentIndex] += value
		}
	}

	for clusterID, size := range sizes {
		if size == 0 {
			continue
		}
		for componentIndex := range sums[clusterID] {
			centroids[clusterID][componentIndex] = sums[clusterID][componentIndex] / float64(size)
		}
	}
	return sizes
}

// reseedEmptyCluster moves the centroid of an empty cluster onto the vector that
// is farthest from its nearest centroid. The empty cluster's own stale centroid
// is excluded from the distance so it cannot pin the choice.
func reseedEmptyCluster(vectors vectorset.Set, centroids [][]float64, emptyCluster int) {
	farthestIndex := 0
	farthestDistance := -1.0
	for vectorIndex := 0; vectorIndex < vectors.Len(); vectorIndex++ {
		vector := vectors.At(vectorIndex)
		nearestDistance := math.Inf(1)
		for clusterID, centroid := range centroids {
			if clusterID == emptyCluster {
				continue
			}
			if distance := squaredEuclideanDistance(vector, centroid); distance < nearestDistance {
				nearestDistance = distance
			}
		}
		if nearestDistance > farthestDistance {
			farthestIndex = vectorIndex
			farthestDistance = nearestDistance
		}
	}
	centroids[emptyCluster] = append(centroids[emptyCluster][:0], vectors.At(farthestIndex)...)
}

func clusterSizes(assignment []int, k int) []int {
	sizes := make([]int, k)
	for _, clusterID := range assignment {
		sizes[clusterID]++
	}
	return sizes
}

func sameAssignment(previous, current []int) bool {
	for vectorIndex := range current {
		if previous[vectorIndex] != current[vectorIndex] {
			return false
		}
	}
	return true
}

// squaredEuclideanDistance orders points the same way Euclidean distance does
// without the square root.
func squaredEuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
