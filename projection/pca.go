// Package projection provides dimensionality reduction for high-dimensional embedding vectors.
//
// # Principal Component Analysis (PCA) Overview
//
// PCA reduces high-dimensional data (like 768-dimensional text embeddings) down to
// a few dimensions (usually 2 for a scatter plot) while preserving as much variance
// as possible. It finds the directions (principal components) along which the data
// varies the most and projects every vector onto them.
//
// # Why We Eigendecompose the Covariance Matrix
//
// For a centered data matrix X with N rows, the sample covariance is
//
//	C = Xᵀ X / (N - 1)
//
// C is symmetric positive semi-definite, so it has real non-negative eigenvalues
// and an orthonormal basis of eigenvectors. Each eigenvector is a principal
// component and its eigenvalue is the variance captured along it. We solve the
// symmetric eigenproblem with gonum's EigenSym (LAPACK dsyev, a QR-based method),
// which converges reliably for D in the hundreds.
//
// # Determinism
//
// Eigenvectors are only defined up to sign, and equal eigenvalues can come back
// in any order. Two canonicalization rules make the output a pure function of
// the input:
//   - each eigenvector is flipped so its largest-magnitude component is positive
//   - exact eigenvalue ties are ordered by the eigenvector's dominant dimension
//     (the original dimension index holding that largest-magnitude component)
package projection

import (
	"fmt"
	"math"
	"sort"

	"github.com/alDuncanson/latentscope/vectorset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Projection is the result of reducing a vector set with PCA.
type Projection struct {
	// Points holds one row per input vector, index-aligned with the input set.
	// Each row has TargetDimension coordinates.
	Points [][]float64

	// Components holds the chosen unit eigenvectors (TargetDimension x D), strongest first.
	Components [][]float64

	// Eigenvalues holds the variance captured by each chosen component.
	Eigenvalues []float64

	// ExplainedVarianceRatio is each eigenvalue divided by the total variance.
	// It is all zeros when the input has no variance at all.
	ExplainedVarianceRatio []float64

	// Mean is the per-dimension mean that was subtracted before projecting.
	Mean []float64

	TargetDimension int
}

// Point returns the first two coordinates of projected point i for scatter rendering.
// The y coordinate is 0 for one-dimensional projections.
func (p *Projection) Point(i int) (x, y float64) {
	row := p.Points[i]
	x = row[0]
	if len(row) > 1 {
		y = row[1]
	}
	return x, y
}

// eigenpair couples an eigenvalue with its eigenvector and the dimension used for tie-breaking.
type eigenpair struct {
	value             float64
	vector            []float64
	dominantDimension int
}

// Reduce projects every vector in the set onto its top targetDimension principal components.
//
// Preconditions:
//   - the set holds at least 2 vectors (a single vector has no variance to analyze)
//   - 1 <= targetDimension <= D
//
// Steps:
//  1. Center the data by subtracting the per-dimension mean
//  2. Build the D x D sample covariance matrix
//  3. Eigendecompose it with a symmetric solver
//  4. Sort eigenpairs by eigenvalue descending and canonicalize signs
//  5. Project the centered vectors onto the top targetDimension eigenvectors
func Reduce(vectors vectorset.Set, targetDimension int) (*Projection, error) {
	numberOfVectors := vectors.Len()
	if numberOfVectors < 2 {
		return nil, &vectorset.InsufficientDataError{Operation: "pca", Required: 2, Got: numberOfVectors}
	}

	embeddingDimension := vectors.Dimension()
	if targetDimension < 1 || targetDimension > embeddingDimension {
		return nil, &vectorset.InvalidDimensionError{Requested: targetDimension, Max: embeddingDimension}
	}

	// Step 1: Center the data so the components pass through the centroid
	centeredDataMatrix, columnMeans := centerVectors(vectors)

	// Step 2: Sample covariance with the N-1 denominator
	var covarianceMatrix mat.SymDense
	stat.CovarianceMatrix(&covarianceMatrix, centeredDataMatrix, nil)

	// Step 3: Symmetric eigendecomposition
	eigenpairs, err := decomposeSymmetric(&covarianceMatrix)
	if err != nil {
		return nil, err
	}

	// Step 4: Canonical ordering, strongest variance first
	sortEigenpairs(eigenpairs)
	selectedEigenpairs := eigenpairs[:targetDimension]

	// Step 5: Project onto the chosen subspace
	componentMatrix := buildComponentMatrix(selectedEigenpairs, embeddingDimension)
	var projectedCoordinates mat.Dense
	projectedCoordinates.Mul(centeredDataMatrix, componentMatrix)

	return &Projection{
		Points:                 matrixRows(&projectedCoordinates),
		Components:             componentRows(selectedEigenpairs),
		Eigenvalues:            eigenvalues(selectedEigenpairs),
		ExplainedVarianceRatio: explainedVarianceRatios(selectedEigenpairs, eigenpairs),
		Mean:                   columnMeans,
		TargetDimension:        targetDimension,
	}, nil
}

// centerVectors copies the set into an N x D matrix and subtracts each column mean.
func centerVectors(vectors vectorset.Set) (*mat.Dense, []float64) {
	numberOfVectors := vectors.Len()
	embeddingDimension := vectors.Dimension()

	flattenedMatrixData := make([]float64, numberOfVectors*embeddingDimension)
	for rowIndex := 0; rowIndex < numberOfVectors; rowIndex++ {
		copy(flattenedMatrixData[rowIndex*embeddingDimension:], vectors.At(rowIndex))
	}
	dataMatrix := mat.NewDense(numberOfVectors, embeddingDimension, flattenedMatrixData)

	columnMeans := make([]float64, embeddingDimension)
	for columnIndex := 0; columnIndex < embeddingDimension; columnIndex++ {
		columnValues := mat.Col(nil, columnIndex, dataMatrix)
		columnMeans[columnIndex] = stat.Mean(columnValues, nil)
	}

	for rowIndex := 0; rowIndex < numberOfVectors; rowIndex++ {
		for columnIndex := 0; columnIndex < embeddingDimension; columnIndex++ {
			dataMatrix.Set(rowIndex, columnIndex, dataMatrix.At(rowIndex, columnIndex)-columnMeans[columnIndex])
		}
	}

	return dataMatrix, columnMeans
}

// decomposeSymmetric returns every eigenpair of the covariance matrix with
// sign-canonicalized eigenvectors. Eigenvalues below zero are floating-point
// noise on a positive semi-definite matrix and are clamped to zero.
func decomposeSymmetric(covarianceMatrix *mat.SymDense) ([]eigenpair, error) {
	var eigenDecomposition mat.EigenSym
	if !eigenDecomposition.Factorize(covarianceMatrix, true) {
		return nil, fmt.Errorf("pca: symmetric eigendecomposition did not converge")
	}

	values := eigenDecomposition.Values(nil)
	var eigenvectorMatrix mat.Dense
	eigenDecomposition.VectorsTo(&eigenvectorMatrix)

	pairs := make([]eigenpair, len(values))
	for pairIndex, value := range values {
		vector := mat.Col(nil, pairIndex, &eigenvectorMatrix)
		dominantDimension := largestMagnitudeIndex(vector)
		if vector[dominantDimension] < 0 {
			for componentIndex := range vector {
				vector[componentIndex] = -vector[componentIndex]
			}
		}
		if value < 0 {
			value = 0
		}
		pairs[pairIndex] = eigenpair{value: value, vector: vector, dominantDimension: dominantDimension}
	}
	return pairs, nil
}

// largestMagnitudeIndex returns the index of the component with the largest
// absolute value, preferring the lowest index on ties.
func largestMagnitudeIndex(vector []float64) int {
	bestIndex := 0
	bestMagnitude := math.Abs(vector[0])
	for componentIndex := 1; componentIndex < len(vector); componentIndex++ {
		if magnitude := math.Abs(vector[componentIndex]); magnitude > bestMagnitude {
			bestIndex = componentIndex
			bestMagnitude = magnitude
		}
	}
	return bestIndex
}

// sortEigenpairs orders by eigenvalue descending, then by dominant dimension ascending.
func sortEigenpairs(pairs []eigenpair) {
	sort.SliceStable(pairs, func(first, second int) bool {
		if pairs[first].value != pairs[second].value {
			return pairs[first].value > pairs[second].value
		}
		return pairs[first].dominantDimension < pairs[second].dominantDimension
	})
}

// buildComponentMatrix arranges the chosen eigenvectors as columns of a D x d matrix.
func buildComponentMatrix(selectedEigenpairs []eigenpair, embeddingDimension int) *mat.Dense {
	componentMatrix := mat.NewDense(embeddingDimension, len(selectedEigenpairs), nil)
	for componentIndex, pair := range selectedEigenpairs {
		componentMatrix.SetCol(componentIndex, pair.vector)
	}
	return componentMatrix
}

func matrixRows(matrix *mat.Dense) [][]float64 {
	numberOfRows, _ := matrix.Dims()
	rows := make([][]float64, numberOfRows)
	for rowIndex := range rows {
		rows[rowIndex] = mat.Row(nil, rowIndex, matrix)
	}
	return rows
}

func componentRows(pairs []eigenpair) [][]float64 {
	rows := make([][]float64, len(pairs))
	for pairIndex, pair := range pairs {
		rows[pairIndex] = append([]float64(nil), pair.vector...)
	}
	return rows
}

func eigenvalues(pairs []eigenpair) []float64 {
	values := make([]float64, len(pairs))
	for pairIndex, pair := range pairs {
		values[pairIndex] = pair.value
	}
	return values
}

// explainedVarianceRatios divides each selected eigenvalue by the trace of the
// covariance matrix. Zero total variance yields zero ratios instead of NaN.
func explainedVarianceRatios(selected, all []eigenpair) []float64 {
	var totalVariance float64
	for _, pair := range all {
		totalVariance += pair.value
	}

	ratios := make([]float64, len(selected))
	if totalVariance == 0 {
		return ratios
	}
	for pairIndex, pair := range selected {
		ratios[pairIndex] = pair.value / totalVariance
	}
	return ratios
}
