// Package vectorset defines the embedding data model shared by every analysis
// stage: vectors of a uniform dimension, the documents they were embedded from,
// and the typed errors raised when a set cannot be analyzed.
//
// Index alignment is the central invariant. Vector i and Document i always refer
// to the same source record, and every derived structure (projected points,
// cluster assignments, sampled pairs) is addressed by that same index.
package vectorset

import (
	"fmt"
	"math"
)

// Vector is an ordered sequence of real numbers.
type Vector []float64

// Document is the optional text and metadata associated with a vector.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Set is an ordered sequence of vectors that all share one dimension.
// Construct it with New so the dimension invariant is checked.
type Set struct {
	vectors   []Vector
	dimension int
}

// New validates that every vector has the same length and only finite
// components, and returns a Set holding its own copy of the data.
func New(vectors [][]float64) (Set, error) {
	if len(vectors) == 0 {
		return Set{}, nil
	}

	expectedDimension := len(vectors[0])
	copied := make([]Vector, len(vectors))
	for vectorIndex, vector := range vectors {
		if len(vector) != expectedDimension {
			return Set{}, &DimensionMismatchError{Index: vectorIndex, Expected: expectedDimension, Got: len(vector)}
		}
		for componentIndex, value := range vector {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return Set{}, &InvalidParameterError{
					Name:   fmt.Sprintf("vector %d component %d", vectorIndex, componentIndex),
					Value:  value,
					Reason: "must be finite",
				}
			}
		}
		copied[vectorIndex] = append(Vector(nil), vector...)
	}

	return Set{vectors: copied, dimension: expectedDimension}, nil
}

// FromFloat32 converts float32 embeddings, as returned by embedding services and
// vector databases, into a validated Set.
func FromFloat32(vectors [][]float32) (Set, error) {
	converted := make([][]float64, len(vectors))
	for vectorIndex, vector := range vectors {
		row := make([]float64, len(vector))
		for componentIndex, value := range vector {
			row[componentIndex] = float64(value)
		}
		converted[vectorIndex] = row
	}
	return New(converted)
}

// Len returns the number of vectors N.
func (s Set) Len() int { return len(s.vectors) }

// Dimension returns the shared dimension D, or 0 for an empty set.
func (s Set) Dimension() int { return s.dimension }

// At returns vector i. The returned slice must not be modified.
func (s Set) At(i int) Vector { return s.vectors[i] }

// Clone returns a deep copy so concurrent runs never share backing arrays.
func (s Set) Clone() Set {
	copied := make([]Vector, len(s.vectors))
	for i, vector := range s.vectors {
		copied[i] = append(Vector(nil), vector...)
	}
	return Set{vectors: copied, dimension: s.dimension}
}

// Collection is one analysis input as supplied by a vector store: the vectors,
// their index-aligned documents and the name of the model that produced them.
type Collection struct {
	Vectors        Set
	Documents      []Document
	EmbeddingModel string
}

// Validate checks that documents, when present, are aligned one to one with vectors.
func (c Collection) Validate() error {
	if len(c.Documents) != 0 && len(c.Documents) != c.Vectors.Len() {
		return &InvalidParameterError{
			Name:   "documents",
			Value:  len(c.Documents),
			Reason: "document count must match vector count",
		}
	}
	return nil
}

// DocumentAt returns the document for vector i, or an empty document when the
// collection carries none.
func (c Collection) DocumentAt(i int) Document {
	if i >= 0 && i < len(c.Documents) {
		return c.Documents[i]
	}
	return Document{}
}

// Clone returns a deep copy of the vectors and a shallow copy of the documents.
func (c Collection) Clone() Collection {
	return Collection{
		Vectors:        c.Vectors.Clone(),
		Documents:      append([]Document(nil), c.Documents...),
		EmbeddingModel: c.EmbeddingModel,
	}
}
