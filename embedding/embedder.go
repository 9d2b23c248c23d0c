// Package embedding defines the interface for text embedding providers and the
// helper that turns text-only documents into a vector set. Ollama and Hugging
// Face clients implement Embedder interchangeably.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/alDuncanson/latentscope/vectorset"
)

// ErrEmptyEmbedding is returned when a provider answers with no vector.
var ErrEmptyEmbedding = errors.New("empty embedding")

// Embedder is the interface that text embedding providers must implement.
type Embedder interface {
	// Embed converts the provided text into a vector embedding.
	// If the input text is empty, Embed should return nil without error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model names the embedding model, echoed in analysis output.
	Model() string
}

// Progress is called after each document is embedded.
type Progress func(done, total int)

// EmbedDocuments embeds every document's text in order and returns the
// resulting set, index-aligned with documents. A document that embeds to nothing
// is an error, since dropping it would break alignment.
func EmbedDocuments(ctx context.Context, embedder Embedder, documents []vectorset.Document, progress Progress) (vectorset.Set, error) {
	vectors := make([][]float32, len(documents))
	for documentIndex, document := range documents {
		if err := ctx.Err(); err != nil {
			return vectorset.Set{}, err
		}
		vector, err := embedder.Embed(ctx, document.Text)
		if err != nil {
			return vectorset.Set{}, fmt.Errorf("embed document %d: %w", documentIndex, err)
		}
		if len(vector) == 0 {
			return vectorset.Set{}, fmt.Errorf("embed document %d: %w", documentIndex, ErrEmptyEmbedding)
		}
		vectors[documentIndex] = vector
		if progress != nil {
			progress(documentIndex+1, len(documents))
		}
	}
	return vectorset.FromFloat32(vectors)
}
