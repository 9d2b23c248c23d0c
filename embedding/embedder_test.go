package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/alDuncanson/latentscope/vectorset"
)

type lengthEmbedder struct {
	calls int
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if text == "" {
		return nil, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *lengthEmbedder) Model() string { return "length" }

func TestEmbedDocuments(t *testing.T) {
	documents := []vectorset.Document{{Text: "a"}, {Text: "abc"}, {Text: "ab"}}
	var progressCalls []int

	set, err := EmbedDocuments(context.Background(), &lengthEmbedder{}, documents, func(done, total int) {
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		progressCalls = append(progressCalls, done)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Len() != 3 || set.Dimension() != 2 {
		t.Fatalf("unexpected set shape %dx%d", set.Len(), set.Dimension())
	}
	for index, expected := range []float64{1, 3, 2} {
		if set.At(index)[0] != expected {
			t.Errorf("vector %d out of order: %v", index, set.At(index))
		}
	}
	if len(progressCalls) != 3 || progressCalls[2] != 3 {
		t.Errorf("unexpected progress calls %v", progressCalls)
	}
}

func TestEmbedDocuments_EmptyTextFails(t *testing.T) {
	documents := []vectorset.Document{{Text: "a"}, {Text: ""}}
	_, err := EmbedDocuments(context.Background(), &lengthEmbedder{}, documents, nil)
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestEmbedDocuments_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := &lengthEmbedder{}
	_, err := EmbedDocuments(ctx, embedder, []vectorset.Document{{Text: "a"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("expected no embed calls after cancellation, got %d", embedder.calls)
	}
}
