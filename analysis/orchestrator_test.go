package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alDuncanson/latentscope/vectorset"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// groupedCollection returns three tight groups of four vectors each.
func groupedCollection(t *testing.T) vectorset.Collection {
	t.Helper()
	centers := [][]float64{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}}
	offsets := [][]float64{{0.1, 0, 0}, {0, 0.1, 0}, {0, 0, 0.1}, {-0.1, -0.1, 0}}

	var vectors [][]float64
	var documents []vectorset.Document
	for groupIndex, center := range centers {
		for offsetIndex, offset := range offsets {
			vectors = append(vectors, []float64{center[0] + offset[0], center[1] + offset[1], center[2] + offset[2]})
			documents = append(documents, vectorset.Document{
				ID:   fmt.Sprintf("doc-%d-%d", groupIndex, offsetIndex),
				Text: fmt.Sprintf("group %d   member\n%d", groupIndex, offsetIndex),
			})
		}
	}

	set, err := vectorset.New(vectors)
	if err != nil {
		t.Fatalf("building set: %v", err)
	}
	return vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: "nomic-embed-text"}
}

func seededParams(seed int64) Params {
	params := DefaultParams()
	params.TargetClusterCount = 3
	params.SampleSize = 50
	return params.WithSeed(seed)
}

func TestRunFullAnalysis_MergesByIndex(t *testing.T) {
	collection := groupedCollection(t)
	orchestrator := NewOrchestrator(nil)

	result, err := orchestrator.RunFullAnalysis(context.Background(), collection, seededParams(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusComplete {
		t.Fatalf("expected complete status, got %s", result.Status)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if len(result.Points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(result.Points))
	}
	for index, point := range result.Points {
		if point.Index != index {
			t.Errorf("point %d carries index %d", index, point.Index)
		}
		if point.DocumentID != collection.Documents[index].ID {
			t.Errorf("point %d has document %q, expected %q", index, point.DocumentID, collection.Documents[index].ID)
		}
		if len(point.Coordinates) != 2 {
			t.Errorf("point %d has %d coordinates", index, len(point.Coordinates))
		}
		if point.ClusterID < 0 || point.ClusterID >= 3 {
			t.Errorf("point %d has cluster %d", index, point.ClusterID)
		}
	}

	total := 0
	for _, size := range result.Clusters.Sizes {
		total += size
	}
	if total != 12 {
		t.Errorf("cluster sizes sum to %d", total)
	}

	if len(result.VarianceRanking) != 3 {
		t.Errorf("expected a variance entry per dimension, got %d", len(result.VarianceRanking))
	}
	if len(result.ExplainedVariance) != 2 {
		t.Errorf("expected explained variance for 2 components, got %d", len(result.ExplainedVariance))
	}
	if result.Similarity == nil || result.Similarity.Stats.PairCount != 66 {
		t.Errorf("expected 66 sampled pairs over the full set")
	}
	if result.Provenance.Family != FamilyNomic {
		t.Errorf("expected nomic provenance, got %v", result.Provenance)
	}
	if result.Points[0].Excerpt != "group 0 member 0" {
		t.Errorf("expected collapsed excerpt, got %q", result.Points[0].Excerpt)
	}
}

func TestRunFullAnalysis_Deterministic(t *testing.T) {
	collection := groupedCollection(t)
	orchestrator := NewOrchestrator(nil)

	first, err := orchestrator.RunFullAnalysis(context.Background(), collection, seededParams(99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := orchestrator.RunFullAnalysis(context.Background(), collection, seededParams(99))

	for index := range first.Points {
		if first.Points[index].X != second.Points[index].X || first.Points[index].ClusterID != second.Points[index].ClusterID {
			t.Fatalf("point %d differs between identical runs", index)
		}
	}
	if first.Seed != 99 {
		t.Errorf("expected seed 99 recorded, got %d", first.Seed)
	}
}

func TestRunFullAnalysis_InsufficientData(t *testing.T) {
	for _, vectors := range [][][]float64{nil, {{1, 2, 3}}} {
		set, _ := vectorset.New(vectors)
		result, err := NewOrchestrator(nil).RunFullAnalysis(context.Background(), vectorset.Collection{Vectors: set}, seededParams(1))
		if err != nil {
			t.Fatalf("N=%d: degenerate input must not be an error: %v", len(vectors), err)
		}
		if result.Status != StatusInsufficientData {
			t.Errorf("N=%d: expected insufficient data status, got %s", len(vectors), result.Status)
		}
		if len(result.Points) != 0 || result.Similarity != nil {
			t.Errorf("N=%d: expected no derived output", len(vectors))
		}
	}
}

func TestRunFullAnalysis_ClusterCountAboveN(t *testing.T) {
	set, _ := vectorset.New([][]float64{{1, 0}, {0, 1}})
	_, err := NewOrchestrator(nil).RunFullAnalysis(context.Background(), vectorset.Collection{Vectors: set}, seededParams(1))
	if !errors.Is(err, vectorset.ErrInvalidClusterCount) {
		t.Errorf("expected ErrInvalidClusterCount, got %v", err)
	}
}

func TestRunFullAnalysis_DimensionAboveD(t *testing.T) {
	params := seededParams(1)
	params.ProjectionDimensions = 4
	_, err := NewOrchestrator(nil).RunFullAnalysis(context.Background(), groupedCollection(t), params)
	if !errors.Is(err, vectorset.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestRunFullAnalysis_InvalidParams(t *testing.T) {
	params := seededParams(1)
	params.SampleSize = 75
	_, err := NewOrchestrator(nil).RunFullAnalysis(context.Background(), groupedCollection(t), params)
	if !errors.Is(err, vectorset.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRunFullAnalysis_MisalignedDocuments(t *testing.T) {
	collection := groupedCollection(t)
	collection.Documents = collection.Documents[:5]
	_, err := NewOrchestrator(nil).RunFullAnalysis(context.Background(), collection, seededParams(1))
	if !errors.Is(err, vectorset.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRunFullAnalysis_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(nil).RunFullAnalysis(ctx, groupedCollection(t), seededParams(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunFullAnalysis_LogsFirstPointOncePerRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	orchestrator := NewOrchestrator(zap.New(core))

	for run := 0; run < 2; run++ {
		if _, err := orchestrator.RunFullAnalysis(context.Background(), groupedCollection(t), seededParams(5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := logs.FilterMessage("first merged point").Len(); got != 2 {
		t.Errorf("expected one first-point entry per run, got %d", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("  short\ttext\n", 20); got != "short text" {
		t.Errorf("expected collapsed text, got %q", got)
	}
	long := strings.Repeat("word ", 20)
	got := Excerpt(long, 12)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if len([]rune(got)) > 12 {
		t.Errorf("excerpt %q wider than 12 cells", got)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	mutations := map[string]func(*Params){
		"k below range":  func(p *Params) { p.TargetClusterCount = 2 },
		"k above range":  func(p *Params) { p.TargetClusterCount = 11 },
		"sample size":    func(p *Params) { p.SampleSize = 150 },
		"threshold":      func(p *Params) { p.SimilarityThreshold = 1.2 },
		"dimensions":     func(p *Params) { p.ProjectionDimensions = 0 },
		"max iterations": func(p *Params) { p.MaxIterations = 0 },
		"histogram bins": func(p *Params) { p.HistogramBins = 0 },
		"top pairs":      func(p *Params) { p.TopK = 0 },
		"excerpt length": func(p *Params) { p.ExcerptLength = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			params := DefaultParams()
			mutate(&params)
			if err := params.Validate(); !errors.Is(err, vectorset.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestNextSampleSize(t *testing.T) {
	tests := map[int]int{50: 100, 100: 200, 200: 500, 500: 50, 7: 50}
	for current, expected := range tests {
		if got := NextSampleSize(current); got != expected {
			t.Errorf("NextSampleSize(%d) = %d, expected %d", current, got, expected)
		}
	}
}
