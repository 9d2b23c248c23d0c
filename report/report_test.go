package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/projection"
	"github.com/alDuncanson/latentscope/similarity"
	"github.com/alDuncanson/latentscope/vectorset"
)

func completedResult(t *testing.T) *analysis.CombinedResult {
	t.Helper()
	set, err := vectorset.New([][]float64{
		{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}, {0.1, 0.9, 0}, {0, 0, 1}, {0, 0.1, 0.9},
	})
	if err != nil {
		t.Fatal(err)
	}
	documents := make([]vectorset.Document, set.Len())
	for i := range documents {
		documents[i] = vectorset.Document{ID: string(rune('a' + i)), Text: "document " + string(rune('a'+i))}
	}

	params := analysis.DefaultParams().WithSeed(7)
	params.TargetClusterCount = 3
	params.SampleSize = 50
	result, err := analysis.NewOrchestrator(nil).RunFullAnalysis(context.Background(),
		vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: "bge-small-en"}, params)
	if err != nil {
		t.Fatalf("RunFullAnalysis() error = %v", err)
	}
	return result
}

func TestRender_Complete(t *testing.T) {
	output := Render(completedResult(t), 100)

	for _, want := range []string{"Collection", "6 × 3", "bge-small-en", "bge (by model)", "Similarity", "15 pairs", "Distribution", "Most similar pairs", "Dimension variance"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestRender_InsufficientData(t *testing.T) {
	result := &analysis.CombinedResult{Status: analysis.StatusInsufficientData, VectorCount: 1, Dimension: 4}
	output := Render(result, 80)
	if !strings.Contains(output, "not enough vectors") {
		t.Errorf("expected insufficient data notice, got %q", output)
	}
	if strings.Contains(output, "Distribution") {
		t.Error("histogram should not render without a similarity analysis")
	}
}

func TestRender_Nil(t *testing.T) {
	if Render(nil, 80) != "" {
		t.Error("expected empty output for nil result")
	}
}

func TestHistogram_ScalesToFullestBin(t *testing.T) {
	histogram := similarity.Histogram{Bins: []similarity.Bin{
		{Lower: -1, Upper: 0, Count: 2},
		{Lower: 0, Upper: 1, Count: 8},
	}}
	output := Histogram(histogram, 0.5, 44)
	lines := strings.Split(output, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two bins, got %d lines", len(lines))
	}
	if got := strings.Count(lines[2], "█"); got != 20 {
		t.Errorf("expected fullest bin at full width 20, got %d", got)
	}
	if got := strings.Count(lines[1], "█"); got != 5 {
		t.Errorf("expected quarter bin at width 5, got %d", got)
	}
}

func TestHistogram_EmptyBinHasNoBar(t *testing.T) {
	histogram := similarity.Histogram{Bins: []similarity.Bin{{Lower: -1, Upper: 1, Count: 0}}}
	if strings.Contains(Histogram(histogram, 0.75, 60), "█") {
		t.Error("expected no bar for empty histogram")
	}
}

func TestTopPairs(t *testing.T) {
	pairs := []similarity.TopPair{{
		Pair:      similarity.Pair{IndexA: 1, IndexB: 4, Similarity: 0.9876},
		DocumentA: vectorset.Document{ID: "x", Text: "a very long document   text that will need to be truncated for display"},
		DocumentB: vectorset.Document{ID: "y"},
	}}
	output := TopPairs(pairs, 60)
	if !strings.Contains(output, "0.9876") || !strings.Contains(output, "#1") || !strings.Contains(output, "#4 y") {
		t.Errorf("unexpected pairs output %q", output)
	}
	if !strings.Contains(output, "…") {
		t.Error("expected long text truncated with an ellipsis")
	}

	if !strings.Contains(TopPairs(nil, 60), "no pairs above threshold") {
		t.Error("expected empty notice")
	}
}

func TestVariance_Limit(t *testing.T) {
	ranking := []projection.DimensionVariance{{Dimension: 2, Variance: 4}, {Dimension: 0, Variance: 2}, {Dimension: 1, Variance: 1}}
	output := Variance(ranking, 2, 60)
	if !strings.Contains(output, "dim    2") || !strings.Contains(output, "dim    0") {
		t.Errorf("expected top two dimensions, got %q", output)
	}
	if strings.Contains(output, "dim    1") {
		t.Error("expected third dimension cut by limit")
	}
}

func TestLabel(t *testing.T) {
	if got := label("id-1", "", 20); got != "id-1" {
		t.Errorf("expected id fallback, got %q", got)
	}
	if got := label("", "", 20); got != "(no text)" {
		t.Errorf("expected placeholder, got %q", got)
	}
	if got := label("", "line one\nline two", 40); got != "line one line two" {
		t.Errorf("expected whitespace collapsed, got %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buffer bytes.Buffer
	if err := WriteJSON(&buffer, completedResult(t)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["status"] != "complete" || decoded["vector_count"] != float64(6) {
		t.Errorf("unexpected header fields %v", decoded)
	}
	if points, ok := decoded["points"].([]any); !ok || len(points) != 6 {
		t.Errorf("expected six points, got %v", decoded["points"])
	}
	if _, ok := decoded["similarity"].(map[string]any); !ok {
		t.Error("expected similarity section")
	}
}
