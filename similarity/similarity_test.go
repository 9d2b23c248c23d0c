package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/alDuncanson/latentscope/vectorset"
)

func mustSet(t *testing.T, vectors [][]float64) vectorset.Set {
	t.Helper()
	set, err := vectorset.New(vectors)
	if err != nil {
		t.Fatalf("building set: %v", err)
	}
	return set
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"scaled", []float64{1, 2}, []float64{10, 20}, 1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("cosine returned NaN")
			}
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float64{0.3, -1.2, 4.5}
	b := []float64{2.2, 0.1, -0.7}
	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("cosine not symmetric: %f vs %f", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_ExtremeMagnitudes(t *testing.T) {
	large := []float64{1e200, 1e200}
	tiny := []float64{1e-170, 2e-170}

	if got := Cosine(large, large); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1 for identical large vectors, got %v", got)
	}
	if got := Cosine(tiny, tiny); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1 for identical tiny vectors, got %v", got)
	}
	if got := Cosine(large, []float64{1e200, -1e200}); math.Abs(got) > 1e-9 {
		t.Errorf("expected 0 for orthogonal large vectors, got %v", got)
	}
	if got := Cosine(tiny, []float64{3, 6}); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1 for parallel vectors of different scale, got %v", got)
	}
}

func TestAnalyze_ExtremeMagnitudesStayFinite(t *testing.T) {
	set := mustSet(t, [][]float64{{1e200, 1e200}, {1e200, -1e200}, {3, 4}})
	analysis, err := Analyze(set, nil, Options{SampleSize: 50, Threshold: 0.5, BinCount: 10, TopK: 3}, vectorset.NewRandomSource(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := analysis.Stats
	for name, value := range map[string]float64{"mean": stats.Mean, "median": stats.Median, "min": stats.Min, "max": stats.Max} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Errorf("%s is not finite: %v", name, value)
		}
	}
	if stats.Max < 0.98 {
		t.Errorf("expected {1e200,1e200} and {3,4} to be highly similar, max %v", stats.Max)
	}
}

func TestBinIndex(t *testing.T) {
	tests := []struct {
		similarity float64
		expected   int
	}{
		{-1, 0},
		{-0.95, 0},
		{-0.75, 2},
		{0, 10},
		{0.74, 17},
		{0.999, 19},
		{1, 19},
	}
	for _, tt := range tests {
		if got := binIndex(tt.similarity, 20); got != tt.expected {
			t.Errorf("binIndex(%f) = %d, expected %d", tt.similarity, got, tt.expected)
		}
	}
}

func TestNewHistogram_SpansRange(t *testing.T) {
	histogram := newHistogram(4)
	if len(histogram.Bins) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(histogram.Bins))
	}
	if histogram.Bins[0].Lower != -1 || histogram.Bins[3].Upper != 1 {
		t.Errorf("bins should span [-1, 1], got %+v", histogram.Bins)
	}
	if histogram.Bins[1].Lower != histogram.Bins[0].Upper {
		t.Errorf("bins should be contiguous: %+v", histogram.Bins)
	}
}

func TestAnalyze_FullSet(t *testing.T) {
	set := mustSet(t, [][]float64{{1, 0}, {0, 1}, {1, 1}, {-1, -1}})
	options := DefaultOptions()

	analysis, err := Analyze(set, nil, options, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.SampleIndices) != 4 {
		t.Errorf("expected full set sampled, got %v", analysis.SampleIndices)
	}
	if len(analysis.Pairs) != 6 || analysis.Stats.PairCount != 6 {
		t.Errorf("expected 6 pairs, got %d", len(analysis.Pairs))
	}
	if analysis.Histogram.Total() != 6 {
		t.Errorf("histogram total %d should equal pair count", analysis.Histogram.Total())
	}
	for _, pair := range analysis.Pairs {
		if pair.IndexA >= pair.IndexB {
			t.Errorf("pair indices not ordered: %+v", pair)
		}
	}
	if analysis.Stats.Min != -1 {
		t.Errorf("expected min -1 for opposite vectors, got %f", analysis.Stats.Min)
	}
	if analysis.Stats.Max > 1 || analysis.Stats.Min < -1 {
		t.Errorf("stats outside [-1, 1]: %+v", analysis.Stats)
	}
}

func TestAnalyze_StatsAndTopPairs(t *testing.T) {
	// Similarities: (0,1)=1, (0,2)=0, (1,2)=0.
	set := mustSet(t, [][]float64{{1, 0}, {2, 0}, {0, 1}})
	documents := []vectorset.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	analysis, err := Analyze(set, documents, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := analysis.Stats
	if math.Abs(stats.Mean-1.0/3.0) > 1e-12 {
		t.Errorf("expected mean 1/3, got %f", stats.Mean)
	}
	if stats.Median != 0 {
		t.Errorf("expected median 0, got %f", stats.Median)
	}
	if stats.AboveThreshold != 1 || math.Abs(stats.AboveThresholdFraction-1.0/3.0) > 1e-12 {
		t.Errorf("expected one pair above 0.75, got %+v", stats)
	}

	if len(analysis.TopPairs) != 1 {
		t.Fatalf("expected one top pair, got %d", len(analysis.TopPairs))
	}
	top := analysis.TopPairs[0]
	if top.IndexA != 0 || top.IndexB != 1 {
		t.Errorf("unexpected top pair %+v", top.Pair)
	}
	if top.DocumentA.ID != "a" || top.DocumentB.ID != "b" {
		t.Errorf("top pair documents not attached: %+v", top)
	}
}

func TestAnalyze_TopPairsOrderedAndCapped(t *testing.T) {
	set := mustSet(t, [][]float64{{1, 0}, {1, 0}, {1, 0.1}, {1, 0.2}, {0, 1}})
	options := DefaultOptions()
	options.Threshold = 0
	options.TopK = 3

	analysis, err := Analyze(set, nil, options, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.TopPairs) != 3 {
		t.Fatalf("expected 3 top pairs, got %d", len(analysis.TopPairs))
	}
	if analysis.TopPairs[0].IndexA != 0 || analysis.TopPairs[0].IndexB != 1 {
		t.Errorf("identical vectors should rank first, got %+v", analysis.TopPairs[0].Pair)
	}
	for position := 1; position < len(analysis.TopPairs); position++ {
		if analysis.TopPairs[position].Similarity > analysis.TopPairs[position-1].Similarity {
			t.Errorf("top pairs not descending at %d", position)
		}
	}
}

func TestAnalyze_TiesOrderedByIndex(t *testing.T) {
	set := mustSet(t, [][]float64{{1, 0}, {1, 0}, {1, 0}})
	options := DefaultOptions()
	options.TopK = 2

	analysis, err := Analyze(set, nil, options, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := [][2]int{{0, 1}, {0, 2}}
	for position, want := range expected {
		got := analysis.TopPairs[position]
		if got.IndexA != want[0] || got.IndexB != want[1] {
			t.Errorf("position %d: expected %v, got (%d,%d)", position, want, got.IndexA, got.IndexB)
		}
	}
}

func TestAnalyze_ZeroVectorWarning(t *testing.T) {
	set := mustSet(t, [][]float64{{0, 0}, {1, 0}, {0, 1}})

	analysis, err := Analyze(set, nil, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Warnings) != 1 || analysis.Warnings[0].Index != 0 {
		t.Errorf("expected a warning for vector 0, got %v", analysis.Warnings)
	}
	for _, pair := range analysis.Pairs {
		if math.IsNaN(pair.Similarity) {
			t.Errorf("NaN similarity for pair %+v", pair)
		}
	}
}

func TestAnalyze_Sampled(t *testing.T) {
	vectors := make([][]float64, 30)
	for i := range vectors {
		vectors[i] = []float64{math.Cos(float64(i)), math.Sin(float64(i)), 1}
	}
	set := mustSet(t, vectors)
	options := DefaultOptions()
	options.SampleSize = 10

	analysis, err := Analyze(set, nil, options, vectorset.NewRandomSource(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.SampleIndices) != 10 {
		t.Fatalf("expected 10 sampled vectors, got %d", len(analysis.SampleIndices))
	}
	if len(analysis.Pairs) != 45 || analysis.Histogram.Total() != 45 {
		t.Errorf("expected 45 pairs, got %d (histogram %d)", len(analysis.Pairs), analysis.Histogram.Total())
	}
	for position := 1; position < len(analysis.SampleIndices); position++ {
		if analysis.SampleIndices[position] <= analysis.SampleIndices[position-1] {
			t.Fatalf("sample indices not strictly ascending: %v", analysis.SampleIndices)
		}
	}

	again, _ := Analyze(set, nil, options, vectorset.NewRandomSource(7))
	for position := range analysis.SampleIndices {
		if analysis.SampleIndices[position] != again.SampleIndices[position] {
			t.Fatalf("same seed produced different samples: %v vs %v", analysis.SampleIndices, again.SampleIndices)
		}
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	for _, vectors := range [][][]float64{nil, {{1, 2}}} {
		_, err := Analyze(mustSet(t, vectors), nil, DefaultOptions(), nil)
		if !errors.Is(err, vectorset.ErrInsufficientData) {
			t.Errorf("N=%d: expected ErrInsufficientData, got %v", len(vectors), err)
		}
	}
}

func TestAnalyze_InvalidOptions(t *testing.T) {
	set := mustSet(t, [][]float64{{1, 0}, {0, 1}})
	mutations := map[string]func(*Options){
		"sample size":    func(o *Options) { o.SampleSize = 1 },
		"threshold low":  func(o *Options) { o.Threshold = -0.1 },
		"threshold high": func(o *Options) { o.Threshold = 1.5 },
		"bins":           func(o *Options) { o.BinCount = 0 },
		"top pairs":      func(o *Options) { o.TopK = 0 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			options := DefaultOptions()
			mutate(&options)
			_, err := Analyze(set, nil, options, nil)
			if !errors.Is(err, vectorset.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestUpdateThreshold_ReusesPairs(t *testing.T) {
	vectors := make([][]float64, 40)
	for i := range vectors {
		vectors[i] = []float64{math.Cos(float64(i) / 5), math.Sin(float64(i) / 5)}
	}
	set := mustSet(t, vectors)
	options := DefaultOptions()
	options.SampleSize = 12

	analysis, err := Analyze(set, nil, options, vectorset.NewRandomSource(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	originalSample := append([]int(nil), analysis.SampleIndices...)
	originalStats := analysis.Stats

	stats, topPairs, err := analysis.UpdateThreshold(0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedAbove := 0
	for _, pair := range analysis.Pairs {
		if pair.Similarity > 0.2 {
			expectedAbove++
		}
	}
	if stats.AboveThreshold != expectedAbove {
		t.Errorf("expected %d above threshold, got %d", expectedAbove, stats.AboveThreshold)
	}
	if stats.Threshold != 0.2 {
		t.Errorf("expected threshold 0.2, got %f", stats.Threshold)
	}
	if stats.Mean != originalStats.Mean || stats.Median != originalStats.Median {
		t.Error("threshold change must not alter distribution statistics")
	}
	for _, pair := range topPairs {
		if pair.Similarity <= 0.2 {
			t.Errorf("top pair %+v is not above the new threshold", pair.Pair)
		}
	}

	for position, index := range originalSample {
		if analysis.SampleIndices[position] != index {
			t.Fatal("sample changed after threshold update")
		}
	}
	if analysis.Stats != originalStats {
		t.Error("UpdateThreshold must not modify the analysis")
	}
}

func TestUpdateThreshold_Invalid(t *testing.T) {
	analysis, err := Analyze(mustSet(t, [][]float64{{1, 0}, {0, 1}}), nil, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := analysis.UpdateThreshold(1.01); !errors.Is(err, vectorset.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{1, 2, 3}); got != 2 {
		t.Errorf("odd median: expected 2, got %f", got)
	}
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("even median: expected 2.5, got %f", got)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	vectors := make([][]float64, 1000)
	for i := range vectors {
		vectors[i] = make([]float64, 128)
		for j := range vectors[i] {
			vectors[i][j] = math.Sin(float64(i*13 + j))
		}
	}
	set, _ := vectorset.New(vectors)
	options := DefaultOptions()
	options.SampleSize = 200

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Analyze(set, nil, options, vectorset.NewRandomSource(int64(i)))
	}
}
