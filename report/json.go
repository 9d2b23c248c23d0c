package report

import (
	"encoding/json"
	"io"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/projection"
	"github.com/alDuncanson/latentscope/similarity"
)

type jsonReport struct {
	RunID             string                         `json:"run_id"`
	Status            analysis.Status                `json:"status"`
	EmbeddingModel    string                         `json:"embedding_model,omitempty"`
	Provenance        string                         `json:"provenance"`
	VectorCount       int                            `json:"vector_count"`
	Dimension         int                            `json:"dimension"`
	Seed              int64                          `json:"seed"`
	DurationMillis    int64                          `json:"duration_ms"`
	ExplainedVariance []float64                      `json:"explained_variance,omitempty"`
	Clusters          *jsonClusters                  `json:"clusters,omitempty"`
	Similarity        *jsonSimilarity                `json:"similarity,omitempty"`
	VarianceRanking   []projection.DimensionVariance `json:"variance_ranking,omitempty"`
	Points            []jsonPoint                    `json:"points,omitempty"`
	WarningCount      int                            `json:"warning_count"`
}

type jsonClusters struct {
	Count      int   `json:"count"`
	Sizes      []int `json:"sizes"`
	Iterations int   `json:"iterations"`
	Converged  bool  `json:"converged"`
	Reseeds    int   `json:"reseeds"`
}

type jsonSimilarity struct {
	Stats     similarity.Stats `json:"stats"`
	Histogram []similarity.Bin `json:"histogram"`
	TopPairs  []jsonPair       `json:"top_pairs"`
}

type jsonPair struct {
	IndexA     int     `json:"index_a"`
	IndexB     int     `json:"index_b"`
	Similarity float64 `json:"similarity"`
	DocumentA  string  `json:"document_a,omitempty"`
	DocumentB  string  `json:"document_b,omitempty"`
}

type jsonPoint struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	ClusterID  int     `json:"cluster"`
	DocumentID string  `json:"document_id,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty"`
}

// WriteJSON encodes result as indented JSON. Pairwise similarities are omitted;
// the histogram and top pairs summarize them.
func WriteJSON(w io.Writer, result *analysis.CombinedResult) error {
	out := jsonReport{
		RunID:             result.RunID,
		Status:            result.Status,
		EmbeddingModel:    result.EmbeddingModel,
		Provenance:        result.Provenance.String(),
		VectorCount:       result.VectorCount,
		Dimension:         result.Dimension,
		Seed:              result.Seed,
		DurationMillis:    result.Duration.Milliseconds(),
		ExplainedVariance: result.ExplainedVariance,
		VarianceRanking:   result.VarianceRanking,
		WarningCount:      len(result.Warnings),
	}

	if result.Status == analysis.StatusComplete {
		out.Clusters = &jsonClusters{
			Count:      result.Clusters.Count,
			Sizes:      result.Clusters.Sizes,
			Iterations: result.Clusters.Iterations,
			Converged:  result.Clusters.Converged,
			Reseeds:    result.Clusters.Reseeds,
		}
		for _, point := range result.Points {
			out.Points = append(out.Points, jsonPoint{
				Index:      point.Index,
				X:          point.X,
				Y:          point.Y,
				ClusterID:  point.ClusterID,
				DocumentID: point.DocumentID,
				Excerpt:    point.Excerpt,
			})
		}
	}

	if analyzed := result.Similarity; analyzed != nil {
		summary := &jsonSimilarity{Stats: analyzed.Stats, Histogram: analyzed.Histogram.Bins}
		for _, pair := range analyzed.TopPairs {
			summary.TopPairs = append(summary.TopPairs, jsonPair{
				IndexA:     pair.IndexA,
				IndexB:     pair.IndexB,
				Similarity: pair.Similarity,
				DocumentA:  pair.DocumentA.ID,
				DocumentB:  pair.DocumentB.ID,
			})
		}
		out.Similarity = summary
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
