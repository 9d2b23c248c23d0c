// Package analysis composes projection, clustering and similarity into one
// index-aligned result, and dispatches those runs in the background so that
// only the latest submission for a source is ever delivered.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alDuncanson/latentscope/cluster"
	"github.com/alDuncanson/latentscope/logging"
	"github.com/alDuncanson/latentscope/projection"
	"github.com/alDuncanson/latentscope/similarity"
	"github.com/alDuncanson/latentscope/vectorset"
	"github.com/google/uuid"
	"github.com/muesli/reflow/truncate"
	"go.uber.org/zap"
)

// Status reports whether a run produced a full result.
type Status string

const (
	StatusComplete         Status = "complete"
	StatusInsufficientData Status = "insufficient_data"
)

// PointView is one vector as the presentation layer sees it.
type PointView struct {
	Index int

	// Coordinates holds all projected components; X and Y are the first two.
	Coordinates []float64
	X           float64
	Y           float64

	ClusterID  int
	DocumentID string
	Excerpt    string
}

// ClusterSummary describes the k-means outcome.
type ClusterSummary struct {
	Count      int
	Sizes      []int
	Centroids  [][]float64
	Iterations int
	Converged  bool
	Reseeds    int
}

// CombinedResult merges every stage of one run by vector index.
type CombinedResult struct {
	RunID          string
	Status         Status
	EmbeddingModel string
	Provenance     Provenance
	VectorCount    int
	Dimension      int
	Params         Params
	Seed           int64

	Points            []PointView
	VarianceRanking   []projection.DimensionVariance
	Eigenvalues       []float64
	ExplainedVariance []float64
	Clusters          ClusterSummary
	Similarity        *similarity.Analysis

	Warnings []vectorset.NumericDegeneracyWarning
	Duration time.Duration
}

// Orchestrator runs full analyses. It holds no per-run state and is safe for
// concurrent use.
type Orchestrator struct {
	logger *zap.Logger
}

// NewOrchestrator returns an Orchestrator that logs through logger. A nil
// logger discards output.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logging.OrNop(logger)}
}

// RunFullAnalysis projects, clusters and analyzes the similarity of a
// collection. Clustering runs on the original vectors, not the projection.
//
// A collection with fewer than two vectors yields a result with
// StatusInsufficientData and no error. Cancelling ctx abandons the run between
// stages and returns the context error.
func (o *Orchestrator) RunFullAnalysis(ctx context.Context, collection vectorset.Collection, params Params) (*CombinedResult, error) {
	return o.run(ctx, uuid.NewString(), collection, params)
}

func (o *Orchestrator) run(ctx context.Context, runID string, collection vectorset.Collection, params Params) (*CombinedResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := collection.Validate(); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	seed := vectorset.TimeSeed()
	if params.RandomSeed != nil {
		seed = *params.RandomSeed
	}

	vectors := collection.Vectors
	state := &runState{
		logger: o.logger.With(zap.String("run_id", runID)),
	}
	result := &CombinedResult{
		RunID:          runID,
		EmbeddingModel: collection.EmbeddingModel,
		Provenance:     ClassifyProvenance(collection.EmbeddingModel, vectors.Dimension()),
		VectorCount:    vectors.Len(),
		Dimension:      vectors.Dimension(),
		Params:         params,
		Seed:           seed,
	}

	if vectors.Len() < 2 {
		result.Status = StatusInsufficientData
		result.Duration = time.Since(startedAt)
		state.logger.Info("not enough vectors to analyze", zap.Int("vectors", vectors.Len()))
		return result, nil
	}
	if params.ProjectionDimensions > vectors.Dimension() {
		return nil, &vectorset.InvalidDimensionError{Requested: params.ProjectionDimensions, Max: vectors.Dimension()}
	}
	if params.TargetClusterCount > vectors.Len() {
		return nil, &vectorset.InvalidClusterCountError{K: params.TargetClusterCount, N: vectors.Len()}
	}

	state.logger.Debug("analysis started",
		zap.Int("vectors", vectors.Len()),
		zap.Int("dimension", vectors.Dimension()),
		zap.Int64("seed", seed),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before projection: %w", err)
	}
	reduced, err := projection.Reduce(vectors, params.ProjectionDimensions)
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}
	ranking, err := projection.RankVariance(vectors)
	if err != nil {
		return nil, fmt.Errorf("variance ranking: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before clustering: %w", err)
	}
	clustered, err := cluster.KMeans(vectors, params.TargetClusterCount, params.MaxIterations, vectorset.NewRandomSource(seed))
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}
	if !clustered.Converged {
		state.logger.Debug("k-means stopped at iteration cap", zap.Int("iterations", clustered.Iterations))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before similarity: %w", err)
	}
	similarityOptions := similarity.Options{
		SampleSize: params.SampleSize,
		Threshold:  params.SimilarityThreshold,
		BinCount:   params.HistogramBins,
		TopK:       params.TopK,
	}
	analyzed, err := similarity.Analyze(vectors, collection.Documents, similarityOptions, vectorset.NewRandomSource(seed+1))
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}
	for _, warning := range analyzed.Warnings {
		state.logger.Debug("numeric degeneracy", zap.Int("index", warning.Index), zap.String("reason", warning.Reason))
	}

	result.Points = mergePoints(state, collection, reduced, clustered, params.ExcerptLength)
	result.VarianceRanking = ranking
	result.Eigenvalues = reduced.Eigenvalues
	result.ExplainedVariance = reduced.ExplainedVarianceRatio
	result.Clusters = ClusterSummary{
		Count:      params.TargetClusterCount,
		Sizes:      clustered.Sizes,
		Centroids:  clustered.Centroids,
		Iterations: clustered.Iterations,
		Converged:  clustered.Converged,
		Reseeds:    clustered.Reseeds,
	}
	result.Similarity = analyzed
	result.Warnings = analyzed.Warnings
	result.Status = StatusComplete
	result.Duration = time.Since(startedAt)

	state.logger.Info("analysis complete",
		zap.Int("vectors", result.VectorCount),
		zap.Int("clusters", result.Clusters.Count),
		zap.Int("pairs", analyzed.Stats.PairCount),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// mergePoints joins projection, cluster assignment and document by index.
func mergePoints(state *runState, collection vectorset.Collection, reduced *projection.Projection, clustered *cluster.Result, excerptLength int) []PointView {
	points := make([]PointView, len(reduced.Points))
	for index := range points {
		x, y := reduced.Point(index)
		document := collection.DocumentAt(index)
		points[index] = PointView{
			Index:       index,
			Coordinates: reduced.Points[index],
			X:           x,
			Y:           y,
			ClusterID:   clustered.Assignment[index],
			DocumentID:  document.ID,
			Excerpt:     Excerpt(document.Text, excerptLength),
		}
		state.logFirstPoint(points[index])
	}
	return points
}

// Excerpt collapses whitespace in text and truncates it to width cells.
func Excerpt(text string, width int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	return truncate.StringWithTail(collapsed, uint(width), "…")
}

// runState carries state that lives for exactly one run.
type runState struct {
	logger           *zap.Logger
	loggedFirstPoint bool
}

func (s *runState) logFirstPoint(point PointView) {
	if s.loggedFirstPoint {
		return
	}
	s.loggedFirstPoint = true
	s.logger.Debug("first merged point",
		zap.Int("index", point.Index),
		zap.Float64("x", point.X),
		zap.Float64("y", point.Y),
		zap.Int("cluster", point.ClusterID),
		zap.String("excerpt", point.Excerpt),
	)
}
