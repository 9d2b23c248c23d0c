// Package tui is the interactive explorer for an analyzed collection. It shows
// the projected scatter colored by cluster, the similarity distribution and the
// per-dimension variance, and lets the user retune parameters while runs are
// dispatched on an analysis.Runner in the background.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/similarity"
	"github.com/alDuncanson/latentscope/vectorset"

	tea "github.com/charmbracelet/bubbletea"
)

// thresholdStep is how far one arrow key press moves the similarity threshold.
const thresholdStep = 0.05

// Loader fetches the collection to analyze. It is called at startup and on reload.
type Loader func(ctx context.Context) (vectorset.Collection, error)

// Config wires a Model to its data source and background runner.
type Config struct {
	Runner    *analysis.Runner
	SourceKey string
	Load      Loader
	Params    analysis.Params
	Version   string
}

// Model represents the explorer state.
type Model struct {
	width, height int
	ctx           context.Context

	runner    *analysis.Runner
	sourceKey string
	load      Loader
	version   string

	collection vectorset.Collection
	params     analysis.Params
	result     *analysis.CombinedResult
	stats      similarity.Stats
	topPairs   []similarity.TopPair

	activeTab     viewTab
	selectedIndex int
	showDetail    bool
	pendingRunID  string
	loading       bool
	waiting       bool
	err           error
}

// collectionLoaded carries the outcome of calling the Loader.
type collectionLoaded struct {
	collection vectorset.Collection
	err        error
}

// runDelivered carries one outcome received from the Runner.
type runDelivered struct {
	outcome analysis.Outcome
}

// runnerStopped is sent when the Runner is closed and no more outcomes will arrive.
type runnerStopped struct{}

// NewModel creates an explorer bound to the given runner and loader.
func NewModel(ctx context.Context, config Config) Model {
	return Model{
		ctx:           ctx,
		width:         100,
		height:        30,
		runner:        config.Runner,
		sourceKey:     config.SourceKey,
		load:          config.Load,
		version:       config.Version,
		params:        config.Params,
		selectedIndex: -1,
		showDetail:    true,
	}
}

// Init loads the collection.
func (model Model) Init() tea.Cmd {
	return model.loadCollection()
}

func (model Model) loadCollection() tea.Cmd {
	ctx, load := model.ctx, model.load
	return func() tea.Msg {
		collection, err := load(ctx)
		return collectionLoaded{collection: collection, err: err}
	}
}

// waitForOutcome blocks on the Runner for the next deliverable run.
func (model Model) waitForOutcome() tea.Cmd {
	ctx, runner := model.ctx, model.runner
	return func() tea.Msg {
		outcome, err := runner.Next(ctx)
		if err != nil {
			return runnerStopped{}
		}
		return runDelivered{outcome: outcome}
	}
}

// Update handles all incoming messages and updates the model state accordingly.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		return model.handleKeyPress(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case collectionLoaded:
		if message.err != nil {
			model.err = fmt.Errorf("load collection: %w", message.err)
			return model, nil
		}
		model.collection = message.collection
		model.selectedIndex = -1
		return model.submit()

	case runDelivered:
		return model.handleOutcome(message.outcome)

	case runnerStopped:
		model.waiting = false
		model.loading = false
	}

	return model, nil
}

func (model Model) handleKeyPress(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMessage.String() {
	case "ctrl+c", "esc", "q":
		return model, tea.Quit

	case "1":
		model.activeTab = tabScatter
	case "2":
		model.activeTab = tabSimilarity
	case "3":
		model.activeTab = tabVariance
	case "tab":
		model.activeTab = (model.activeTab + 1) % tabCount

	case "left":
		model.adjustThreshold(-thresholdStep)
	case "right":
		model.adjustThreshold(thresholdStep)

	case "+", "=":
		if model.params.TargetClusterCount < analysis.MaxClusterCount {
			model.params.TargetClusterCount++
			return model.submit()
		}
	case "-":
		if model.params.TargetClusterCount > analysis.MinClusterCount {
			model.params.TargetClusterCount--
			return model.submit()
		}
	case "s":
		model.params.SampleSize = analysis.NextSampleSize(model.params.SampleSize)
		return model.submit()
	case "r":
		model.params = model.params.WithSeed(vectorset.TimeSeed())
		return model.submit()
	case "R":
		model.loading = true
		return model, model.loadCollection()

	case "up":
		model.selectPrevious()
	case "down":
		model.selectNext()
	case "/":
		model.showDetail = !model.showDetail
	}

	return model, nil
}

// submit dispatches a run for the current collection and parameters. A run
// still in flight for the same source is superseded by the Runner.
func (model Model) submit() (tea.Model, tea.Cmd) {
	runID, err := model.runner.Submit(model.ctx, analysis.Submission{
		SourceKey:  model.sourceKey,
		Collection: model.collection,
		Params:     model.params,
	})
	if err != nil {
		model.err = err
		return model, nil
	}

	model.err = nil
	model.pendingRunID = runID
	model.loading = true
	if model.waiting {
		return model, nil
	}
	model.waiting = true
	return model, model.waitForOutcome()
}

func (model Model) handleOutcome(outcome analysis.Outcome) (tea.Model, tea.Cmd) {
	if outcome.RunID == model.pendingRunID {
		model.loading = false
	}
	if outcome.Err != nil {
		if !errors.Is(outcome.Err, context.Canceled) {
			model.err = outcome.Err
		}
		return model, model.waitForOutcome()
	}

	model.err = nil
	model.result = outcome.Result
	if analyzed := outcome.Result.Similarity; analyzed != nil {
		model.stats = analyzed.Stats
		model.topPairs = analyzed.TopPairs
	} else {
		model.stats = similarity.Stats{}
		model.topPairs = nil
	}
	if model.selectedIndex >= len(outcome.Result.Points) {
		model.selectedIndex = -1
	}
	return model, model.waitForOutcome()
}

// adjustThreshold recomputes the above-threshold figures from the retained
// pairs. It never resamples or reruns the analysis.
func (model *Model) adjustThreshold(delta float64) {
	if model.result == nil || model.result.Similarity == nil {
		return
	}
	threshold := math.Round((model.stats.Threshold+delta)*100) / 100
	threshold = math.Max(0, math.Min(1, threshold))

	stats, topPairs, err := model.result.Similarity.UpdateThreshold(threshold)
	if err != nil {
		model.err = err
		return
	}
	model.stats = stats
	model.topPairs = topPairs
	model.params.SimilarityThreshold = threshold
}

func (model *Model) selectNext() {
	if count := model.pointCount(); count > 0 {
		model.selectedIndex = (model.selectedIndex + 1) % count
	}
}

func (model *Model) selectPrevious() {
	if count := model.pointCount(); count > 0 {
		model.selectedIndex--
		if model.selectedIndex < 0 {
			model.selectedIndex = count - 1
		}
	}
}

func (model Model) pointCount() int {
	if model.result == nil {
		return 0
	}
	return len(model.result.Points)
}

// neighbor is a point and its cosine similarity to the selected point.
type neighbor struct {
	index      int
	similarity float64
}

// nearestNeighbors returns up to maxNeighbors points most similar to index in
// the original embedding space.
func (model Model) nearestNeighbors(index, maxNeighbors int) []neighbor {
	vectors := model.collection.Vectors
	if index < 0 || index >= vectors.Len() {
		return nil
	}

	selected := vectors.At(index)
	neighbors := make([]neighbor, 0, vectors.Len()-1)
	for candidateIndex := 0; candidateIndex < vectors.Len(); candidateIndex++ {
		if candidateIndex == index {
			continue
		}
		neighbors = append(neighbors, neighbor{
			index:      candidateIndex,
			similarity: similarity.Cosine(selected, vectors.At(candidateIndex)),
		})
	}

	sort.SliceStable(neighbors, func(first, second int) bool {
		return neighbors[first].similarity > neighbors[second].similarity
	})
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	return neighbors
}
