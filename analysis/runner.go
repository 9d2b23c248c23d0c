package analysis

import (
	"context"
	"errors"
	"sync"

	"github.com/alDuncanson/latentscope/logging"
	"github.com/alDuncanson/latentscope/vectorset"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunnerClosed is returned by Submit and Next once Close has been called.
var ErrRunnerClosed = errors.New("analysis runner closed")

// Submission asks the Runner to analyze a collection. SourceKey identifies the
// input (a file path, a collection name); a newer submission with the same key
// supersedes any run still in flight for it.
type Submission struct {
	SourceKey  string
	Collection vectorset.Collection
	Params     Params
}

// Outcome is a delivered run. Exactly one of Result and Err is set.
type Outcome struct {
	RunID     string
	SourceKey string
	Result    *CombinedResult
	Err       error
}

// Runner dispatches analyses onto background goroutines and delivers only the
// latest run per source key. Superseded runs are cancelled, and any result they
// still produce is dropped.
type Runner struct {
	orchestrator *Orchestrator
	logger       *zap.Logger

	mu      sync.Mutex
	latest  map[string]string
	cancels map[string]context.CancelFunc
	closed  bool

	outcomes  chan Outcome
	done      chan struct{}
	closeOnce sync.Once
	workers   sync.WaitGroup
}

// NewRunner returns a Runner backed by orchestrator.
func NewRunner(orchestrator *Orchestrator, logger *zap.Logger) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		logger:       logging.OrNop(logger),
		latest:       make(map[string]string),
		cancels:      make(map[string]context.CancelFunc),
		outcomes:     make(chan Outcome, 8),
		done:         make(chan struct{}),
	}
}

// Submit starts a run and returns its id. The collection is cloned, so the
// caller may reuse it afterwards.
func (r *Runner) Submit(ctx context.Context, submission Submission) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrRunnerClosed
	}

	if cancelPrevious, ok := r.cancels[submission.SourceKey]; ok {
		cancelPrevious()
	}

	runID := uuid.NewString()
	runContext, cancel := context.WithCancel(ctx)
	r.latest[submission.SourceKey] = runID
	r.cancels[submission.SourceKey] = cancel

	r.logger.Debug("analysis submitted", zap.String("run_id", runID), zap.String("source", submission.SourceKey))

	collection := submission.Collection.Clone()
	r.workers.Add(1)
	go r.execute(runContext, cancel, runID, submission.SourceKey, collection, submission.Params)
	return runID, nil
}

func (r *Runner) execute(ctx context.Context, cancel context.CancelFunc, runID, sourceKey string, collection vectorset.Collection, params Params) {
	defer r.workers.Done()
	defer cancel()

	result, err := r.orchestrator.run(ctx, runID, collection, params)
	if !r.finish(sourceKey, runID) {
		r.logger.Debug("dropping superseded run", zap.String("run_id", runID), zap.String("source", sourceKey))
		return
	}

	outcome := Outcome{RunID: runID, SourceKey: sourceKey, Result: result, Err: err}
	select {
	case r.outcomes <- outcome:
	case <-r.done:
	}
}

// Next blocks until the latest run for some source completes, ctx is done, or
// the Runner is closed. Outcomes superseded after they were queued are skipped.
func (r *Runner) Next(ctx context.Context) (Outcome, error) {
	for {
		select {
		case outcome := <-r.outcomes:
			if r.isLatest(outcome.SourceKey, outcome.RunID) {
				return outcome, nil
			}
			r.logger.Debug("skipping superseded outcome", zap.String("run_id", outcome.RunID), zap.String("source", outcome.SourceKey))
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-r.done:
			return Outcome{}, ErrRunnerClosed
		}
	}
}

// Latest returns the id of the most recent submission for sourceKey.
func (r *Runner) Latest(sourceKey string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runID, ok := r.latest[sourceKey]
	return runID, ok
}

// Close cancels every run in flight and waits for their goroutines to exit.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		for _, cancel := range r.cancels {
			cancel()
		}
		r.mu.Unlock()

		close(r.done)
		r.workers.Wait()
	})
}

func (r *Runner) isLatest(sourceKey, runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest[sourceKey] == runID
}

// finish reports whether runID is still the latest run for sourceKey and, if
// so, releases its cancel func.
func (r *Runner) finish(sourceKey, runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest[sourceKey] != runID {
		return false
	}
	delete(r.cancels, sourceKey)
	return true
}
