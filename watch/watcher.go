// Package watch notifies a callback when a dataset file changes on disk.
//
// The parent directory is watched rather than the file itself, so editors that
// save by writing a temporary file and renaming it over the original are still
// seen. Bursts of events are collapsed into one callback after a quiet period.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one file and calls onChange after it settles.
type Watcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for event debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce overrides the quiet period between the last event and the callback.
func WithDebounce(debounce time.Duration) Option {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// New creates a watcher for path. Nothing is watched until Run is called.
func New(path string, onChange func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		path:     path,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, calling onChange for each settled change
// to the watched file. A pending callback is discarded on return.
func (w *Watcher) Run(ctx context.Context) error {
	absolute, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}
	if _, err := os.Stat(absolute); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsWatcher.Close()

	directory := filepath.Dir(absolute)
	if err := fsWatcher.Add(directory); err != nil {
		return fmt.Errorf("watch directory %s: %w", directory, err)
	}
	w.logger.Debug("watcher starting", zap.String("path", absolute))
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(absolute, event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(target string, event fsnotify.Event) {
	if filepath.Clean(event.Name) != target {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", event.Op.String()), zap.String("path", event.Name))
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()
		if _, err := os.Stat(w.path); err != nil {
			w.logger.Debug("watched file missing after change", zap.String("path", w.path), zap.Error(err))
			return
		}
		w.onChange(w.path)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
