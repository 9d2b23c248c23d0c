package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/config"
	"github.com/alDuncanson/latentscope/report"
	"github.com/alDuncanson/latentscope/vectorset"
	"github.com/alDuncanson/latentscope/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type watchOptions struct {
	source   sourceFlags
	analysis analysisFlags
	output   string
	width    int
	debounce time.Duration
}

func newWatchCommand(global *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Re-analyze a file whenever it changes",
		Long: `Watch analyzes a JSON, JSON Lines or CSV file and runs again each time the
file is rewritten. A change that arrives while a run is still in progress
cancels that run, so only the report for the latest contents is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, global, opts, args)
		},
	}

	opts.source.bind(cmd)
	opts.analysis.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "output format (text, json)")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 80, "report width in columns")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "quiet period before a change triggers a run (0 = default)")

	return cmd
}

func runWatch(cmd *cobra.Command, global *globalOptions, opts *watchOptions, args []string) error {
	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	cfg := global.cfg
	if err := opts.source.apply(cmd, cfg, args); err != nil {
		return err
	}
	if cfg.Source.Kind != config.SourceFile {
		return fmt.Errorf("watch requires a file source, got %q", cfg.Source.Kind)
	}
	if err := opts.analysis.apply(cmd, cfg); err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := global.logger
	runner := analysis.NewRunner(analysis.NewOrchestrator(logger), logger)
	defer runner.Close()

	session := newWatchSession(cfg, runner, logger, cmd.ErrOrStderr())
	session.submit(ctx)

	watchOpts := []watch.Option{watch.WithLogger(logger)}
	if opts.debounce > 0 {
		watchOpts = append(watchOpts, watch.WithDebounce(opts.debounce))
	}
	watcher := watch.New(cfg.Source.Path, func(string) { session.submit(ctx) }, watchOpts...)

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
		stop()
	}()

	out := cmd.OutOrStdout()
	for {
		outcome, err := runner.Next(ctx)
		if err != nil {
			if werr := <-watchErr; werr != nil && !errors.Is(werr, context.Canceled) {
				return werr
			}
			return nil
		}
		if err := printOutcome(out, outcome, opts.output, opts.width); err != nil {
			return err
		}
	}
}

// watchSession reloads the watched file and hands it to the runner. Reloads
// may overlap; a newer reload cancels the one in flight, and a load that
// finishes after a newer one started is dropped.
type watchSession struct {
	cfg    *config.Config
	runner *analysis.Runner
	logger *zap.Logger
	errOut io.Writer
	load   func(context.Context) (vectorset.Collection, error)

	mu         sync.Mutex
	generation uint64
	cancelLoad context.CancelFunc
}

func newWatchSession(cfg *config.Config, runner *analysis.Runner, logger *zap.Logger, errOut io.Writer) *watchSession {
	return &watchSession{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		errOut: errOut,
		load: func(ctx context.Context) (vectorset.Collection, error) {
			return loadCollection(ctx, cfg, logger)
		},
	}
}

func (s *watchSession) submit(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.mu.Unlock()
	defer cancel()

	collection, err := s.load(loadCtx)

	// Submit stays under mu so a newer reload cannot slip in between the
	// generation check and the hand-off.
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		s.logger.Debug("dropping stale reload", zap.Uint64("generation", generation))
		return
	}
	if err != nil {
		fmt.Fprintf(s.errOut, "reload %s: %v\n", s.cfg.Source.Path, err)
		return
	}
	runID, err := s.runner.Submit(ctx, analysis.Submission{
		SourceKey:  s.cfg.Source.Key(),
		Collection: collection,
		Params:     s.cfg.Analysis.Params(),
	})
	if err != nil {
		s.logger.Debug("submit skipped", zap.Error(err))
		return
	}
	s.logger.Debug("run submitted", zap.String("run_id", runID), zap.Int("vectors", collection.Vectors.Len()))
}

func printOutcome(out io.Writer, outcome analysis.Outcome, format string, width int) error {
	if outcome.Err != nil {
		if errors.Is(outcome.Err, context.Canceled) {
			return nil
		}
		_, err := fmt.Fprintf(out, "run %s failed: %v\n", outcome.RunID, outcome.Err)
		return err
	}
	if format == outputJSON {
		return report.WriteJSON(out, outcome.Result)
	}
	_, err := fmt.Fprintf(out, "%s\n\n", report.Render(outcome.Result, width))
	return err
}
