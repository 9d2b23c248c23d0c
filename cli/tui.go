package cli

import (
	"context"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/logging"
	"github.com/alDuncanson/latentscope/tui"
	"github.com/alDuncanson/latentscope/vectorset"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type tuiOptions struct {
	source   sourceFlags
	analysis analysisFlags
}

func newTUICommand(global *globalOptions, version string) *cobra.Command {
	opts := &tuiOptions{}

	cmd := &cobra.Command{
		Use:   "tui [path]",
		Short: "Explore a collection interactively",
		Long: `Tui opens the interactive explorer. Parameter changes start a new run in the
background; a run that is superseded before it finishes is discarded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, global, opts, args, version)
		},
	}

	opts.source.bind(cmd)
	opts.analysis.bind(cmd)
	return cmd
}

func runTUI(cmd *cobra.Command, global *globalOptions, opts *tuiOptions, args []string, version string) error {
	cfg := global.cfg
	if err := opts.source.apply(cmd, cfg, args); err != nil {
		return err
	}
	if err := opts.analysis.apply(cmd, cfg); err != nil {
		return err
	}

	logger := global.logger
	if !cfg.Debug {
		logger = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := analysis.NewRunner(analysis.NewOrchestrator(logger), logger)
	defer runner.Close()

	model := tui.NewModel(ctx, tui.Config{
		Runner:    runner,
		SourceKey: cfg.Source.Key(),
		Load: func(ctx context.Context) (vectorset.Collection, error) {
			return loadCollection(ctx, cfg, logger)
		},
		Params:  cfg.Analysis.Params(),
		Version: version,
	})

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
