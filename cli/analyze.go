package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type analyzeOptions struct {
	source   sourceFlags
	analysis analysisFlags
	output   string
	width    int
	timeout  time.Duration
}

func newAnalyzeCommand(global *globalOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Run one analysis and print the report",
		Long: `Analyze loads the configured source, runs projection, clustering and
similarity analysis once and prints the combined report.

A path argument selects a JSON, JSON Lines or CSV file source.`,
		Example: `  latentscope analyze embeddings.jsonl
  latentscope analyze --sqlite vectors.db --table documents -k 6
  latentscope analyze --source qdrant --collection docs --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, global, opts, args)
		},
	}

	opts.source.bind(cmd)
	opts.analysis.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "output format (text, json)")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 80, "report width in columns")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "abort the run after this long (0 = no limit)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, global *globalOptions, opts *analyzeOptions, args []string) error {
	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	cfg := global.cfg
	if err := opts.source.apply(cmd, cfg, args); err != nil {
		return err
	}
	if err := opts.analysis.apply(cmd, cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	collection, err := loadCollection(ctx, cfg, global.logger)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Source.Key(), err)
	}

	orchestrator := analysis.NewOrchestrator(global.logger)
	result, err := orchestrator.RunFullAnalysis(ctx, collection, cfg.Analysis.Params())
	if err != nil {
		return err
	}
	global.logger.Debug("analysis finished",
		zap.String("run_id", result.RunID),
		zap.Duration("duration", result.Duration),
	)

	out := cmd.OutOrStdout()
	if opts.output == outputJSON {
		return report.WriteJSON(out, result)
	}
	_, err = fmt.Fprintln(out, report.Render(result, opts.width))
	return err
}
