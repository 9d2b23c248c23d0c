// Package cli defines the latentscope command tree.
package cli

import (
	"fmt"
	"runtime"

	"github.com/alDuncanson/latentscope/config"
	"github.com/alDuncanson/latentscope/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions holds persistent flags and the state PersistentPreRunE builds from them.
type globalOptions struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "latentscope",
		Short: "Embedding quality analysis",
		Long: `latentscope inspects a collection of vector embeddings: it projects them with
PCA, clusters them with k-means and measures pairwise cosine similarity on a
sample, so duplicated, collapsed or poorly separated embeddings stand out.

Vectors are read from JSON, JSON Lines or CSV files, a Qdrant collection, a
SQLite table, a Hugging Face dataset or the built-in demo corpus. Rows that
carry only text are embedded with Ollama or the Hugging Face Inference API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "debug logging")

	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newTUICommand(opts, version))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func (opts *globalOptions) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = opts.debug
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	opts.cfg = cfg
	opts.logger = logger
	return nil
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "latentscope %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
