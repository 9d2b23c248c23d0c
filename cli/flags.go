package cli

import (
	"github.com/alDuncanson/latentscope/config"
	"github.com/spf13/cobra"
)

// sourceFlags override the source and embedding sections of the config.
type sourceFlags struct {
	kind           string
	embeddingModel string
	qdrantAddress  string
	collection     string
	sqlitePath     string
	table          string
	limit          int
	dataset        string
	split          string
	column         string
	embedder       string
	embedderModel  string
	embedderURL    string
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.kind, "source", "s", "", "source kind (file, qdrant, sqlite, huggingface, demo)")
	flags.StringVar(&f.embeddingModel, "model", "", "name of the model that produced stored vectors")
	flags.StringVar(&f.qdrantAddress, "qdrant", "", "qdrant gRPC address")
	flags.StringVar(&f.collection, "collection", "", "qdrant collection name")
	flags.StringVar(&f.sqlitePath, "sqlite", "", "sqlite database path")
	flags.StringVar(&f.table, "table", "", "sqlite table name")
	flags.IntVar(&f.limit, "limit", 0, "maximum vectors to read from qdrant, sqlite or huggingface (0 = all)")
	flags.StringVar(&f.dataset, "dataset", "", "hugging face dataset id")
	flags.StringVar(&f.split, "split", "", "hugging face dataset split")
	flags.StringVar(&f.column, "column", "", "hugging face text column")
	flags.StringVar(&f.embedder, "embedder", "", "embedding provider for text-only rows (none, ollama, huggingface)")
	flags.StringVar(&f.embedderModel, "embed-model", "", "embedding model for text-only rows")
	flags.StringVar(&f.embedderURL, "embed-url", "", "embedding service base URL")
}

// apply merges explicitly set flags and the optional path argument into cfg,
// then re-applies defaults and checks the selected source is fully specified.
func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Source.Path = args[0]
		if !cmd.Flags().Changed("source") && !cmd.Flags().Changed("sqlite") {
			cfg.Source.Kind = config.SourceFile
		}
	}
	f.override(cmd, cfg)

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Source.Validate()
}

// override copies every flag the user set into cfg.
func (f *sourceFlags) override(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	source := &cfg.Source

	if changed("source") {
		source.Kind = f.kind
	}
	if changed("model") {
		source.EmbeddingModel = f.embeddingModel
	}
	if changed("qdrant") {
		source.Qdrant.Address = f.qdrantAddress
	}
	if changed("collection") {
		source.Qdrant.Collection = f.collection
	}
	if changed("sqlite") {
		source.SQLite.Path = f.sqlitePath
		if !changed("source") {
			source.Kind = config.SourceSQLite
		}
	}
	if changed("table") {
		source.SQLite.Table = f.table
	}
	if changed("limit") {
		source.Qdrant.Limit = f.limit
		source.SQLite.Limit = f.limit
		source.HuggingFace.MaxRows = f.limit
	}
	if changed("dataset") {
		source.HuggingFace.Dataset = f.dataset
	}
	if changed("split") {
		source.HuggingFace.Split = f.split
	}
	if changed("column") {
		source.HuggingFace.Column = f.column
	}
	if changed("embedder") {
		cfg.Embedding.Provider = f.embedder
	}
	if changed("embed-model") {
		cfg.Embedding.Model = f.embedderModel
	}
	if changed("embed-url") {
		cfg.Embedding.URL = f.embedderURL
	}
}

// analysisFlags override the analysis section of the config.
type analysisFlags struct {
	clusters      int
	sampleSize    int
	threshold     float64
	dimensions    int
	maxIterations int
	seed          int64
	bins          int
	topK          int
}

func (f *analysisFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&f.clusters, "clusters", "k", 0, "number of k-means clusters (3-10)")
	flags.IntVar(&f.sampleSize, "sample", 0, "similarity sample size (50, 100, 200, 500)")
	flags.Float64VarP(&f.threshold, "threshold", "t", 0, "similarity threshold in [0, 1]")
	flags.IntVar(&f.dimensions, "dims", 0, "projection dimensions")
	flags.IntVar(&f.maxIterations, "iterations", 0, "maximum k-means iterations")
	flags.Int64Var(&f.seed, "seed", 0, "random seed for reproducible runs")
	flags.IntVar(&f.bins, "bins", 0, "histogram bin count")
	flags.IntVar(&f.topK, "top", 0, "number of most similar pairs to report")
}

func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	section := &cfg.Analysis

	if changed("clusters") {
		section.ClusterCount = f.clusters
	}
	if changed("sample") {
		section.SampleSize = f.sampleSize
	}
	if changed("threshold") {
		threshold := f.threshold
		section.SimilarityThreshold = &threshold
	}
	if changed("dims") {
		section.ProjectionDimensions = f.dimensions
	}
	if changed("iterations") {
		section.MaxIterations = f.maxIterations
	}
	if changed("seed") {
		seed := f.seed
		section.RandomSeed = &seed
	}
	if changed("bins") {
		section.HistogramBins = f.bins
	}
	if changed("top") {
		section.TopK = f.topK
	}
	return section.Params().Validate()
}
