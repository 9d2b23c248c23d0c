package config

import "github.com/alDuncanson/latentscope/analysis"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceFile
	}
	if cfg.Source.Qdrant.Address == "" {
		cfg.Source.Qdrant.Address = "localhost:6334"
	}
	if cfg.Source.Qdrant.Collection == "" {
		cfg.Source.Qdrant.Collection = "embeddings"
	}
	if cfg.Source.Qdrant.PageSize == 0 {
		cfg.Source.Qdrant.PageSize = 256
	}
	if cfg.Source.SQLite.Table == "" {
		cfg.Source.SQLite.Table = "documents"
	}
	if cfg.Source.HuggingFace.Config == "" {
		cfg.Source.HuggingFace.Config = "default"
	}
	if cfg.Source.HuggingFace.Split == "" {
		cfg.Source.HuggingFace.Split = "train"
	}
	if cfg.Source.HuggingFace.Column == "" {
		cfg.Source.HuggingFace.Column = "text"
	}
	if cfg.Source.HuggingFace.MaxRows == 0 {
		cfg.Source.HuggingFace.MaxRows = 500
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderNone
	}
	if cfg.Embedding.Provider == ProviderOllama {
		if cfg.Embedding.URL == "" {
			cfg.Embedding.URL = "http://localhost:11434"
		}
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "nomic-embed-text"
		}
	}
	if cfg.Embedding.Provider == ProviderHuggingFace && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}

	defaults := analysis.DefaultParams()
	if cfg.Analysis.ClusterCount == 0 {
		cfg.Analysis.ClusterCount = defaults.TargetClusterCount
	}
	if cfg.Analysis.SampleSize == 0 {
		cfg.Analysis.SampleSize = defaults.SampleSize
	}
	if cfg.Analysis.SimilarityThreshold == nil {
		threshold := defaults.SimilarityThreshold
		cfg.Analysis.SimilarityThreshold = &threshold
	}
	if cfg.Analysis.ProjectionDimensions == 0 {
		cfg.Analysis.ProjectionDimensions = defaults.ProjectionDimensions
	}
	if cfg.Analysis.MaxIterations == 0 {
		cfg.Analysis.MaxIterations = defaults.MaxIterations
	}
	if cfg.Analysis.HistogramBins == 0 {
		cfg.Analysis.HistogramBins = defaults.HistogramBins
	}
	if cfg.Analysis.TopK == 0 {
		cfg.Analysis.TopK = defaults.TopK
	}
	if cfg.Analysis.ExcerptLength == 0 {
		cfg.Analysis.ExcerptLength = defaults.ExcerptLength
	}
}
