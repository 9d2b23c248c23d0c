// Package config provides configuration loading for latentscope.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alDuncanson/latentscope/analysis"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceFile        = "file"
	SourceQdrant      = "qdrant"
	SourceSQLite      = "sqlite"
	SourceHuggingFace = "huggingface"
	SourceDemo        = "demo"
)

// Embedding providers.
const (
	ProviderNone        = "none"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Source    SourceConfig    `yaml:"source"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

// SourceConfig selects where vectors are read from.
type SourceConfig struct {
	Kind           string            `yaml:"kind"`
	Path           string            `yaml:"path"`
	EmbeddingModel string            `yaml:"embedding_model"`
	Qdrant         QdrantConfig      `yaml:"qdrant"`
	SQLite         SQLiteConfig      `yaml:"sqlite"`
	HuggingFace    HuggingFaceConfig `yaml:"huggingface"`
}

// QdrantConfig holds the gRPC address and collection to scroll.
type QdrantConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
	PageSize   int    `yaml:"page_size"`
	Limit      int    `yaml:"limit"`
}

// SQLiteConfig holds the database file and table to read.
type SQLiteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
	Limit int    `yaml:"limit"`
}

// HuggingFaceConfig names a dataset split whose text column is embedded.
type HuggingFaceConfig struct {
	Dataset string `yaml:"dataset"`
	Config  string `yaml:"config"`
	Split   string `yaml:"split"`
	Column  string `yaml:"column"`
	MaxRows int    `yaml:"max_rows"`
}

// EmbeddingConfig selects the embedder used for rows that carry only text.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	URL      string `yaml:"url"`
	Model    string `yaml:"model"`
	Token    string `yaml:"token"`
}

// AnalysisConfig mirrors analysis.Params. SimilarityThreshold is a pointer so
// that an explicit 0 survives ApplyDefaults.
type AnalysisConfig struct {
	ClusterCount         int      `yaml:"cluster_count"`
	SampleSize           int      `yaml:"sample_size"`
	SimilarityThreshold  *float64 `yaml:"similarity_threshold"`
	ProjectionDimensions int      `yaml:"projection_dimensions"`
	MaxIterations        int      `yaml:"max_iterations"`
	RandomSeed           *int64   `yaml:"random_seed"`
	HistogramBins        int      `yaml:"histogram_bins"`
	TopK                 int      `yaml:"top_k"`
	ExcerptLength        int      `yaml:"excerpt_length"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path, applies defaults and LATENTSCOPE_*
// environment overrides, and validates the result. An empty path starts from
// Default. Relative source paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir := filepath.Dir(path)
		cfg.Source.Path = resolvePath(cfg.Source.Path, configDir)
		cfg.Source.SQLite.Path = resolvePath(cfg.Source.SQLite.Path, configDir)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Params converts the analysis section into run parameters.
func (a AnalysisConfig) Params() analysis.Params {
	params := analysis.Params{
		TargetClusterCount:   a.ClusterCount,
		SampleSize:           a.SampleSize,
		ProjectionDimensions: a.ProjectionDimensions,
		MaxIterations:        a.MaxIterations,
		HistogramBins:        a.HistogramBins,
		TopK:                 a.TopK,
		ExcerptLength:        a.ExcerptLength,
	}
	if a.SimilarityThreshold != nil {
		params.SimilarityThreshold = *a.SimilarityThreshold
	}
	if a.RandomSeed != nil {
		seed := *a.RandomSeed
		params.RandomSeed = &seed
	}
	return params
}

// resolvePath joins a relative path onto the config file's directory.
func resolvePath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}
