package config

import (
	"errors"
	"fmt"
)

// Validate checks the source and embedding kinds and the analysis parameters.
// It does not require source locations, which CLI arguments may still supply;
// see SourceConfig.Validate.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceFile, SourceQdrant, SourceSQLite, SourceHuggingFace, SourceDemo:
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	switch c.Embedding.Provider {
	case ProviderNone, ProviderOllama, ProviderHuggingFace:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.Source.Qdrant.PageSize < 1 {
		return fmt.Errorf("qdrant page_size must be positive, got %d", c.Source.Qdrant.PageSize)
	}

	if err := c.Analysis.Params().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// Validate checks that the fields the selected source kind needs are set.
func (s SourceConfig) Validate() error {
	switch s.Kind {
	case SourceFile:
		if s.Path == "" {
			return errors.New("file source requires a path")
		}
	case SourceQdrant:
		if s.Qdrant.Address == "" || s.Qdrant.Collection == "" {
			return errors.New("qdrant source requires address and collection")
		}
	case SourceSQLite:
		if s.SQLite.Path == "" || s.SQLite.Table == "" {
			return errors.New("sqlite source requires path and table")
		}
	case SourceHuggingFace:
		if s.HuggingFace.Dataset == "" {
			return errors.New("huggingface source requires a dataset")
		}
	case SourceDemo:
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	return nil
}

// Key identifies the source for run supersession and display.
func (s SourceConfig) Key() string {
	switch s.Kind {
	case SourceQdrant:
		return "qdrant://" + s.Qdrant.Address + "/" + s.Qdrant.Collection
	case SourceSQLite:
		return "sqlite://" + s.SQLite.Path + "#" + s.SQLite.Table
	case SourceHuggingFace:
		return "hf://" + s.HuggingFace.Dataset + "/" + s.HuggingFace.Config + "/" + s.HuggingFace.Split
	case SourceDemo:
		return "demo"
	default:
		return s.Path
	}
}
