package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LATENTSCOPE_"

// applyEnvOverrides applies LATENTSCOPE_* environment variables to cfg.
func applyEnvOverrides(cfg *Config) error {
	envMappings := map[string]func(string) error{
		"DEBUG": func(v string) error { return parseBool(v, &cfg.Debug) },

		"SOURCE_KIND":            func(v string) error { cfg.Source.Kind = v; return nil },
		"SOURCE_PATH":            func(v string) error { cfg.Source.Path = v; return nil },
		"SOURCE_EMBEDDING_MODEL": func(v string) error { cfg.Source.EmbeddingModel = v; return nil },
		"QDRANT_ADDRESS":         func(v string) error { cfg.Source.Qdrant.Address = v; return nil },
		"QDRANT_COLLECTION":      func(v string) error { cfg.Source.Qdrant.Collection = v; return nil },
		"SQLITE_PATH":            func(v string) error { cfg.Source.SQLite.Path = v; return nil },
		"SQLITE_TABLE":           func(v string) error { cfg.Source.SQLite.Table = v; return nil },
		"HF_DATASET":             func(v string) error { cfg.Source.HuggingFace.Dataset = v; return nil },

		"EMBEDDING_PROVIDER": func(v string) error { cfg.Embedding.Provider = v; return nil },
		"EMBEDDING_URL":      func(v string) error { cfg.Embedding.URL = v; return nil },
		"EMBEDDING_MODEL":    func(v string) error { cfg.Embedding.Model = v; return nil },
		"EMBEDDING_TOKEN":    func(v string) error { cfg.Embedding.Token = v; return nil },

		"CLUSTER_COUNT":         func(v string) error { return parseInt(v, &cfg.Analysis.ClusterCount) },
		"SAMPLE_SIZE":           func(v string) error { return parseInt(v, &cfg.Analysis.SampleSize) },
		"PROJECTION_DIMENSIONS": func(v string) error { return parseInt(v, &cfg.Analysis.ProjectionDimensions) },
		"MAX_ITERATIONS":        func(v string) error { return parseInt(v, &cfg.Analysis.MaxIterations) },
		"SIMILARITY_THRESHOLD": func(v string) error {
			threshold, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			cfg.Analysis.SimilarityThreshold = &threshold
			return nil
		},
		"RANDOM_SEED": func(v string) error {
			seed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			cfg.Analysis.RandomSeed = &seed
			return nil
		},
	}

	for suffix, setter := range envMappings {
		envVar := EnvPrefix + suffix
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}
	return nil
}

func parseBool(value string, target *bool) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}

func parseInt(value string, target *int) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}
