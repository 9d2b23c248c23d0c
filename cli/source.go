package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alDuncanson/latentscope/config"
	"github.com/alDuncanson/latentscope/dataimport"
	"github.com/alDuncanson/latentscope/embedding"
	"github.com/alDuncanson/latentscope/huggingface"
	"github.com/alDuncanson/latentscope/ollama"
	"github.com/alDuncanson/latentscope/preload"
	"github.com/alDuncanson/latentscope/qdrant"
	"github.com/alDuncanson/latentscope/sqlitestore"
	"github.com/alDuncanson/latentscope/vectorset"
	"go.uber.org/zap"
)

// errEmbedderRequired is returned for text-only sources when the embedding provider is none.
var errEmbedderRequired = errors.New("source has no stored vectors; set --embedder to ollama or huggingface")

// newEmbedder builds the configured embedding provider. It returns a nil
// interface for ProviderNone so callers can test for it.
func newEmbedder(cfg config.EmbeddingConfig) embedding.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.NewClient(cfg.URL, cfg.Model)
	case config.ProviderHuggingFace:
		return huggingface.NewEmbeddingsClient(cfg.URL, cfg.Model, cfg.Token)
	default:
		return nil
	}
}

// loadCollection reads the configured source into an analysis collection.
func loadCollection(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vectorset.Collection, error) {
	source := cfg.Source
	embedder := newEmbedder(cfg.Embedding)
	logger.Debug("loading collection", zap.String("source", source.Key()), zap.String("kind", source.Kind))

	switch source.Kind {
	case config.SourceFile:
		return dataimport.Load(ctx, source.Path, embedder, source.EmbeddingModel)

	case config.SourceQdrant:
		client, err := qdrant.NewClient(source.Qdrant.Address, source.Qdrant.Collection, qdrant.Options{
			PageSize: source.Qdrant.PageSize,
			Limit:    source.Qdrant.Limit,
		})
		if err != nil {
			return vectorset.Collection{}, err
		}
		defer client.Close()
		return client.LoadCollection(ctx, source.EmbeddingModel)

	case config.SourceSQLite:
		store, err := sqlitestore.Open(source.SQLite.Path)
		if err != nil {
			return vectorset.Collection{}, err
		}
		defer store.Close()
		return store.LoadCollection(ctx, source.SQLite.Table, source.SQLite.Limit, source.EmbeddingModel)

	case config.SourceHuggingFace:
		documents, err := huggingface.NewClient("").FetchDocuments(ctx, huggingface.DatasetRef{
			Dataset: source.HuggingFace.Dataset,
			Config:  source.HuggingFace.Config,
			Split:   source.HuggingFace.Split,
			Column:  source.HuggingFace.Column,
		}, source.HuggingFace.MaxRows)
		if err != nil {
			return vectorset.Collection{}, err
		}
		return embedCollection(ctx, embedder, documents, logger)

	case config.SourceDemo:
		return embedCollection(ctx, embedder, preload.Documents(), logger)

	default:
		return vectorset.Collection{}, fmt.Errorf("unknown source kind %q", source.Kind)
	}
}

func embedCollection(ctx context.Context, embedder embedding.Embedder, documents []vectorset.Document, logger *zap.Logger) (vectorset.Collection, error) {
	if embedder == nil {
		return vectorset.Collection{}, errEmbedderRequired
	}
	set, err := embedding.EmbedDocuments(ctx, embedder, documents, func(done, total int) {
		if done == total || done%50 == 0 {
			logger.Debug("embedding documents", zap.Int("done", done), zap.Int("total", total))
		}
	})
	if err != nil {
		return vectorset.Collection{}, err
	}
	return vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: embedder.Model()}, nil
}
