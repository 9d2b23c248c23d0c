package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alDuncanson/latentscope/config"
	"github.com/alDuncanson/latentscope/dataimport"
	"github.com/alDuncanson/latentscope/preload"
	"github.com/alDuncanson/latentscope/qdrant"
	"github.com/alDuncanson/latentscope/sqlitestore"
	"github.com/alDuncanson/latentscope/vectorset"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultImportBatch = 64

type importOptions struct {
	source    sourceFlags
	demo      bool
	batchSize int
}

func newImportCommand(global *globalOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Embed documents and store them in Qdrant or SQLite",
		Long: `Import reads a JSON, JSON Lines or CSV file (or the demo corpus with --demo),
embeds rows that have no vector and writes the result to a Qdrant collection
or a SQLite table so it can be analyzed later.

The target is the SQLite database given with --sqlite, otherwise the Qdrant
collection from the config or flags.`,
		Example: `  latentscope import --demo --embedder ollama
  latentscope import notes.csv --embedder ollama --sqlite notes.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, global, opts, args)
		},
	}

	opts.source.bind(cmd)
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "import the built-in demo corpus")
	cmd.Flags().IntVar(&opts.batchSize, "batch", defaultImportBatch, "points per qdrant upsert")

	return cmd
}

func runImport(cmd *cobra.Command, global *globalOptions, opts *importOptions, args []string) error {
	if opts.demo == (len(args) > 0) {
		return fmt.Errorf("import needs exactly one of a path or --demo")
	}
	if opts.batchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", opts.batchSize)
	}

	cfg := global.cfg
	opts.source.override(cmd, cfg)
	if cfg.Source.Kind != config.SourceSQLite {
		cfg.Source.Kind = config.SourceQdrant
	}
	config.ApplyDefaults(cfg)
	if err := cfg.Source.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	collection, err := importInput(ctx, cfg, opts.demo, args, global.logger)
	if err != nil {
		return err
	}
	if collection.Vectors.Len() == 0 {
		return fmt.Errorf("nothing to import")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Importing %d vectors (%d dimensions) into %s...\n",
		collection.Vectors.Len(), collection.Vectors.Dimension(), cfg.Source.Key())

	if cfg.Source.Kind == config.SourceSQLite {
		err = importSQLite(ctx, cfg.Source.SQLite, collection, out)
	} else {
		err = importQdrant(ctx, cfg.Source.Qdrant, collection, opts.batchSize, out)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nDone.")
	return nil
}

func importInput(ctx context.Context, cfg *config.Config, demo bool, args []string, logger *zap.Logger) (vectorset.Collection, error) {
	embedder := newEmbedder(cfg.Embedding)
	if demo {
		return embedCollection(ctx, embedder, preload.Documents(), logger)
	}
	collection, err := dataimport.Load(ctx, args[0], embedder, cfg.Source.EmbeddingModel)
	if err != nil {
		return vectorset.Collection{}, fmt.Errorf("loading dataset: %w", err)
	}
	return collection, nil
}

func importSQLite(ctx context.Context, target config.SQLiteConfig, collection vectorset.Collection, out io.Writer) error {
	store, err := sqlitestore.Open(target.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateTable(ctx, target.Table); err != nil {
		return err
	}

	records := make([]sqlitestore.Record, collection.Vectors.Len())
	for index := range records {
		document := collection.DocumentAt(index)
		records[index] = sqlitestore.Record{
			ID:       document.ID,
			Content:  document.Text,
			Metadata: document.Metadata,
			Vector:   toFloat32(collection.Vectors.At(index)),
		}
	}
	if err := store.Insert(ctx, target.Table, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "[%d/%d]", len(records), len(records))
	return nil
}

func importQdrant(ctx context.Context, target config.QdrantConfig, collection vectorset.Collection, batchSize int, out io.Writer) error {
	client, err := qdrant.NewClient(target.Address, target.Collection, qdrant.Options{})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureCollection(ctx, uint64(collection.Vectors.Dimension())); err != nil {
		return err
	}

	total := collection.Vectors.Len()
	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)
		batch := make([]qdrant.Point, 0, end-start)
		for index := start; index < end; index++ {
			batch = append(batch, qdrantPoint(collection.DocumentAt(index), collection.Vectors.At(index)))
		}
		if err := client.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
		fmt.Fprintf(out, "\r[%d/%d]", end, total)
	}
	return nil
}

// qdrantPoint keeps the document ID when it already is a UUID. Other IDs map to
// a stable name-based UUID and are kept in the source_id payload field.
func qdrantPoint(document vectorset.Document, vector vectorset.Vector) qdrant.Point {
	metadata := make(map[string]any, len(document.Metadata)+1)
	for key, value := range document.Metadata {
		metadata[key] = value
	}
	return qdrant.Point{
		ID:       pointID(document.ID, metadata),
		Text:     document.Text,
		Metadata: metadata,
		Vector:   toFloat32(vector),
	}
}

func pointID(documentID string, metadata map[string]any) string {
	if parsed, err := uuid.Parse(documentID); err == nil {
		return parsed.String()
	}
	if documentID == "" {
		return uuid.NewString()
	}
	metadata["source_id"] = documentID
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentID)).String()
}

func toFloat32(vector vectorset.Vector) []float32 {
	converted := make([]float32, len(vector))
	for index, value := range vector {
		converted[index] = float32(value)
	}
	return converted
}
