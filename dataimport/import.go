// Package dataimport loads analysis collections from JSON, JSON Lines and CSV
// files. Rows may carry precomputed vectors; rows that carry only text are
// embedded through an embedding.Embedder.
package dataimport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alDuncanson/latentscope/embedding"
	"github.com/alDuncanson/latentscope/vectorset"
)

// ErrNoEmbedder is returned when a row has no vector and no embedder was given.
var ErrNoEmbedder = errors.New("row has no vector and no embedder is configured")

// Row is one loaded record before vectors are finalized.
type Row struct {
	ID       string
	Text     string
	Metadata map[string]any
	Vector   []float64
}

type jsonTextObject struct {
	ID       string         `json:"id,omitempty"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Vector   []float64      `json:"vector,omitempty"`
}

// Load reads the file at path and returns it as a collection. Rows without a
// vector are embedded with embedder; model names the embedding model of the
// stored vectors and is replaced by the embedder's model if any row was embedded.
func Load(ctx context.Context, path string, embedder embedding.Embedder, model string) (vectorset.Collection, error) {
	rows, err := LoadRows(path)
	if err != nil {
		return vectorset.Collection{}, err
	}
	return Assemble(ctx, rows, embedder, model)
}

// LoadRows parses the file at path by extension without embedding anything.
func LoadRows(path string) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	case ".jsonl", ".ndjson":
		return loadJSONLines(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Assemble embeds rows that lack vectors and builds an index-aligned collection.
func Assemble(ctx context.Context, rows []Row, embedder embedding.Embedder, model string) (vectorset.Collection, error) {
	documents := make([]vectorset.Document, len(rows))
	vectors := make([][]float64, len(rows))
	embedded := false

	for rowIndex, row := range rows {
		documents[rowIndex] = vectorset.Document{ID: row.ID, Text: row.Text, Metadata: row.Metadata}
		if documents[rowIndex].ID == "" {
			documents[rowIndex].ID = fmt.Sprintf("row-%d", rowIndex)
		}
		if len(row.Vector) > 0 {
			vectors[rowIndex] = row.Vector
			continue
		}

		if embedder == nil {
			return vectorset.Collection{}, fmt.Errorf("entry %d: %w", rowIndex, ErrNoEmbedder)
		}
		if row.Text == "" {
			return vectorset.Collection{}, fmt.Errorf("entry %d has neither text nor vector", rowIndex)
		}
		vector, err := embedder.Embed(ctx, row.Text)
		if err != nil {
			return vectorset.Collection{}, fmt.Errorf("embed entry %d: %w", rowIndex, err)
		}
		if len(vector) == 0 {
			return vectorset.Collection{}, fmt.Errorf("embed entry %d: %w", rowIndex, embedding.ErrEmptyEmbedding)
		}
		widened := make([]float64, len(vector))
		for componentIndex, value := range vector {
			widened[componentIndex] = float64(value)
		}
		vectors[rowIndex] = widened
		embedded = true
	}

	set, err := vectorset.New(vectors)
	if err != nil {
		return vectorset.Collection{}, err
	}
	if embedded {
		model = embedder.Model()
	}
	return vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: model}, nil
}

func loadJSON(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	var stringArray []string
	if err := json.Unmarshal(data, &stringArray); err == nil {
		rows := make([]Row, len(stringArray))
		for i, text := range stringArray {
			if text == "" {
				return nil, fmt.Errorf("entry %d is empty", i)
			}
			rows[i] = Row{Text: text}
		}
		return rows, nil
	}

	var objectArray []jsonTextObject
	if err := json.Unmarshal(data, &objectArray); err != nil {
		return nil, fmt.Errorf("parsing JSON: expected array of strings or objects with 'text' or 'vector' fields: %w", err)
	}

	rows := make([]Row, 0, len(objectArray))
	for i, obj := range objectArray {
		row, err := rowFromObject(i, obj)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadJSONLines(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON Lines file: %w", err)
	}

	var rows []Row
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj jsonTextObject
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNumber, err)
		}
		row, err := rowFromObject(len(rows), obj)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading JSON Lines: %w", err)
	}
	return rows, nil
}

func rowFromObject(index int, obj jsonTextObject) (Row, error) {
	if obj.Text == "" && len(obj.Vector) == 0 {
		return Row{}, fmt.Errorf("entry %d missing text and vector fields", index)
	}
	return Row{ID: obj.ID, Text: obj.Text, Metadata: obj.Metadata, Vector: obj.Vector}, nil
}

func loadCSV(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	columns := indexColumns(records[0])
	textCol, hasText := columns["text"]
	vectorCol, hasVector := columns["vector"]
	if !hasText && !hasVector {
		return nil, fmt.Errorf("CSV missing 'text' column header")
	}

	rows := make([]Row, 0, len(records)-1)
	for recordIndex, record := range records[1:] {
		lineNumber := recordIndex + 2
		row := Row{Metadata: map[string]any{}}

		if hasText && textCol < len(record) {
			row.Text = record[textCol]
		}
		if hasVector && vectorCol < len(record) && strings.TrimSpace(record[vectorCol]) != "" {
			if err := json.Unmarshal([]byte(record[vectorCol]), &row.Vector); err != nil {
				return nil, fmt.Errorf("line %d: parsing vector: %w", lineNumber, err)
			}
		}
		if row.Text == "" && len(row.Vector) == 0 {
			continue
		}

		for header, col := range columns {
			if col >= len(record) {
				continue
			}
			switch header {
			case "text", "vector":
			case "id":
				row.ID = record[col]
			case "metadata":
				if strings.TrimSpace(record[col]) == "" {
					continue
				}
				var metadata map[string]any
				if err := json.Unmarshal([]byte(record[col]), &metadata); err != nil {
					return nil, fmt.Errorf("line %d: parsing metadata: %w", lineNumber, err)
				}
				for key, value := range metadata {
					row.Metadata[key] = value
				}
			default:
				row.Metadata[header] = record[col]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// indexColumns maps lower-cased, trimmed header names to their column index.
// The first occurrence of a duplicated header wins.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[key]; !exists && key != "" {
			columns[key] = i
		}
	}
	return columns
}
