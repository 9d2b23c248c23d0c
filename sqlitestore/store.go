// Package sqlitestore reads analysis collections from a SQLite table and writes
// embedded documents into one. It uses the pure Go modernc.org/sqlite driver.
//
// A table has the columns id, content, metadata and vector. Metadata is a JSON
// object or NULL. Vector is either a JSON array of numbers or a little-endian
// float32 blob, optionally prefixed with its int32 element count.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alDuncanson/latentscope/vectorset"
	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultTable is the table read when none is configured.
const DefaultTable = "documents"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is an open SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one stored row.
type Record struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// Open opens the database at path. The file is created on first write if it
// does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTable creates table if it does not already exist.
func (s *Store) CreateTable(ctx context.Context, table string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	statement := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		vector BLOB NOT NULL
	)`, table)
	if _, err := s.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Insert writes records into table in one transaction, replacing rows with the
// same id. Vectors are stored as length-prefixed blobs.
func (s *Store) Insert(ctx context.Context, table string, records []Record) error {
	if err := checkTableName(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	statement, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (id, content, metadata, vector) VALUES (?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer statement.Close()

	for _, record := range records {
		var metadata any
		if len(record.Metadata) > 0 {
			encoded, err := json.Marshal(record.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for %s: %w", record.ID, err)
			}
			metadata = string(encoded)
		}
		if _, err := statement.ExecContext(ctx, record.ID, record.Content, metadata, encodeVector(record.Vector)); err != nil {
			return fmt.Errorf("insert %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records reads up to limit rows from table ordered by rowid. A limit of zero
// or less reads every row.
func (s *Store) Records(ctx context.Context, table string, limit int) ([]Record, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, content, metadata, vector FROM %s ORDER BY rowid`, table)
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			id       sql.NullString
			content  sql.NullString
			metadata sql.NullString
			vector   []byte
		)
		if err := rows.Scan(&id, &content, &metadata, &vector); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records), err)
		}

		record := Record{ID: id.String, Content: content.String}
		if metadata.Valid && strings.TrimSpace(metadata.String) != "" {
			if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("row %s: decode metadata: %w", record.ID, err)
			}
		}
		if record.Vector, err = decodeVector(vector); err != nil {
			return nil, fmt.Errorf("row %s: %w", record.ID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return records, nil
}

// LoadCollection reads table as an analysis collection. Rows with an empty
// vector are skipped so vectors and documents stay aligned.
func (s *Store) LoadCollection(ctx context.Context, table string, limit int, embeddingModel string) (vectorset.Collection, error) {
	records, err := s.Records(ctx, table, limit)
	if err != nil {
		return vectorset.Collection{}, err
	}

	documents := make([]vectorset.Document, 0, len(records))
	vectors := make([][]float32, 0, len(records))
	for _, record := range records {
		if len(record.Vector) == 0 {
			continue
		}
		documents = append(documents, vectorset.Document{ID: record.ID, Text: record.Content, Metadata: record.Metadata})
		vectors = append(vectors, record.Vector)
	}

	set, err := vectorset.FromFloat32(vectors)
	if err != nil {
		return vectorset.Collection{}, fmt.Errorf("table %s: %w", table, err)
	}
	return vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: embeddingModel}, nil
}

func checkTableName(table string) error {
	if !tableNamePattern.MatchString(table) {
		return &vectorset.InvalidParameterError{Name: "table", Value: table, Reason: "must be a plain SQL identifier"}
	}
	return nil
}
