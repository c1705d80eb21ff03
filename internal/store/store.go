// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists tactical task records and order documents in a
// SQLite database, and serves exact-name and nearest-neighbor lookups
// over the task embeddings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

const (
	indexDir  = "index"
	dbFile    = "doctrine.db"
	imagesDir = "public/task_images"
)

// Store manages the doctrine-engine SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the database at dataDir/index/doctrine.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImageDir returns the directory where extracted figure images are
// written, creating it if needed.
func (s *Store) ImageDir() (string, error) {
	dir := filepath.Join(s.dataDir, filepath.FromSlash(imagesDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}
	return dir, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			definition TEXT NOT NULL,
			page_number TEXT,
			source_reference TEXT,
			related_figures TEXT,
			image_path TEXT,
			embedding BLOB,
			dims INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_name ON tasks(name)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			content TEXT NOT NULL DEFAULT '',
			analysis_results TEXT,
			analysis_error TEXT NOT NULL DEFAULT '',
			updated_at TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NormalizeName upper-cases and trims a task name to the store's
// canonical key form.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Upsert inserts the record if its name is absent, or replaces all
// mutable fields of the existing record. The name is normalized before
// storage; repeated identical calls leave the stored row unchanged.
func (s *Store) Upsert(ctx context.Context, rec types.TaskRecord) error {
	name := NormalizeName(rec.Name)
	if name == "" {
		return fmt.Errorf("upserting task: empty name")
	}
	if len(rec.Embedding) != 0 && len(rec.Embedding) != types.EmbeddingDim {
		return fmt.Errorf("upserting task %s: embedding has %d components, want %d",
			name, len(rec.Embedding), types.EmbeddingDim)
	}

	figuresJSON, err := json.Marshal(rec.RelatedFigures)
	if err != nil {
		return fmt.Errorf("marshaling figure references: %w", err)
	}

	var blob []byte
	var dims int
	if len(rec.Embedding) > 0 {
		blob = vectorToBlob(rec.Embedding)
		dims = len(rec.Embedding)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (name, definition, page_number, source_reference, related_figures, image_path, embedding, dims)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			definition=excluded.definition, page_number=excluded.page_number,
			source_reference=excluded.source_reference, related_figures=excluded.related_figures,
			image_path=excluded.image_path, embedding=excluded.embedding, dims=excluded.dims`,
		name, rec.Definition, rec.PageNumber, rec.SourceReference,
		string(figuresJSON), rec.ImagePath, blob, dims,
	)
	if err != nil {
		return fmt.Errorf("upserting task %s: %w", name, err)
	}
	return nil
}

const taskColumns = `id, name, definition, page_number, source_reference, related_figures, image_path, embedding, dims`

// GetByName returns the record stored under the normalized form of
// name, or nil when no such task exists.
func (s *Store) GetByName(ctx context.Context, name string) (*types.TaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE name = ?`, NormalizeName(name))

	rec, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up task %s: %w", name, err)
	}
	return rec, nil
}

// ListNames returns all stored task names in insertion order.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing task names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning task name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// All returns every stored task record in insertion order.
func (s *Store) All(ctx context.Context) ([]types.TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var records []types.TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*types.TaskRecord, error) {
	var (
		rec         types.TaskRecord
		pageNumber  sql.NullString
		sourceRef   sql.NullString
		figuresJSON sql.NullString
		imagePath   sql.NullString
		blob        []byte
		dims        sql.NullInt64
	)

	if err := sc.Scan(
		&rec.ID, &rec.Name, &rec.Definition, &pageNumber, &sourceRef,
		&figuresJSON, &imagePath, &blob, &dims,
	); err != nil {
		return nil, err
	}

	rec.PageNumber = pageNumber.String
	rec.SourceReference = sourceRef.String
	rec.ImagePath = imagePath.String
	if figuresJSON.Valid {
		json.Unmarshal([]byte(figuresJSON.String), &rec.RelatedFigures)
	}
	if len(blob) > 0 && dims.Int64 > 0 {
		rec.Embedding = blobToVector(blob, int(dims.Int64))
	}

	return &rec, nil
}
