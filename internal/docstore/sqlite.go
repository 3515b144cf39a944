package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sbomrag/internal/models"
)

// SQLiteStore is a durable file-backed document store. Metadata is stored as
// JSON, embeddings as little-endian float32 blobs; scoring happens in process.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		meta TEXT NOT NULL,
		embedding BLOB,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// AddDocuments upserts documents by id within one transaction.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, text, meta, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			meta = excluded.meta,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	now := time.Now()
	for _, doc := range docs {
		metaJSON, err := json.Marshal(doc.Meta)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		var blob []byte
		if len(doc.Embedding) > 0 {
			blob = float32SliceToBytes(doc.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Text, string(metaJSON), blob, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Search loads documents, applies the filter, and scores in process.
func (s *SQLiteStore) Search(ctx context.Context, query Query) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, meta, embedding FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var doc models.Document
		var metaJSON string
		var blob []byte
		if err := rows.Scan(&doc.ID, &doc.Text, &metaJSON, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", doc.ID, err)
		}
		if len(blob) > 0 {
			doc.Embedding = bytesToFloat32Slice(blob)
		}
		if !query.Filter.Matches(doc.Meta) {
			continue
		}
		results = append(results, Result{Document: doc, Score: Score(query, &doc)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortAndLimit(results, query.Limit), nil
}

// DeleteProject removes every document whose metadata carries projectID.
func (s *SQLiteStore) DeleteProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE json_extract(meta, '$.project_id') = ?`, projectID)
	return err
}

// Clear removes all documents.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
