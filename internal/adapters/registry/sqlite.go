// Package registry provides the SQLite-backed document registry
// implementing ports.DocumentRegistry. Only document metadata lives
// here; chunk vectors live in the vector store.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/notelm/notelm/internal/domain/entities"
)

// SQLiteRegistry records documents and their ingestion status.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens (or creates) the registry database at
// dataPath/documents.db.
func NewSQLiteRegistry(dataPath string) (*SQLiteRegistry, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "documents.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	r := &SQLiteRegistry{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRegistry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Create inserts a new document record.
func (r *SQLiteRegistry) Create(ctx context.Context, doc entities.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, type, title, size, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, string(doc.Type), doc.Title, doc.Size,
		string(doc.Status), doc.Error, doc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// MarkReady flips a document to the ready state.
func (r *SQLiteRegistry) MarkReady(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, entities.StatusReady, "")
}

// MarkError flips a document to the error state with a message.
func (r *SQLiteRegistry) MarkError(ctx context.Context, id, message string) error {
	return r.setStatus(ctx, id, entities.StatusError, message)
}

func (r *SQLiteRegistry) setStatus(ctx context.Context, id string, status entities.DocumentStatus, message string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error = ? WHERE id = ?",
		string(status), message, id,
	)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	return nil
}

// Delete removes a document record. Unknown ids are a no-op.
func (r *SQLiteRegistry) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	return err
}

// ListByUser returns a user's documents, newest first.
func (r *SQLiteRegistry) ListByUser(ctx context.Context, userID string) ([]entities.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, size, status, error, created_at
		FROM documents WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		var doc entities.Document
		var docType, status, createdAt string
		if err := rows.Scan(&doc.ID, &doc.UserID, &docType, &doc.Title, &doc.Size, &status, &doc.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		doc.Type = entities.DocumentType(docType)
		doc.Status = entities.DocumentStatus(status)
		doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
