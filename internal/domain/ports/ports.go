// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/notelm/notelm/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
// Document and query embedding are distinct because some providers
// optimize differently for indexing versus retrieval.
type EmbeddingService interface {
	// EmbedDocuments generates one embedding per input text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel generates a completion for a conversation.
type ChatModel interface {
	// Complete issues a single completion request and returns the
	// model's text, which may be empty.
	Complete(ctx context.Context, messages []entities.ChatMessage) (string, error)
}

// EmbedderFactory builds a request-scoped EmbeddingService from the
// caller's credentials. Unknown providers return an error.
type EmbedderFactory func(creds entities.Credentials) (EmbeddingService, error)

// ChatModelFactory builds a request-scoped ChatModel from the caller's
// credentials.
type ChatModelFactory func(creds entities.Credentials) (ChatModel, error)

// VectorStore persists and queries chunk embeddings. Collections
// partition chunks per user; implementations create a collection on
// first upsert.
type VectorStore interface {
	// Upsert saves chunks with their embeddings into a collection.
	Upsert(ctx context.Context, collection string, chunks []entities.Chunk) error

	// Search finds the chunks most similar to the query embedding.
	// A collection that does not exist yet yields no results, not an error.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]entities.QueryResult, error)

	// DeleteDocument removes all chunks belonging to a document.
	// Deleting an unknown document is a no-op.
	DeleteDocument(ctx context.Context, collection, documentID string) error
}

// DocumentLoader converts a single kind of source into plain text.
// The source is a file path for text and PDF loaders, a URL for the
// website loader.
type DocumentLoader interface {
	Load(ctx context.Context, source string) (string, error)
}

// DocumentRegistry records document metadata and ingestion status.
type DocumentRegistry interface {
	Create(ctx context.Context, doc entities.Document) error
	MarkReady(ctx context.Context, id string) error
	MarkError(ctx context.Context, id, message string) error

	// Delete removes a document record. Unknown ids are a no-op.
	Delete(ctx context.Context, id string) error

	ListByUser(ctx context.Context, userID string) ([]entities.Document, error)
}

// FileWatcher monitors a directory for documents to ingest.
type FileWatcher interface {
	// Watch emits the paths of files created or modified under dir.
	Watch(ctx context.Context, dir string) (<-chan string, error)

	// Stop stops the watcher.
	Stop() error
}
