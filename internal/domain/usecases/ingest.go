// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// IngestRequest describes one document to ingest. Exactly one of
// FilePath and URL must be set, matching Type: file path for text and
// PDF sources, URL for websites.
type IngestRequest struct {
	Type        entities.DocumentType
	Title       string
	FilePath    string
	URL         string
	Size        int64
	UserID      string
	Credentials entities.Credentials
}

// IngestUseCase runs the ingestion pipeline: load, split, embed, upsert.
// Ingestion is best-effort, not atomic: a failure after some chunks were
// written leaves them in place and flips the registry row to error;
// re-uploading the document is the recovery path.
type IngestUseCase struct {
	loaders          map[entities.DocumentType]ports.DocumentLoader
	newEmbedder      ports.EmbedderFactory
	store            ports.VectorStore
	registry         ports.DocumentRegistry
	chunkSize        int
	chunkOverlap     int
	collectionPrefix string
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	loaders map[entities.DocumentType]ports.DocumentLoader,
	newEmbedder ports.EmbedderFactory,
	store ports.VectorStore,
	registry ports.DocumentRegistry,
	chunkSize, chunkOverlap int,
	collectionPrefix string,
) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	if collectionPrefix == "" {
		collectionPrefix = "notelm"
	}
	return &IngestUseCase{
		loaders:          loaders,
		newEmbedder:      newEmbedder,
		store:            store,
		registry:         registry,
		chunkSize:        chunkSize,
		chunkOverlap:     chunkOverlap,
		collectionPrefix: collectionPrefix,
	}
}

// Collection returns the vector store collection for a user. Collections
// are partitioned per user so one user's chunks are never visible to
// another.
func (uc *IngestUseCase) Collection(userID string) string {
	return uc.collectionPrefix + "_" + userID
}

// Ingest processes one document and returns its id. Validation failures
// return before any remote call.
func (uc *IngestUseCase) Ingest(ctx context.Context, req *IngestRequest) (string, error) {
	if err := uc.validate(req); err != nil {
		return "", err
	}

	doc := entities.Document{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Size:      req.Size,
		Status:    entities.StatusUploading,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.registry.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("recording document: %w", err)
	}

	if err := uc.process(ctx, req, doc.ID); err != nil {
		_ = uc.registry.MarkError(ctx, doc.ID, "ingestion failed")
		return "", err
	}

	if err := uc.registry.MarkReady(ctx, doc.ID); err != nil {
		return "", fmt.Errorf("updating document status: %w", err)
	}
	return doc.ID, nil
}

// Delete removes a document's chunks from the user's collection and its
// registry row. Unknown ids are a no-op so repeated deletes succeed.
func (uc *IngestUseCase) Delete(ctx context.Context, userID, documentID string) error {
	if err := uc.store.DeleteDocument(ctx, uc.Collection(userID), documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return uc.registry.Delete(ctx, documentID)
}

// Documents lists the registry records for a user.
func (uc *IngestUseCase) Documents(ctx context.Context, userID string) ([]entities.Document, error) {
	return uc.registry.ListByUser(ctx, userID)
}

func (uc *IngestUseCase) validate(req *IngestRequest) error {
	if !req.Type.Valid() {
		return ErrInvalidDocumentType
	}
	switch req.Type {
	case entities.DocumentTypeWebsite:
		if req.URL == "" {
			return ErrMissingPayload
		}
	default:
		if req.FilePath == "" {
			return ErrMissingPayload
		}
	}
	if req.Credentials.APIKey == "" || req.UserID == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (uc *IngestUseCase) process(ctx context.Context, req *IngestRequest, documentID string) error {
	loader, ok := uc.loaders[req.Type]
	if !ok {
		return ErrInvalidDocumentType
	}

	source := req.FilePath
	if req.Type == entities.DocumentTypeWebsite {
		source = req.URL
	}
	content, err := loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	texts := SplitText(content, uc.chunkSize, uc.chunkOverlap)
	if len(texts) == 0 {
		return nil // nothing to index
	}

	embedder, err := uc.newEmbedder(req.Credentials)
	if err != nil {
		return err
	}
	embeddings, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(embeddings))
	}

	chunks := make([]entities.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = entities.Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Content:    text,
			Index:      i,
			Title:      req.Title,
			Embedding:  embeddings[i],
		}
	}

	if err := uc.store.Upsert(ctx, uc.Collection(req.UserID), chunks); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	return nil
}
