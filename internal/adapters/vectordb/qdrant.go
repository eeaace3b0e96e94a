// Package vectordb provides vector store adapters implementing
// ports.VectorStore. The backend is selected by configuration; all of
// them scope chunks into per-user collections.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/notelm/notelm/internal/domain/entities"
)

// QdrantStore is a minimal REST client to Qdrant. Collections use
// cosine distance and are created on first upsert; concurrent creation
// for the same user is tolerated because an existing collection with
// the same schema answers the create call with success.
type QdrantStore struct {
	url    string
	apiKey string
	client *http.Client

	mu      sync.Mutex
	created map[string]bool
}

// QdrantConfig contains connection details for Qdrant.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewQdrantStore creates a Qdrant-backed vector store.
func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		created: make(map[string]bool),
	}
}

// Upsert saves chunks into collection, creating it first if needed.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, chunks []entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection, len(chunks[0].Embedding)); err != nil {
		return err
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     c.ID,
			"vector": c.Embedding,
			"payload": map[string]any{
				"document_id": c.DocumentID,
				"chunk_index": c.Index,
				"title":       c.Title,
				"text":        c.Content,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), body, nil)
}

// Search returns the topK most similar chunks. A missing collection
// yields no results: a user who has uploaded nothing gets an empty
// context, not an error.
func (s *QdrantStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]entities.QueryResult, error) {
	if topK <= 0 {
		topK = 4
	}
	req := map[string]any{
		"vector":       embedding,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", collection), req, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	results := make([]entities.QueryResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := entities.Chunk{ID: r.ID}
		if v, ok := r.Payload["document_id"].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["title"].(string); ok {
			chunk.Title = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Content = v
		}
		results = append(results, entities.QueryResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// DeleteDocument removes all points whose payload references documentID.
// Unknown documents and missing collections are no-ops.
func (s *QdrantStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", collection), body, nil)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func (s *QdrantStore) ensureCollection(ctx context.Context, collection string, dim int) error {
	s.mu.Lock()
	known := s.created[collection]
	s.mu.Unlock()
	if known {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	err := s.do(ctx, http.MethodPut, "/collections/"+collection, body, nil)
	if err != nil && !isConflict(err) {
		return err
	}

	s.mu.Lock()
	s.created[collection] = true
	s.mu.Unlock()
	return nil
}

// statusError carries the HTTP status of a failed Qdrant call.
type statusError struct {
	status int
	method string
	path   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d", e.method, e.path, e.status)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func isConflict(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusConflict
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, method: method, path: path}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
