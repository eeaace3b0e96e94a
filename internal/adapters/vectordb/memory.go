package vectordb

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/notelm/notelm/internal/domain/entities"
)

// MemoryStore is an in-memory vector store for tests and local
// development. Collections are plain slices guarded by a RWMutex; search
// is brute-force cosine similarity.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]entities.Chunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]entities.Chunk)}
}

// Upsert appends chunks to the collection, replacing chunks with the
// same id.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, c := range chunks {
		replaced := false
		for i := range existing {
			if existing[i].ID == c.ID {
				existing[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, c)
		}
	}
	s.collections[collection] = existing
	return nil
}

// Search returns the topK most similar chunks in the collection.
func (s *MemoryStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.collections[collection]
	results := make([]entities.QueryResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, entities.QueryResult{
			Chunk: c,
			Score: cosineSimilarity(embedding, c.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes all chunks for a document. Unknown documents
// are a no-op.
func (s *MemoryStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.collections[collection]
	kept := chunks[:0]
	for _, c := range chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.collections[collection] = kept
	return nil
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
