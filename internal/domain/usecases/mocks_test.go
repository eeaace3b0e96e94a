package usecases

import (
	"context"
	"errors"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService and counts calls.
type mockEmbedder struct {
	documentCalls int
	queryCalls    int
	embedErr      error
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.documentCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockStore implements ports.VectorStore with per-collection slices.
type mockStore struct {
	collections map[string][]entities.Chunk
	searchHits  []entities.QueryResult
	upsertErr   error
	searchCalls int
}

func newMockStore() *mockStore {
	return &mockStore{collections: make(map[string][]entities.Chunk)}
}

func (m *mockStore) Upsert(ctx context.Context, collection string, chunks []entities.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.collections[collection] = append(m.collections[collection], chunks...)
	return nil
}

func (m *mockStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]entities.QueryResult, error) {
	m.searchCalls++
	return m.searchHits, nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	kept := m.collections[collection][:0]
	for _, c := range m.collections[collection] {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.collections[collection] = kept
	return nil
}

// mockRegistry implements ports.DocumentRegistry in memory.
type mockRegistry struct {
	docs map[string]entities.Document
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{docs: make(map[string]entities.Document)}
}

func (m *mockRegistry) Create(ctx context.Context, doc entities.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockRegistry) MarkReady(ctx context.Context, id string) error {
	doc, ok := m.docs[id]
	if !ok {
		return errors.New("unknown document")
	}
	doc.Status = entities.StatusReady
	m.docs[id] = doc
	return nil
}

func (m *mockRegistry) MarkError(ctx context.Context, id, message string) error {
	doc, ok := m.docs[id]
	if !ok {
		return errors.New("unknown document")
	}
	doc.Status = entities.StatusError
	doc.Error = message
	m.docs[id] = doc
	return nil
}

func (m *mockRegistry) Delete(ctx context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

func (m *mockRegistry) ListByUser(ctx context.Context, userID string) ([]entities.Document, error) {
	var out []entities.Document
	for _, doc := range m.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// staticLoader implements ports.DocumentLoader returning fixed content.
type staticLoader struct {
	content string
	err     error
	calls   int
}

func (l *staticLoader) Load(ctx context.Context, source string) (string, error) {
	l.calls++
	return l.content, l.err
}

// mockChatModel implements ports.ChatModel.
type mockChatModel struct {
	reply    string
	err      error
	calls    int
	received []entities.ChatMessage
}

func (m *mockChatModel) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	m.calls++
	m.received = messages
	return m.reply, m.err
}

func embedderFactory(m *mockEmbedder) ports.EmbedderFactory {
	return func(creds entities.Credentials) (ports.EmbeddingService, error) {
		return m, nil
	}
}

func chatModelFactory(m *mockChatModel) ports.ChatModelFactory {
	return func(creds entities.Credentials) (ports.ChatModel, error) {
		return m, nil
	}
}
