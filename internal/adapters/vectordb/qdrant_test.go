package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/notelm/notelm/internal/domain/entities"
)

type fakeQdrant struct {
	mu       sync.Mutex
	requests []string

	searchStatus int
	searchBody   string
	deleteStatus int
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notelm_u1":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notelm_u1/points":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/collections/notelm_u1/points/search":
			status := f.searchStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			if f.searchBody != "" {
				w.Write([]byte(f.searchBody))
			} else {
				w.Write([]byte(`{"result":[]}`))
			}
		case r.Method == http.MethodPost && r.URL.Path == "/collections/notelm_u1/points/delete":
			status := f.deleteStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			w.Write([]byte(`{"result":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeQdrant) seen(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func TestQdrantStore_UpsertCreatesCollectionOnce(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	ctx := context.Background()
	chunks := []entities.Chunk{{ID: "a", DocumentID: "d1", Content: "hello", Embedding: []float32{1, 0}}}

	if err := store.Upsert(ctx, "notelm_u1", chunks); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, "notelm_u1", chunks); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if !fake.seen("PUT /collections/notelm_u1") {
		t.Error("collection should have been created")
	}
	fake.mu.Lock()
	creates := 0
	for _, r := range fake.requests {
		if r == "PUT /collections/notelm_u1" {
			creates++
		}
	}
	fake.mu.Unlock()
	if creates != 1 {
		t.Errorf("collection should be created exactly once, got %d", creates)
	}
}

func TestQdrantStore_UpsertEmptyIsNoop(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	if err := store.Upsert(context.Background(), "notelm_u1", nil); err != nil {
		t.Fatalf("empty upsert failed: %v", err)
	}
	if len(fake.requests) != 0 {
		t.Errorf("no requests expected, got %v", fake.requests)
	}
}

func TestQdrantStore_SearchParsesPayload(t *testing.T) {
	fake := &fakeQdrant{searchBody: `{"result":[
		{"id":"p1","score":0.92,"payload":{"document_id":"d1","chunk_index":2,"title":"Notes","text":"body"}}
	]}`}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	results, err := store.Search(context.Background(), "notelm_u1", []float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.Chunk.ID != "p1" || got.Chunk.DocumentID != "d1" || got.Chunk.Index != 2 ||
		got.Chunk.Title != "Notes" || got.Chunk.Content != "body" {
		t.Errorf("unexpected chunk: %+v", got.Chunk)
	}
	if got.Score != 0.92 {
		t.Errorf("unexpected score: %f", got.Score)
	}
}

func TestQdrantStore_SearchMissingCollectionIsEmpty(t *testing.T) {
	fake := &fakeQdrant{searchStatus: http.StatusNotFound}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	results, err := store.Search(context.Background(), "notelm_u1", []float32{1}, 4)
	if err != nil {
		t.Fatalf("missing collection should not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestQdrantStore_DeleteMissingCollectionIsNoop(t *testing.T) {
	fake := &fakeQdrant{deleteStatus: http.StatusNotFound}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	if err := store.DeleteDocument(context.Background(), "notelm_u1", "d1"); err != nil {
		t.Errorf("delete against missing collection should be a no-op, got %v", err)
	}
}

func TestQdrantStore_DeleteFiltersByDocumentID(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/notelm_u1/points/delete" {
			json.NewDecoder(r.Body).Decode(&captured)
		}
		w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	if err := store.DeleteDocument(context.Background(), "notelm_u1", "doc-42"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	filter, _ := captured["filter"].(map[string]any)
	must, _ := filter["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("expected one filter clause, got %v", captured)
	}
	clause := must[0].(map[string]any)
	if clause["key"] != "document_id" {
		t.Errorf("filter should target document_id, got %v", clause["key"])
	}
	match := clause["match"].(map[string]any)
	if match["value"] != "doc-42" {
		t.Errorf("filter should match doc-42, got %v", match["value"])
	}
}

func TestQdrantStore_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL, APIKey: "secret"})
	if _, err := store.Search(context.Background(), "notelm_u1", []float32{1}, 4); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("api-key header not sent, got %q", gotKey)
	}
}
