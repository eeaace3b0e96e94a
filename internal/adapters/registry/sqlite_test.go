package registry

import (
	"context"
	"testing"
	"time"

	"github.com/notelm/notelm/internal/domain/entities"
)

func newTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()
	reg, err := NewSQLiteRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("opening registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func sampleDoc(id, userID string, createdAt time.Time) entities.Document {
	return entities.Document{
		ID:        id,
		UserID:    userID,
		Type:      entities.DocumentTypeText,
		Title:     "Title " + id,
		Size:      42,
		Status:    entities.StatusUploading,
		CreatedAt: createdAt,
	}
}

func TestSQLiteRegistry_CreateAndList(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := reg.Create(ctx, sampleDoc("d1", "u1", base)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := reg.Create(ctx, sampleDoc("d2", "u1", base.Add(time.Hour))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	docs, err := reg.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "d2" || docs[1].ID != "d1" {
		t.Errorf("documents should be newest first: %s, %s", docs[0].ID, docs[1].ID)
	}
	if docs[0].Title != "Title d2" || docs[0].Size != 42 {
		t.Errorf("unexpected document: %+v", docs[0])
	}
	if !docs[1].CreatedAt.Equal(base) {
		t.Errorf("created_at round trip lost precision: %v", docs[1].CreatedAt)
	}
}

func TestSQLiteRegistry_ListScopedToUser(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()
	now := time.Now()

	_ = reg.Create(ctx, sampleDoc("d1", "alice", now))
	_ = reg.Create(ctx, sampleDoc("d2", "bob", now))

	docs, err := reg.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Errorf("alice should only see her own documents: %+v", docs)
	}
}

func TestSQLiteRegistry_StatusTransitions(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_ = reg.Create(ctx, sampleDoc("d1", "u1", time.Now()))

	if err := reg.MarkReady(ctx, "d1"); err != nil {
		t.Fatalf("mark ready failed: %v", err)
	}
	docs, _ := reg.ListByUser(ctx, "u1")
	if docs[0].Status != entities.StatusReady || docs[0].Error != "" {
		t.Errorf("expected ready status, got %+v", docs[0])
	}

	if err := reg.MarkError(ctx, "d1", "ingestion failed"); err != nil {
		t.Fatalf("mark error failed: %v", err)
	}
	docs, _ = reg.ListByUser(ctx, "u1")
	if docs[0].Status != entities.StatusError || docs[0].Error != "ingestion failed" {
		t.Errorf("expected error status with message, got %+v", docs[0])
	}
}

func TestSQLiteRegistry_DeleteIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_ = reg.Create(ctx, sampleDoc("d1", "u1", time.Now()))

	if err := reg.Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	docs, _ := reg.ListByUser(ctx, "u1")
	if len(docs) != 0 {
		t.Errorf("document should be gone, got %+v", docs)
	}

	if err := reg.Delete(ctx, "d1"); err != nil {
		t.Errorf("deleting an unknown id must be a no-op, got %v", err)
	}
}
