package boltdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fabula/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "fabula.db"))
	if err != nil {
		t.Fatalf("open bolt client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	store := NewDocumentStore(client)
	ctx := context.Background()

	doc := &storage.Document{
		ID:        "doc-1",
		UserID:    "user-1",
		Title:     "quarterly report",
		Status:    storage.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != doc.Title || got.Status != storage.StatusPending {
		t.Errorf("unexpected document: %+v", got)
	}

	processedAt := time.Now()
	got.Status = storage.StatusCompleted
	got.Pages = 7
	got.ProcessedAt = &processedAt
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Status != storage.StatusCompleted || updated.Pages != 7 || updated.ProcessedAt == nil {
		t.Errorf("update not persisted: %+v", updated)
	}
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := NewDocumentStore(newTestClient(t))

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChunkStore_OrderedListing(t *testing.T) {
	client := newTestClient(t)
	store := NewChunkStore(client)
	ctx := context.Background()

	// Enough chunks that lexicographic key order would break without the
	// zero-padded index encoding.
	var chunks []*storage.ContentChunk
	for i := 0; i < 12; i++ {
		chunks = append(chunks, &storage.ContentChunk{
			ID:          fmt.Sprintf("chunk-%d", i),
			DocumentID:  "doc-1",
			ChunkIndex:  i,
			ContentType: storage.ContentTypeText,
			Content:     fmt.Sprintf("paragraph %d", i),
			ReadingTime: 5,
			Metadata:    map[string]any{"page_number": 1, "word_count": 2, "char_count": 11},
		})
	}
	if err := store.PutChunks(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("put chunks: %v", err)
	}

	// A second document's chunks must not leak into the listing.
	other := []*storage.ContentChunk{{
		ID: "other", DocumentID: "doc-2", ChunkIndex: 0,
		ContentType: storage.ContentTypeText, Content: "other doc",
	}}
	if err := store.PutChunks(ctx, "doc-2", other); err != nil {
		t.Fatalf("put other chunks: %v", err)
	}

	listed, err := store.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 12 {
		t.Fatalf("expected 12 chunks, got %d", len(listed))
	}
	for i, chunk := range listed {
		if chunk.ChunkIndex != i {
			t.Errorf("position %d holds index %d; listing must follow chunk order", i, chunk.ChunkIndex)
		}
	}

	// JSON round-trips numbers in the metadata map as float64.
	if listed[0].Metadata["page_number"] != float64(1) {
		t.Errorf("unexpected metadata: %v", listed[0].Metadata)
	}
}

func TestChunkStore_GetByIndex(t *testing.T) {
	store := NewChunkStore(newTestClient(t))
	ctx := context.Background()

	chunks := []*storage.ContentChunk{
		{ID: "a", DocumentID: "doc-1", ChunkIndex: 0, Content: "first"},
		{ID: "b", DocumentID: "doc-1", ChunkIndex: 1, Content: "second"},
	}
	if err := store.PutChunks(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("put chunks: %v", err)
	}

	got, err := store.Get(ctx, "doc-1", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "second" {
		t.Errorf("expected second chunk, got %q", got.Content)
	}

	if _, err := store.Get(ctx, "doc-1", 5); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing index, got %v", err)
	}
}
