// ABOUTME: Tests for building and storing the document index
// ABOUTME: Uses the in-memory fake index and the real SQLite chunk store
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage/sqlite"
)

func testPages() []models.Page {
	return []models.Page{
		{Number: 1, Text: "INTRODUCTION\nThe team builds a settlement network."},
		{Number: 2, Text: "   \n  "},
		{Number: 3, Text: "Tokenomics:\nTotal supply is 1,000,000 tokens."},
	}
}

func TestIndexer_BuildChunks(t *testing.T) {
	ix := NewIndexer(nil, &fakeEmbedder{}, newFakeIndex(), nil, nil)
	chunks := ix.BuildChunks("abc", testPages())

	if len(chunks) != 2 {
		t.Fatalf("BuildChunks() returned %d chunks, want 2", len(chunks))
	}

	want := []struct {
		key     string
		page    int
		id      int
		section string
	}{
		{"abc_p1_c1", 1, 1, "INTRODUCTION"},
		{"abc_p3_c2", 3, 2, "Tokenomics"},
	}
	for i, w := range want {
		c := chunks[i]
		if c.Key != w.key || c.Page != w.page || c.ChunkID != w.id || c.Section != w.section || c.DocID != "abc" {
			t.Errorf("chunks[%d] = %+v, want key=%s page=%d id=%d section=%s", i, c, w.key, w.page, w.id, w.section)
		}
	}
}

func TestIndexer_IndexDocument(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	m := metrics.New()
	ix := NewIndexer(NewChunkEngine(0, -1), embedder, index, nil, m)

	n, err := ix.IndexDocument(context.Background(), "abc", testPages())
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if n != 2 {
		t.Errorf("IndexDocument() = %d, want 2", n)
	}

	stored := index.upserts["abc"]
	if len(stored) != 2 {
		t.Fatalf("stored %d chunks, want 2", len(stored))
	}
	for _, c := range stored {
		if len(c.Embedding) == 0 {
			t.Errorf("chunk %s stored without embedding", c.Key)
		}
	}
	for _, task := range embedder.calls {
		if task != llm.TaskRetrievalDocument {
			t.Errorf("embedded with task %q, want %q", task, llm.TaskRetrievalDocument)
		}
	}
}

func TestIndexer_EmbedFailureLeavesIndexUntouched(t *testing.T) {
	index := newFakeIndex()
	ix := NewIndexer(nil, &fakeEmbedder{err: errFake}, index, nil, nil)

	_, err := ix.IndexDocument(context.Background(), "abc", testPages())
	if !errors.Is(err, errFake) {
		t.Fatalf("IndexDocument() error = %v, want errFake", err)
	}
	if _, ok := index.upserts["abc"]; ok {
		t.Error("index should not be written when embedding fails")
	}
}

func TestIndexer_SQLiteRoundTrip(t *testing.T) {
	store, err := sqlite.NewChunkStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewChunkStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	embedder := &fakeEmbedder{}
	ix := NewIndexer(nil, embedder, store, nil, nil)

	if _, err := ix.IndexDocument(ctx, "doc1", testPages()); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	// Rebuilding replaces rather than appends
	if _, err := ix.IndexDocument(ctx, "doc1", testPages()); err != nil {
		t.Fatalf("IndexDocument() second run error = %v", err)
	}
	count, err := store.Count(ctx, "doc1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	vec, _ := embedder.Embed(ctx, "token supply", llm.TaskRetrievalQuery)
	results, err := store.Query(ctx, "doc1", vec, 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Query() returned %d results, want 2", len(results))
	}
	if results[0].Page != 3 || results[0].Section != "Tokenomics" {
		t.Errorf("closest chunk = page %d section %q, want page 3 Tokenomics", results[0].Page, results[0].Section)
	}
}
