// ABOUTME: Directory-backed vector index with one SQLite collection file per document
// ABOUTME: Collections are opened lazily and survive process restarts
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/harper/docqa/internal/models"
)

var unsafeCollectionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CollectionName maps a document id to a storage-safe collection name
func CollectionName(docID string) string {
	return "doc_" + unsafeCollectionChars.ReplaceAllString(docID, "_")
}

// ChunkStore manages the per-document collections under a directory
type ChunkStore struct {
	dir         string
	mu          sync.Mutex
	collections map[string]*openCollection
}

type openCollection struct {
	db  *DB
	col *ChunkCollection
}

// NewChunkStore creates the directory if needed
func NewChunkStore(dir string) (*ChunkStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("index directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return &ChunkStore{
		dir:         dir,
		collections: make(map[string]*openCollection),
	}, nil
}

// Dir returns the index directory
func (s *ChunkStore) Dir() string {
	return s.dir
}

// Path returns the collection file for docID
func (s *ChunkStore) Path(docID string) string {
	return filepath.Join(s.dir, CollectionName(docID)+".db")
}

// collection opens the collection for docID. With create false a missing
// collection file yields a nil collection instead of a new empty file.
func (s *ChunkStore) collection(docID string, create bool) (*ChunkCollection, error) {
	name := CollectionName(docID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if oc, ok := s.collections[name]; ok {
		return oc.col, nil
	}
	if !create {
		if _, err := os.Stat(s.Path(docID)); os.IsNotExist(err) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to stat collection %s: %w", name, err)
		}
	}

	db, err := Open(s.Path(docID))
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	oc := &openCollection{db: db, col: NewChunkCollection(db, name)}
	s.collections[name] = oc
	return oc.col, nil
}

// Upsert replaces all chunks of docID with chunks
func (s *ChunkStore) Upsert(ctx context.Context, docID string, chunks []models.Chunk) error {
	col, err := s.collection(docID, true)
	if err != nil {
		return err
	}
	return col.Replace(ctx, docID, chunks)
}

// Query returns up to k chunks of docID nearest to embedding. An empty collection yields no results.
func (s *ChunkStore) Query(ctx context.Context, docID string, embedding []float64, k int) ([]models.RetrievedChunk, error) {
	col, err := s.collection(docID, false)
	if err != nil || col == nil {
		return nil, err
	}
	return col.Search(ctx, docID, embedding, k)
}

// Count returns the number of chunks indexed for docID
func (s *ChunkStore) Count(ctx context.Context, docID string) (int, error) {
	col, err := s.collection(docID, false)
	if err != nil || col == nil {
		return 0, err
	}
	return col.Count(ctx, docID)
}

// Chunks lists the chunks indexed for docID in order
func (s *ChunkStore) Chunks(ctx context.Context, docID string) ([]models.Chunk, error) {
	col, err := s.collection(docID, false)
	if err != nil || col == nil {
		return nil, err
	}
	return col.List(ctx, docID)
}

// Drop closes and deletes the collection file of docID
func (s *ChunkStore) Drop(docID string) error {
	name := CollectionName(docID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if oc, ok := s.collections[name]; ok {
		_ = oc.db.Close()
		delete(s.collections, name)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.Path(docID) + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove collection %s: %w", name, err)
		}
	}
	return nil
}

// Close closes every open collection
func (s *ChunkStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for name, oc := range s.collections {
		if err := oc.db.Close(); err != nil && first == nil {
			first = err
		}
		delete(s.collections, name)
	}
	return first
}
