// ABOUTME: Chunk persistence and nearest-neighbour search within one collection
// ABOUTME: Upsert replaces every chunk of a document inside a single transaction
package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/harper/docqa/internal/models"
)

// ChunkCollection handles chunk persistence for one collection file
type ChunkCollection struct {
	db   *DB
	name string
}

// NewChunkCollection creates a ChunkCollection over an open database
func NewChunkCollection(db *DB, name string) *ChunkCollection {
	return &ChunkCollection{db: db, name: name}
}

// Name returns the collection name
func (c *ChunkCollection) Name() string {
	return c.name
}

// Replace deletes every chunk tagged with docID, then inserts chunks.
// Both steps commit together or not at all.
func (c *ChunkCollection) Replace(ctx context.Context, docID string, chunks []models.Chunk) error {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (key, doc_id, page, section, chunk_id, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", ch.Key)
		}
		if _, err := stmt.ExecContext(ctx, ch.Key, docID, ch.Page, ch.Section, ch.ChunkID, ch.Text, vectorToBlob(ch.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", ch.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Count returns the number of chunks stored for docID
func (c *ChunkCollection) Count(ctx context.Context, docID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE doc_id = ?`, docID).Scan(&n)
	return n, err
}

// List returns the stored chunks of docID ordered by chunk id, without vectors
func (c *ChunkCollection) List(ctx context.Context, docID string) ([]models.Chunk, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT key, doc_id, page, section, chunk_id, text
		FROM chunks
		WHERE doc_id = ?
		ORDER BY chunk_id ASC
	`, docID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chunks []models.Chunk
	for rows.Next() {
		var ch models.Chunk
		if err := rows.Scan(&ch.Key, &ch.DocID, &ch.Page, &ch.Section, &ch.ChunkID, &ch.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// Search scans the chunks of docID and returns the k nearest by cosine distance, nearest first
func (c *ChunkCollection) Search(ctx context.Context, docID string, query []float64, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT page, section, chunk_id, text, vector
		FROM chunks
		WHERE doc_id = ?
	`, docID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type scored struct {
		chunk   models.RetrievedChunk
		chunkID int
	}
	var results []scored

	for rows.Next() {
		var (
			r    scored
			blob []byte
		)
		if err := rows.Scan(&r.chunk.Page, &r.chunk.Section, &r.chunkID, &r.chunk.Text, &blob); err != nil {
			return nil, err
		}
		r.chunk.Distance = CosineDistance(query, blobToVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Sort by distance ascending, ties by chunk order
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].chunk.Distance != results[j].chunk.Distance {
			return results[i].chunk.Distance < results[j].chunk.Distance
		}
		return results[i].chunkID < results[j].chunkID
	})

	if len(results) > k {
		results = results[:k]
	}

	out := make([]models.RetrievedChunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
	}
	return out, nil
}
