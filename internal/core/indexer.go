// ABOUTME: Indexer turns extracted pages into embedded chunks in the vector index
// ABOUTME: Rebuilding an index replaces every chunk previously stored for the document
package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/models"
)

// ChunkIndex is the vector index the assistant reads and writes
type ChunkIndex interface {
	// Upsert replaces all chunks stored for docID
	Upsert(ctx context.Context, docID string, chunks []models.Chunk) error
	// Query returns up to k chunks of docID ordered by ascending distance
	Query(ctx context.Context, docID string, embedding []float64, k int) ([]models.RetrievedChunk, error)
}

// Indexer builds the per-document index
type Indexer struct {
	chunker  *ChunkEngine
	embedder llm.Embedder
	index    ChunkIndex
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewIndexer creates an Indexer. logger and m may be nil.
func NewIndexer(chunker *ChunkEngine, embedder llm.Embedder, index ChunkIndex, logger *zap.Logger, m *metrics.Metrics) *Indexer {
	if chunker == nil {
		chunker = NewChunkEngine(0, -1)
	}
	return &Indexer{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

// BuildChunks chunks every non-blank page. Chunk ids run from 1 across the whole
// document in page order; embeddings are left empty.
func (ix *Indexer) BuildChunks(docID string, pages []models.Page) []models.Chunk {
	var (
		chunks  []models.Chunk
		chunkID int
	)
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, pc := range ix.chunker.ChunkPage(page.Text) {
			if strings.TrimSpace(pc.Text) == "" {
				continue
			}
			section := pc.Section
			if section == "" {
				section = models.UnknownSection
			}
			chunkID++
			chunks = append(chunks, models.Chunk{
				Key:     models.ChunkKey(docID, page.Number, chunkID),
				DocID:   docID,
				Page:    page.Number,
				Section: section,
				ChunkID: chunkID,
				Text:    pc.Text,
			})
		}
	}
	return chunks
}

// IndexDocument chunks and embeds pages, then replaces the stored chunks for docID.
// Any embedding failure aborts before the index is touched. Returns the chunk count.
func (ix *Indexer) IndexDocument(ctx context.Context, docID string, pages []models.Page) (int, error) {
	chunks := ix.BuildChunks(docID, pages)

	for i := range chunks {
		vec, err := ix.embedder.Embed(ctx, chunks[i].Text, llm.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %s: %w", chunks[i].Key, err)
		}
		chunks[i].Embedding = vec
	}

	if err := ix.index.Upsert(ctx, docID, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	ix.metrics.ChunksIndexed(len(chunks))
	ix.logger.Info("document indexed",
		zap.String("doc_id", docID),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
