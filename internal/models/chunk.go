// ABOUTME: Chunk represents an indexed span of page text with section metadata
// ABOUTME: RetrievedChunk is the query-time view with a cosine distance
package models

import "fmt"

// UnknownSection labels text that precedes any detected heading
const UnknownSection = "Unknown Section"

// Chunk is the unit of storage and retrieval for a document
type Chunk struct {
	Key       string    `json:"key"`
	DocID     string    `json:"doc_id"`
	Page      int       `json:"page"`
	Section   string    `json:"section"`
	ChunkID   int       `json:"chunk_id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"-"`
}

// ChunkKey builds the storage key for a chunk: <docID>_p<page>_c<chunkID>
func ChunkKey(docID string, page, chunkID int) string {
	return fmt.Sprintf("%s_p%d_c%d", docID, page, chunkID)
}

// RetrievedChunk joins chunk metadata with its distance to a query (lower is closer)
type RetrievedChunk struct {
	Page     int     `json:"page" yaml:"page"`
	Section  string  `json:"section" yaml:"section"`
	Text     string  `json:"text" yaml:"text"`
	Distance float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
}
