// ABOUTME: Tests for Chunk keys and RetrievedChunk defaults
// ABOUTME: Verifies the storage key layout used by the indexer
package models

import "testing"

func TestChunkKey(t *testing.T) {
	tests := []struct {
		name    string
		docID   string
		page    int
		chunkID int
		want    string
	}{
		{"first chunk", "abcdef0123456789", 1, 1, "abcdef0123456789_p1_c1"},
		{"later page", "abcdef0123456789", 12, 40, "abcdef0123456789_p12_c40"},
		{"empty doc id", "", 3, 2, "_p3_c2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChunkKey(tt.docID, tt.page, tt.chunkID); got != tt.want {
				t.Errorf("ChunkKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnknownSection(t *testing.T) {
	if UnknownSection != "Unknown Section" {
		t.Errorf("UnknownSection = %q, want %q", UnknownSection, "Unknown Section")
	}
}
