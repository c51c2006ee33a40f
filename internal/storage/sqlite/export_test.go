// ABOUTME: Tests for index export
// ABOUTME: Verifies section grouping and the YAML and Markdown formats
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/docqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func seedExportStore(t *testing.T) *ChunkStore {
	t.Helper()
	store := setupTestStore(t)
	chunks := []models.Chunk{
		testChunk("paper", 1, 1, "Abstract", "We propose a token.", 1, 0),
		testChunk("paper", 1, 2, "Abstract", "It has a fixed supply.", 0, 1),
		testChunk("paper", 2, 3, "Tokenomics", "Supply is 21 million.", 1, 1),
	}
	require.NoError(t, store.Upsert(context.Background(), "paper", chunks))
	return store
}

func TestExport(t *testing.T) {
	store := seedExportStore(t)

	data, err := store.Export(context.Background(), "paper")
	require.NoError(t, err)

	assert.Equal(t, "docqa", data.Tool)
	assert.Equal(t, "paper", data.DocID)
	assert.Equal(t, CollectionName("paper"), data.Collection)
	assert.Equal(t, 3, data.ChunkCount)
	require.Len(t, data.Sections, 2)
	assert.Equal(t, "Abstract", data.Sections[0].Section)
	assert.Len(t, data.Sections[0].Chunks, 2)
	assert.Equal(t, 2, data.Sections[1].Page)
	assert.Equal(t, "paper_p2_c3", data.Sections[1].Chunks[0].Key)
}

func TestExport_EmptyCollection(t *testing.T) {
	store := setupTestStore(t)

	data, err := store.Export(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, data.ChunkCount)
	assert.Empty(t, data.Sections)
}

func TestExportToYAML(t *testing.T) {
	store := seedExportStore(t)
	path := filepath.Join(t.TempDir(), "out", "index.yaml")

	require.NoError(t, store.ExportFile(context.Background(), "paper", path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ExportData
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, "paper", decoded.DocID)
	assert.Equal(t, 3, decoded.ChunkCount)
	assert.Equal(t, "Supply is 21 million.", decoded.Sections[1].Chunks[0].Text)
}

func TestExportToMarkdown(t *testing.T) {
	store := seedExportStore(t)
	path := filepath.Join(t.TempDir(), "index.md")

	require.NoError(t, store.ExportFile(context.Background(), "paper", path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	for _, want := range []string{
		"# Index Export - paper",
		"## Page 1 | Abstract",
		"## Page 2 | Tokenomics",
		"**Chunk 2** (`paper_p1_c2`)",
		"It has a fixed supply.",
	} {
		assert.True(t, strings.Contains(content, want), "missing %q", want)
	}
}
