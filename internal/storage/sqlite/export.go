// ABOUTME: Export of a document's indexed chunks for inspection
// ABOUTME: Supports YAML and Markdown export formats
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the exportable view of one collection
type ExportData struct {
	Version    string          `yaml:"version" json:"version"`
	ExportedAt string          `yaml:"exported_at" json:"exported_at"`
	Tool       string          `yaml:"tool" json:"tool"`
	DocID      string          `yaml:"doc_id" json:"doc_id"`
	Collection string          `yaml:"collection" json:"collection"`
	ChunkCount int             `yaml:"chunk_count" json:"chunk_count"`
	Sections   []ExportSection `yaml:"sections" json:"sections"`
}

// ExportSection groups consecutive chunks sharing a page and section
type ExportSection struct {
	Page    int           `yaml:"page" json:"page"`
	Section string        `yaml:"section" json:"section"`
	Chunks  []ExportChunk `yaml:"chunks" json:"chunks"`
}

// ExportChunk represents a chunk for export
type ExportChunk struct {
	Key     string `yaml:"key" json:"key"`
	ChunkID int    `yaml:"chunk_id" json:"chunk_id"`
	Text    string `yaml:"text" json:"text"`
}

// Export collects the chunks of docID in chunk id order
func (s *ChunkStore) Export(ctx context.Context, docID string) (*ExportData, error) {
	chunks, err := s.Chunks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "docqa",
		DocID:      docID,
		Collection: CollectionName(docID),
		ChunkCount: len(chunks),
		Sections:   []ExportSection{},
	}

	for _, ch := range chunks {
		n := len(data.Sections)
		if n == 0 || data.Sections[n-1].Page != ch.Page || data.Sections[n-1].Section != ch.Section {
			data.Sections = append(data.Sections, ExportSection{Page: ch.Page, Section: ch.Section})
			n++
		}
		data.Sections[n-1].Chunks = append(data.Sections[n-1].Chunks, ExportChunk{
			Key:     ch.Key,
			ChunkID: ch.ChunkID,
			Text:    ch.Text,
		})
	}

	return data, nil
}

func createExportFile(outputPath string) (*os.File, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

// ExportToYAML exports the chunks of docID to a YAML file
func (s *ChunkStore) ExportToYAML(ctx context.Context, docID, outputPath string) error {
	data, err := s.Export(ctx, docID)
	if err != nil {
		return err
	}

	file, err := createExportFile(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ExportToMarkdown exports the chunks of docID to a Markdown file, one heading per page and section
func (s *ChunkStore) ExportToMarkdown(ctx context.Context, docID, outputPath string) error {
	data, err := s.Export(ctx, docID)
	if err != nil {
		return err
	}

	file, err := createExportFile(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Write header
	_, _ = fmt.Fprintf(file, "# Index Export - %s\n\n", data.DocID)
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", data.ExportedAt)
	_, _ = fmt.Fprintf(file, "- **Collection:** %s\n", data.Collection)
	_, _ = fmt.Fprintf(file, "- **Chunks:** %d\n\n", data.ChunkCount)

	for _, section := range data.Sections {
		_, _ = fmt.Fprintf(file, "## Page %d | %s\n\n", section.Page, section.Section)
		for _, ch := range section.Chunks {
			_, _ = fmt.Fprintf(file, "**Chunk %d** (`%s`)\n\n", ch.ChunkID, ch.Key)
			_, _ = fmt.Fprintf(file, "%s\n\n", ch.Text)
		}
		_, _ = fmt.Fprintln(file, "---")
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

// ExportFile picks the format from the extension: .md for Markdown, anything else YAML
func (s *ChunkStore) ExportFile(ctx context.Context, docID, outputPath string) error {
	switch filepath.Ext(outputPath) {
	case ".md", ".markdown":
		return s.ExportToMarkdown(ctx, docID, outputPath)
	}
	return s.ExportToYAML(ctx, docID, outputPath)
}
