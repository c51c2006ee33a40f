// ABOUTME: CLI command to index a whitepaper
// ABOUTME: Extracts pages, chunks by section and stores embeddings in the document's collection
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexExport string

type indexResult struct {
	DocID  string `json:"doc_id" yaml:"doc_id"`
	Name   string `json:"name" yaml:"name"`
	Pages  int    `json:"pages" yaml:"pages"`
	Chunks int    `json:"chunks" yaml:"chunks"`
	Index  string `json:"index" yaml:"index"`
	Export string `json:"export,omitempty" yaml:"export,omitempty"`
}

// NewIndexCmd creates index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a whitepaper for question answering",
		Long: `Extract page text, split it into section-tagged chunks, embed them and
store them in the document's collection. Re-indexing replaces the old chunks.

Examples:
  docqa index whitepaper.pdf
  docqa index notes.md --format json
  docqa index whitepaper.pdf --export chunks.md`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().StringVar(&indexExport, "export", "", "Write the indexed chunks to a file (.md for Markdown, otherwise YAML)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, n, err := a.loadAndIndex(ctx, args[0])
	if err != nil {
		return err
	}

	result := indexResult{
		DocID:  doc.ID,
		Name:   doc.Name,
		Pages:  len(doc.Pages),
		Chunks: n,
		Index:  a.store.Path(doc.ID),
	}
	if indexExport != "" {
		if err := a.store.ExportFile(ctx, doc.ID, indexExport); err != nil {
			return fmt.Errorf("failed to export index: %w", err)
		}
		result.Export = indexExport
	}
	return writeResult(cmd.OutOrStdout(), result, func(o *output) {
		if quiet {
			return
		}
		o.printf("✓ Indexed %s: %d pages, %d chunks (doc %s)\n", result.Name, result.Pages, result.Chunks, result.DocID)
		if result.Export != "" {
			o.printf("  Exported chunks to %s\n", result.Export)
		}
	})
}
