// ABOUTME: Page text extraction for uploaded whitepapers (PDF via pdfcpu and ledongthuc/pdf, plain text passthrough)
// ABOUTME: Produces 1-indexed pages of valid UTF-8; pages with no recoverable text come back empty
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/harper/docqa/internal/models"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor plain text
var ErrUnsupportedFormat = errors.New("unsupported document format")

// pageBreak separates pages in plain-text uploads
const pageBreak = "\f"

// ExtractPages reads every page of a PDF and returns its text.
// pdfcpu reads the document structure and page count; text is decoded through
// each page's font encodings and ToUnicode maps. A page whose text cannot be
// decoded yields an empty page rather than an error.
func ExtractPages(rs io.ReadSeeker) ([]models.Page, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("size pdf: %w", err)
	}
	ra, ok := rs.(io.ReaderAt)
	if !ok {
		data, err := readAll(rs)
		if err != nil {
			return nil, err
		}
		ra = bytes.NewReader(data)
	}
	reader, err := lpdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf text layer: %w", err)
	}

	pages := make([]models.Page, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		page := models.Page{Number: i}
		if i <= reader.NumPage() {
			page.Text = pageText(reader.Page(i))
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func readAll(rs io.ReadSeeker) ([]byte, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}
	data, err := io.ReadAll(rs)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func pageText(p lpdf.Page) string {
	if p.V.IsNull() {
		return ""
	}
	fonts := make(map[string]*lpdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return CleanText(text)
}

// CleanText drops NUL bytes left by undecoded two-byte glyph codes and
// replaces invalid UTF-8 so extracted text is safe for prompts and JSON
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.ToValidUTF8(text, "\uFFFD")
}

// TextPages splits plain text into pages on form feeds
func TextPages(text string) []models.Page {
	parts := strings.Split(text, pageBreak)
	pages := make([]models.Page, len(parts))
	for i, part := range parts {
		pages[i] = models.Page{Number: i + 1, Text: part}
	}
	return pages
}

// Load builds a Document from raw upload bytes. The format is chosen from the
// file extension, falling back to sniffing the %PDF header.
func Load(name string, data []byte) (models.Document, error) {
	doc := models.Document{ID: models.DocumentID(data), Name: filepath.Base(name)}

	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".pdf" || bytes.HasPrefix(data, []byte("%PDF")):
		pages, err := ExtractPages(bytes.NewReader(data))
		if err != nil {
			return models.Document{}, err
		}
		doc.Pages = pages
	case ext == ".txt" || ext == ".md" || ext == ".text" || ext == "":
		doc.Pages = TextPages(string(data))
	default:
		return models.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return doc, nil
}

// LoadFile reads a file from disk and builds a Document from it
func LoadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(path, data)
}

// FullText joins the trimmed text of every non-blank page with blank lines
func FullText(pages []models.Page) string {
	var parts []string
	for _, p := range pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
