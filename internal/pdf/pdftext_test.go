// ABOUTME: Tests for PDF text decoding through font encodings
// ABOUTME: Builds small PDFs in memory with WinAnsi and Identity-H fonts
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

const identityCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0048> <0048>
<0069> <0069>
endbfchar
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func stream(body string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(body), body)
}

// buildPDF lays out numbered objects and writes a matching xref table
func buildPDF(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func samplePDF(content string) []byte {
	return buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R /F2 6 0 R >> >> /Contents 4 0 R >>",
		stream(content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Type /Font /Subtype /Type0 /BaseFont /Sample /Encoding /Identity-H /DescendantFonts [8 0 R] /ToUnicode 7 0 R >>",
		stream(identityCMap),
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /Sample /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> >>",
	})
}

func TestExtractPages_WinAnsi(t *testing.T) {
	data := samplePDF(`BT /F1 12 Tf 72 720 Td (caf\351 \222quote\222) Tj ET`)
	doc, err := Load("paper.pdf", data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	text := doc.Pages[0].Text
	if !utf8.ValidString(text) {
		t.Errorf("page text is not valid UTF-8: %q", text)
	}
	if !strings.Contains(text, "café") {
		t.Errorf("page text = %q, want it to contain %q", text, "café")
	}
}

func TestExtractPages_IdentityH(t *testing.T) {
	data := samplePDF(`BT /F2 12 Tf 72 720 Td <00480069> Tj ET`)
	doc, err := Load("paper.pdf", data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	text := doc.Pages[0].Text
	if strings.Contains(text, "\x00") {
		t.Errorf("page text contains NUL bytes: %q", text)
	}
	if !strings.Contains(text, "Hi") {
		t.Errorf("page text = %q, want it to contain %q", text, "Hi")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Supply is fixed.", "Supply is fixed."},
		{"nul interleaved", "\x00H\x00i", "Hi"},
		{"invalid bytes", "caf\xe9", "caf�"},
		{"valid accents", "café", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.in)
			if got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("CleanText(%q) is not valid UTF-8", tt.in)
			}
		})
	}
}
