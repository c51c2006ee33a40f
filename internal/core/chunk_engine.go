// ABOUTME: ChunkEngine splits page text into overlapping fixed-size chunks with section labels
// ABOUTME: Greedy single pass over sectioned lines; the tail of each chunk seeds the next
package core

import (
	"strings"
	"unicode"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/models"
)

// PageChunk is one chunk of a page before it is embedded and stored
type PageChunk struct {
	Text    string
	Section string
}

// ChunkEngine handles size-bounded chunking of page text
type ChunkEngine struct {
	targetSize int
	overlap    int
}

// NewChunkEngine creates a ChunkEngine. Non-positive sizes fall back to the defaults;
// an overlap that is not smaller than the target size is clamped below it.
func NewChunkEngine(targetSize, overlap int) *ChunkEngine {
	if targetSize <= 0 {
		targetSize = config.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = config.DefaultChunkOverlap
	}
	if overlap >= targetSize {
		overlap = targetSize - 1
	}
	return &ChunkEngine{targetSize: targetSize, overlap: overlap}
}

// TargetSize returns the character count at which a chunk is emitted
func (ce *ChunkEngine) TargetSize() int { return ce.targetSize }

// Overlap returns the number of trailing characters carried into the next chunk
func (ce *ChunkEngine) Overlap() int { return ce.overlap }

// ChunkPage splits one page of text. Sizes are measured in characters (runes).
// Every line is appended trimmed and newline-terminated. When the buffer reaches
// the target size it is emitted, and its last overlap characters, left-trimmed,
// become the start of the next buffer. Whatever remains at the end is emitted
// if it is non-blank.
func (ce *ChunkEngine) ChunkPage(text string) []PageChunk {
	var (
		chunks      []PageChunk
		buffer      []rune
		lastSection = models.UnknownSection
	)

	for section, line := range Sections(SplitLines(text)) {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lastSection = section
		}
		buffer = append(buffer, []rune(trimmed)...)
		buffer = append(buffer, '\n')

		if len(buffer) >= ce.targetSize {
			chunks = append(chunks, PageChunk{
				Text:    strings.TrimSpace(string(buffer)),
				Section: lastSection,
			})
			buffer = tail(buffer, ce.overlap)
		}
	}

	if rest := strings.TrimSpace(string(buffer)); rest != "" {
		chunks = append(chunks, PageChunk{Text: rest, Section: lastSection})
	}
	return chunks
}

// tail returns a fresh copy of the last n runes of buf with leading whitespace removed
func tail(buf []rune, n int) []rune {
	start := len(buf) - n
	if start < 0 {
		start = 0
	}
	for start < len(buf) && unicode.IsSpace(buf[start]) {
		start++
	}
	out := make([]rune, len(buf)-start)
	copy(out, buf[start:])
	return out
}

// SplitLines breaks text on \n, \r\n, \r, form feed and vertical tab.
// A trailing line break does not produce an empty final line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	var (
		lines []string
		start int
	)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n', '\f', '\v':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
