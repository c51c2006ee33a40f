// ABOUTME: Sectionizer labels each line of page text with the nearest preceding heading
// ABOUTME: Headings are detected with layout heuristics, no model involved
package core

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harper/docqa/internal/models"
)

const (
	minHeadingRunes      = 3
	maxUpperHeadingRunes = 60
	maxTitleHeadingWords = 6
)

// IsHeading reports whether a line looks like a section heading.
// The line is trimmed first; anything shorter than three characters is never a heading.
func IsHeading(line string) bool {
	cleaned := strings.TrimSpace(line)
	n := utf8.RuneCountInString(cleaned)
	if n < minHeadingRunes {
		return false
	}
	if strings.HasPrefix(cleaned, "#") {
		return true
	}
	if strings.HasSuffix(cleaned, ":") {
		return true
	}
	if n <= maxUpperHeadingRunes && isUpper(cleaned) {
		return true
	}

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if isAlpha(w) {
			words = append(words, w)
		}
	}
	if len(words) == 0 || len(words) > maxTitleHeadingWords {
		return false
	}
	for _, w := range words {
		first, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

// HeadingText strips heading markers and a trailing colon.
// An empty result maps to models.UnknownSection.
func HeadingText(line string) string {
	heading := strings.TrimSpace(line)
	heading = strings.TrimLeft(heading, "#")
	heading = strings.TrimSpace(heading)
	heading = strings.TrimRight(heading, ":")
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return models.UnknownSection
	}
	return heading
}

// Sections yields (section, line) for every input line in order.
// A heading line is tagged with its own section name.
func Sections(lines []string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		current := models.UnknownSection
		for _, line := range lines {
			cleaned := strings.TrimSpace(line)
			if cleaned != "" && IsHeading(cleaned) {
				current = HeadingText(cleaned)
			}
			if !yield(current, line) {
				return
			}
		}
	}
}

// isUpper mirrors "has at least one cased letter and no lowercase letters"
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
