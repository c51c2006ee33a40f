// ABOUTME: Tests for heading detection and section labeling
// ABOUTME: Covers each heading heuristic and the heading text cleanup
package core

import (
	"testing"

	"github.com/harper/docqa/internal/models"
)

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"# Introduction", true},
		{"   ## Spaced Marker   ", true},
		{"Tokenomics:", true},
		{"TOKEN DISTRIBUTION", true},
		{"Token Role And Utility", true},
		{"1.2 Overview", true},
		{"ab", false},
		{"  A  ", false},
		{"This is a normal sentence.", false},
		{"The total supply is 1,000,000 tokens", false},
		{"Alpha Beta Gamma Delta Epsilon Zeta Eta", false},
		{"123 456", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := IsHeading(tt.line); got != tt.want {
				t.Errorf("IsHeading(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestIsHeading_LongUppercase(t *testing.T) {
	line := "THIS IS A VERY LONG UPPERCASE LINE THAT GOES WELL BEYOND SIXTY CHARACTERS"
	if IsHeading(line) {
		t.Errorf("IsHeading(%q) = true, want false", line)
	}
}

func TestHeadingText(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"## Tokenomics:", "Tokenomics"},
		{"#  Security  ", "Security"},
		{"Risks:", "Risks"},
		{"ROADMAP", "ROADMAP"},
		{"###:", models.UnknownSection},
	}

	for _, tt := range tests {
		if got := HeadingText(tt.line); got != tt.want {
			t.Errorf("HeadingText(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSections(t *testing.T) {
	lines := []string{"preamble text", "OVERVIEW", "body text", "", "Risks:", "more text"}
	want := []string{models.UnknownSection, "OVERVIEW", "OVERVIEW", "OVERVIEW", "Risks", "Risks"}

	var got []string
	for section, line := range Sections(lines) {
		if line != lines[len(got)] {
			t.Fatalf("line %d = %q, want %q", len(got), line, lines[len(got)])
		}
		got = append(got, section)
	}

	if len(got) != len(want) {
		t.Fatalf("Sections() yielded %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSections_EarlyStop(t *testing.T) {
	n := 0
	for range Sections([]string{"a", "b", "c"}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d times, want 2", n)
	}
}
