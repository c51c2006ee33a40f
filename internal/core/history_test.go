// ABOUTME: Tests for conversation memory selection and rendering
// ABOUTME: Recent turns keep original order with at most two per role
package core

import (
	"testing"

	"github.com/harper/docqa/internal/models"
)

func user(s string) models.ChatTurn      { return models.ChatTurn{Role: models.RoleUser, Content: s} }
func assistant(s string) models.ChatTurn { return models.ChatTurn{Role: models.RoleAssistant, Content: s} }

func contents(turns []models.ChatTurn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestRecentHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []models.ChatTurn
		want    []string
	}{
		{"empty", nil, []string{}},
		{
			name:    "alternating",
			history: []models.ChatTurn{user("u1"), assistant("a1"), user("u2"), assistant("a2"), user("u3"), assistant("a3")},
			want:    []string{"u2", "a2", "u3", "a3"},
		},
		{
			name:    "only users",
			history: []models.ChatTurn{user("u1"), user("u2"), user("u3")},
			want:    []string{"u2", "u3"},
		},
		{
			name:    "uneven",
			history: []models.ChatTurn{user("u1"), assistant("a1"), assistant("a2"), assistant("a3"), user("u2")},
			want:    []string{"u1", "a2", "a3", "u2"},
		},
		{
			name:    "unknown roles ignored",
			history: []models.ChatTurn{{Role: "system", Content: "s"}, user("u1")},
			want:    []string{"u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contents(RecentHistory(tt.history))
			if len(got) != len(tt.want) {
				t.Fatalf("RecentHistory() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("RecentHistory() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFormatHistory(t *testing.T) {
	if got := FormatHistory(nil); got != "None" {
		t.Errorf("FormatHistory(nil) = %q, want None", got)
	}

	turns := []models.ChatTurn{user(" What is the supply? "), assistant("   "), assistant("It is fixed.")}
	want := "User: What is the supply?\nAssistant: It is fixed."
	if got := FormatHistory(turns); got != want {
		t.Errorf("FormatHistory() = %q, want %q", got, want)
	}

	if got := FormatHistory([]models.ChatTurn{assistant("")}); got != "None" {
		t.Errorf("FormatHistory(blank) = %q, want None", got)
	}
}
