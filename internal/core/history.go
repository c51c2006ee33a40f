// ABOUTME: Conversation memory helpers for question answering
// ABOUTME: Selects the recent turns fed to the model and renders them as prompt text
package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harper/docqa/internal/models"
)

// TurnsPerRole is how many recent turns of each role are kept as memory
const TurnsPerRole = 2

// RecentHistory returns up to the last two user turns and the last two assistant
// turns of history, in their original order. Turns with other roles are ignored.
func RecentHistory(history []models.ChatTurn) []models.ChatTurn {
	counts := map[models.Role]int{models.RoleUser: 0, models.RoleAssistant: 0}
	var recent []models.ChatTurn

	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if n, ok := counts[turn.Role]; ok && n < TurnsPerRole {
			recent = append(recent, turn)
			counts[turn.Role]++
		}
		if counts[models.RoleUser] == TurnsPerRole && counts[models.RoleAssistant] == TurnsPerRole {
			break
		}
	}

	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent
}

// FormatHistory renders turns as "Role: content" lines, or "None"
func FormatHistory(turns []models.ChatTurn) string {
	var lines []string
	for _, turn := range turns {
		role := capitalize(string(turn.Role))
		content := strings.TrimSpace(turn.Content)
		if role == "" || content == "" {
			continue
		}
		lines = append(lines, role+": "+content)
	}
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
