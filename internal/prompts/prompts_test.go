// ABOUTME: Tests for the prompt template store
// ABOUTME: Verifies trimming, caching and missing-file errors
package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestFileStore_Load(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, QA, "\n  Answer only from context.  \n\n")

	store := NewFileStore(dir)
	got, err := store.Load(QA)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "Answer only from context." {
		t.Errorf("Load() = %q, want trimmed text", got)
	}

	// Cached: later file changes are not observed
	writePrompt(t, dir, QA, "changed")
	got, _ = store.Load(QA)
	if got != "Answer only from context." {
		t.Errorf("Load() after change = %q, want cached text", got)
	}
}

func TestFileStore_Missing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Load(Summary)
	if !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("Load() error = %v, want ErrPromptNotFound", err)
	}
}

func TestFileStore_Validate(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	writePrompt(t, dir, Summary, "summary rules")
	if err := store.Validate(); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("Validate() error = %v, want ErrPromptNotFound", err)
	}

	writePrompt(t, dir, QA, "qa rules")
	if err := store.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestShippedPrompts(t *testing.T) {
	store := NewFileStore(filepath.Join("..", "..", "prompts"))
	if err := store.Validate(); err != nil {
		t.Fatalf("shipped prompts: %v", err)
	}
}

func TestStatic(t *testing.T) {
	s := Static{QA: " rules "}
	if got, err := s.Load(QA); err != nil || got != "rules" {
		t.Errorf("Load() = %q, %v", got, err)
	}
	if _, err := s.Load(Summary); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrPromptNotFound", err)
	}
}
