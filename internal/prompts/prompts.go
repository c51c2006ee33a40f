// ABOUTME: Prompt template store backed by text files in a directory
// ABOUTME: A missing template is a configuration error; there are no built-in fallbacks
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Template names
const (
	Summary = "summary_system_prompt.txt"
	QA      = "qa_system_prompt.txt"
)

// Required lists the templates the assistant cannot run without
var Required = []string{Summary, QA}

// ErrPromptNotFound is returned when a template file does not exist
var ErrPromptNotFound = errors.New("prompt file not found")

// Source loads prompt templates by name
type Source interface {
	Load(name string) (string, error)
}

// FileStore loads templates from dir and caches them after first read
type FileStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// NewFileStore creates a store rooted at dir. No I/O happens until Load or Validate.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, cache: make(map[string]string)}
}

// Dir returns the template directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Load returns the trimmed contents of the named template
func (s *FileStore) Load(name string) (string, error) {
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}

	prompt := strings.TrimSpace(string(data))
	s.mu.Lock()
	s.cache[name] = prompt
	s.mu.Unlock()
	return prompt, nil
}

// Validate loads every required template so configuration errors surface at startup
func (s *FileStore) Validate() error {
	for _, name := range Required {
		if _, err := s.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// Static is an in-memory Source
type Static map[string]string

// Load returns the named template or ErrPromptNotFound
func (s Static) Load(name string) (string, error) {
	prompt, ok := s[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	return strings.TrimSpace(prompt), nil
}
