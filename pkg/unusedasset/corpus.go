package unusedasset

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrNotText is returned when a corpus file is not valid UTF-8.
var ErrNotText = errors.New("not valid UTF-8 text")

// Corpus is the ordered set of source files searched for resource names.
// Implementations must be safe for concurrent reads.
type Corpus interface {
	// Files returns the file paths in search order.
	Files() []string

	// ReadFile returns the text of one file.
	ReadFile(path string) (string, error)
}

// FileCorpus reads its files from disk on every call.
type FileCorpus struct {
	paths []string
}

// NewFileCorpus returns a corpus over paths.
func NewFileCorpus(paths []string) *FileCorpus {
	return &FileCorpus{paths: paths}
}

// Files returns the corpus paths.
func (c *FileCorpus) Files() []string {
	return c.paths
}

// ReadFile reads path fully and rejects content that is not UTF-8.
func (c *FileCorpus) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrNotText)
	}
	return string(data), nil
}

// MemCorpus is an in-memory corpus keyed by path.
type MemCorpus struct {
	paths    []string
	contents map[string]string
}

// NewMemCorpus builds a corpus whose files are searched in the order given.
func NewMemCorpus(paths []string, contents map[string]string) *MemCorpus {
	return &MemCorpus{paths: paths, contents: contents}
}

// Files returns the corpus paths.
func (c *MemCorpus) Files() []string {
	return c.paths
}

// ReadFile returns the stored content of path.
func (c *MemCorpus) ReadFile(path string) (string, error) {
	content, ok := c.contents[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return content, nil
}
