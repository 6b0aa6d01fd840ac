package candidates

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"meal-rotation/internal/history"
)

// Source supplies the candidate items for a category.
type Source interface {
	Candidates(category history.Category) []string
}

// DirSource reads one "<category>.txt" file per category from a directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource and ensures the directory exists.
func NewDirSource(dir string) (*DirSource, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create candidates directory %s: %w", dir, err)
	}
	return &DirSource{dir: dir}, nil
}

// Path returns the candidate file for a category.
func (s *DirSource) Path(category history.Category) string {
	return filepath.Join(s.dir, string(category)+".txt")
}

// Candidates returns the non-blank, trimmed lines of the category file.
// A missing or unreadable file yields no candidates.
func (s *DirSource) Candidates(category history.Category) []string {
	data, err := os.ReadFile(s.Path(category))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: failed to read candidates for '%s': %v", category, err)
		}
		return nil
	}
	return ParseLines(data)
}

// ParseLines splits data into trimmed lines, dropping blank ones. Lines of
// any length are kept.
func ParseLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, min(len(data)+1, bufio.MaxScanTokenSize)), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Warning: stopped reading candidates after %d lines: %v", len(lines), err)
	}
	return lines
}

// ValidateCategory rejects names that cannot be used as a file in the
// candidates directory.
func ValidateCategory(category history.Category) error {
	name := string(category)
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("category name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid category name '%s'", name)
	}
	return nil
}

// Append adds items to the category file, skipping values already present.
// It returns the number of items written.
func (s *DirSource) Append(category history.Category, items []string) (int, error) {
	if err := ValidateCategory(category); err != nil {
		return 0, err
	}
	path := s.Path(category)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("failed to read candidates file: %w", err)
	}

	existing := make(map[string]struct{})
	for _, c := range ParseLines(data) {
		existing[c] = struct{}{}
	}

	var buf strings.Builder
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	added := 0
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := existing[item]; ok {
			continue
		}
		existing[item] = struct{}{}
		buf.WriteString(item)
		buf.WriteByte('\n')
		added++
	}
	if added == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open candidates file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(buf.String()); err != nil {
		return 0, fmt.Errorf("failed to write candidates file: %w", err)
	}
	return added, nil
}
