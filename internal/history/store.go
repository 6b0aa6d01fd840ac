package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// ErrConcurrentUpdate is returned by Save when the persisted history changed
// after it was loaded by this store.
var ErrConcurrentUpdate = errors.New("history was modified by another run")

// Store loads and saves the whole selection history.
//
// Load never fails on missing or unreadable data: both are treated as an
// empty history. The only error Load returns is a cancelled context.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// fileDoc is the on-disk JSON layout of a FileStore.
type fileDoc struct {
	Version int64  `json:"version"`
	Weeks   Record `json:"weeks"`
}

// FileStore persists the history as a single JSON document. Saves from
// different processes are serialized through an advisory lock on
// <path>.lock.
type FileStore struct {
	path    string
	lock    *flock.Flock
	mu      sync.Mutex
	version int64
}

// NewFileStore creates a FileStore at path and ensures its directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the history file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history file. Missing or corrupt files load as empty.
func (s *FileStore) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		log.Printf("Warning: ignoring unreadable history %s: %v", s.path, err)
	}
	s.version = doc.Version
	return doc.Weeks, nil
}

// Save writes the full record to a temp file and renames it over the
// history file.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// The version check and the rename must not interleave with another
	// process doing the same.
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock history file: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock history file %s", s.lock.Path())
	}
	defer s.lock.Unlock()

	// An unreadable file counts as version 0, matching what Load returned.
	current, _ := s.readDoc()
	if current.Version != s.version {
		return fmt.Errorf("failed to save history (have version %d, found %d): %w", s.version, current.Version, ErrConcurrentUpdate)
	}

	next := fileDoc{Version: s.version + 1, Weeks: rec.Clone()}
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.version = next.Version
	return nil
}

// readDoc returns the persisted document. On any failure it returns an empty
// document together with the cause.
func (s *FileStore) readDoc() (fileDoc, error) {
	empty := fileDoc{Weeks: New()}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return empty, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return empty, nil
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return empty, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	// Clone drops empty sequences so every key maps to at least one item.
	doc.Weeks = doc.Weeks.Clone()
	return doc, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
