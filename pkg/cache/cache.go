// Package cache persists analysis reports on disk, keyed by a digest of the
// program description that produced them. Reports are encoded with msgpack; a
// small in-memory layer avoids re-reading a report twice in one run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-sdg/pkg/program"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Key derives the cache key for a program description.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store is a disk-backed report cache rooted at a directory, one msgpack file
// per key.
type Store struct {
	mu   sync.RWMutex
	dir  string
	warm map[string]*program.Report
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Store{dir: dir, warm: make(map[string]*program.Report)}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".msgpack")
}

// Get retrieves the report stored under key. A missing key yields
// ErrKeyNotFound.
func (s *Store) Get(key string) (*program.Report, error) {
	s.mu.RLock()
	if r, ok := s.warm[key]; ok {
		s.mu.RUnlock()
		return r, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	var r program.Report
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}

	s.mu.Lock()
	s.warm[key] = &r
	s.mu.Unlock()
	return &r, nil
}

// Put stores the report under key, replacing any previous entry.
func (s *Store) Put(key string, r *program.Report) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	s.mu.Lock()
	s.warm[key] = r
	s.mu.Unlock()
	return nil
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	delete(s.warm, key)
	s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry from the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.warm = make(map[string]*program.Report)
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".msgpack" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove cache entry %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Len returns the number of entries on disk.
func (s *Store) Len() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory %s: %w", s.dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".msgpack" {
			n++
		}
	}
	return n, nil
}
