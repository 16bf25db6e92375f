package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore persists string entries to a single JSON file.
// Every write rewrites the whole file through a temp file + rename, so a crash
// never leaves a half-written store behind.
type FileStore struct {
	filePath string
	entries  map[string]storedEntry
	mu       sync.RWMutex
	closed   bool
}

type storedEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileStore opens (or creates) the store at filePath.
func NewFileStore(filePath string) (*FileStore, error) {
	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	fs := &FileStore{
		filePath: filePath,
		entries:  make(map[string]storedEntry),
	}

	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("failed to load store %s: %w", filePath, err)
	}

	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.closed {
		return "", false, ErrClosed
	}

	entry, exists := fs.entries[key]
	if !exists {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.closed {
		return ErrClosed
	}

	fs.entries[key] = storedEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return fs.save()
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.closed {
		return ErrClosed
	}

	if _, exists := fs.entries[key]; !exists {
		return nil
	}
	delete(fs.entries, key)
	return fs.save()
}

// Len returns the number of stored entries.
func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.entries)
}

func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.closed = true
	return nil
}

// load reads the entries from the JSON file
func (fs *FileStore) load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, start empty
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	var stored []storedEntry
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("failed to decode store data: %w", err)
	}

	for _, e := range stored {
		fs.entries[e.Key] = e
	}

	return nil
}

// save writes all entries to a temp file and renames it over the store file.
// Callers must hold the write lock.
func (fs *FileStore) save() error {
	stored := make([]storedEntry, 0, len(fs.entries))
	for _, e := range fs.entries {
		stored = append(stored, e)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Key < stored[j].Key })

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(stored); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode store data: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fs.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
