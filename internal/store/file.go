package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"qtxlicense/internal/license"
)

// File is a Store backed by a single JSON file holding the full
// key-to-record map. The file is loaded once at open; every Put rewrites
// it through a temp file and an atomic rename, so a crash mid-write
// leaves either the old state or the new state, never a torn record.
//
// The store owns the file while open; concurrent external editors are
// not supported.
type File struct {
	path string

	mu   sync.RWMutex
	recs map[string]license.Record
}

// OpenFile loads the license map from path, creating an empty store if
// the file does not exist yet.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store: file path is empty")
	}

	f := &File{
		path: path,
		recs: make(map[string]license.Record),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &f.recs); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}

	// Canonical keys in the file are the lookup keys; normalize defensively
	// in case the map was provisioned by hand.
	normalized := make(map[string]license.Record, len(f.recs))
	for key, rec := range f.recs {
		canonical := license.CanonicalKey(key)
		rec.Key = canonical
		normalized[canonical] = rec
	}
	f.recs = normalized

	return f, nil
}

// Get implements license.Store.
func (f *File) Get(_ context.Context, key string) (license.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok := f.recs[key]
	if !ok {
		return license.Record{}, license.ErrNotFound
	}
	return rec.Clone(), nil
}

// Put implements license.Store. The whole map is rewritten under the
// store lock, so writes to the same key cannot reorder.
func (f *File) Put(_ context.Context, key string, rec license.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec.Key = key
	f.recs[key] = rec.Clone()

	return f.persistLocked()
}

// persistLocked writes the current map via temp file + rename. Callers
// must hold f.mu.
func (f *File) persistLocked() error {
	data, err := json.MarshalIndent(f.recs, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal license map: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".licenses-*.json")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}

// Ready implements Store by checking the directory is still writable.
func (f *File) Ready(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

// Close implements Store.
func (f *File) Close() error {
	return nil
}
