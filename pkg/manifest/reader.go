package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Reader loads manifests and caches successful parses by absolute path. A
// Reader is meant to live for one analysis run; the cache is never
// invalidated while it is in use.
type Reader struct {
	mu    sync.RWMutex
	cache map[string]*Manifest
}

// NewReader returns a Reader with an empty cache.
func NewReader() *Reader {
	return &Reader{cache: make(map[string]*Manifest)}
}

// Read loads the manifest file at path. On any read or parse failure it
// returns an empty manifest together with the error so the caller can log it;
// the returned manifest is never nil.
func (r *Reader) Read(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	r.mu.RLock()
	m, ok := r.cache[abs]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Empty(), fmt.Errorf("read %s: %w", abs, err)
	}
	m, err = Parse(data)
	if err != nil {
		return Empty(), fmt.Errorf("%s: %w", abs, err)
	}

	r.mu.Lock()
	r.cache[abs] = m
	r.mu.Unlock()
	return m, nil
}

// ReadDir loads the package.json inside dir.
func (r *Reader) ReadDir(dir string) (*Manifest, error) {
	return r.Read(filepath.Join(dir, FileName))
}

// Cached reports how many manifests are held in the cache.
func (r *Reader) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
