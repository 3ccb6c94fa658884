// Package assets serves bundled files (sample models, lighting environments)
// from one or more read-only file systems, with an in-memory cache.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// ErrNotFound is returned when no source holds the requested path.
var ErrNotFound = errors.New("asset not found")

type source struct {
	name string
	fsys fs.FS
}

// Manager resolves asset paths against its sources.
// Sources are searched in reverse order (last added = highest priority).
type Manager struct {
	sources []source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a manager whose cache holds up to cacheBytes of data.
// cacheBytes <= 0 disables the limit.
func NewManager(cacheBytes int64) *Manager {
	return &Manager{cache: NewCache(cacheBytes)}
}

// AddFS registers a file system under a display name.
func (m *Manager) AddFS(name string, fsys fs.FS) {
	m.mu.Lock()
	m.sources = append(m.sources, source{name: name, fsys: fsys})
	m.mu.Unlock()
}

// AddDir registers a directory on disk.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset dir %s: not a directory", dir)
	}
	m.AddFS(dir, os.DirFS(dir))
	return nil
}

// Clean normalizes an asset path to the slash-separated, unrooted form
// fs.FS expects.
func Clean(name string) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if !fs.ValidPath(p) || p == "." {
		return "", fmt.Errorf("invalid asset path %q", name)
	}
	return p, nil
}

// Load returns the contents of an asset.
func (m *Manager) Load(name string) ([]byte, error) {
	p, err := Clean(name)
	if err != nil {
		return nil, err
	}
	if data, ok := m.cache.Get(p); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(m.sources[i].fsys, p)
		if err == nil {
			m.cache.Set(p, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s from %s: %w", p, m.sources[i].name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
}

// Exists reports whether any source holds name.
func (m *Manager) Exists(name string) bool {
	p, err := Clean(name)
	if err != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.sources) - 1; i >= 0; i-- {
		if _, err := fs.Stat(m.sources[i].fsys, p); err == nil {
			return true
		}
	}
	return false
}

// Glob lists asset paths matching pattern across all sources, without
// duplicates.
func (m *Manager) Glob(pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for i := len(m.sources) - 1; i >= 0; i-- {
		matches, err := fs.Glob(m.sources[i].fsys, pattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				out = append(out, match)
			}
		}
	}
	return out, nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() CacheStats {
	return m.cache.Stats()
}

// Close drops all sources and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	m.sources = nil
	m.mu.Unlock()
	m.cache.Clear()
}
