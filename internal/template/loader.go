package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Loader loads and caches post templates from a directory.
type Loader struct {
	dir        string
	cache      map[string]*Template
	cacheMutex sync.RWMutex
	loaded     bool
}

// NewLoader creates a loader for the given templates directory.
// An empty dir disables templates entirely.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Template),
	}
}

// Load loads all templates from the directory. A missing or empty
// directory yields an empty map, not an error. Duplicate names keep the
// lexically first file.
func (l *Loader) Load() (map[string]*Template, error) {
	l.cacheMutex.Lock()
	defer l.cacheMutex.Unlock()

	if l.loaded {
		return l.copyCache(), nil
	}

	templates := make(map[string]*Template)

	if l.dir != "" {
		entries, err := os.ReadDir(l.dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read templates directory: %w", err)
			}
			entries = nil
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}

			path := filepath.Join(l.dir, entry.Name())
			t, err := l.loadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load template %s: %w", entry.Name(), err)
			}

			if _, exists := templates[t.Name]; exists {
				continue
			}
			templates[t.Name] = t
		}
	}

	l.cache = templates
	l.loaded = true

	return l.copyCache(), nil
}

// Reload clears the cache and loads templates again.
func (l *Loader) Reload() (map[string]*Template, error) {
	l.cacheMutex.Lock()
	l.cache = make(map[string]*Template)
	l.loaded = false
	l.cacheMutex.Unlock()

	return l.Load()
}

// Get retrieves a template by name. Returns nil if not found.
func (l *Loader) Get(name string) (*Template, error) {
	if _, err := l.Load(); err != nil {
		return nil, err
	}

	l.cacheMutex.RLock()
	defer l.cacheMutex.RUnlock()

	return l.cache[name], nil
}

// List returns all template names in sorted order.
func (l *Loader) List() ([]string, error) {
	templates, err := l.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (l *Loader) loadFile(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	t, err := Parse(content)
	if err != nil {
		return nil, err
	}
	t.FilePath = path

	return t, nil
}

func (l *Loader) copyCache() map[string]*Template {
	out := make(map[string]*Template, len(l.cache))
	for name, t := range l.cache {
		out[name] = t
	}
	return out
}
