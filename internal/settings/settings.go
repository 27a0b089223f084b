package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

// Store is a per-document key/value settings store. Set only buffers the
// value; Save persists everything buffered so far.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Save() error
}

// Memory is an in-process Store. Save is a no-op.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	saves  int
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Memory) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// File is a Store backed by one YAML file per document.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile loads the settings of docID from dir. A missing file is an empty store.
func OpenFile(dir, docID string) (*File, error) {
	id := DocumentID(docID)
	f := &File{
		path:   filepath.Join(dir, id+".yaml"),
		values: make(map[string]string),
	}
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", f.path, err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

// Save writes the file atomically via a temp file in the same directory.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// DocumentID derives a stable, path-safe ID from a document file name.
func DocumentID(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id := slug.Make(base)
	if id == "" {
		id = "document"
	}
	return id
}
