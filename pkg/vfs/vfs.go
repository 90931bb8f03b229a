// Package vfs supplies the file-system abstraction behind include
// resolution: an OS passthrough for real builds and an in-memory file set
// so tests can preprocess whole header trees without touching disk.
package vfs

import (
	"errors"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid path")
)

// FS resolves paths to file contents for the include resolver.
type FS interface {
	// ReadFile returns the contents of the file at path, or ErrNotFound.
	ReadFile(path string) ([]byte, error)
	// Exists reports whether path names a readable file.
	Exists(path string) bool
}

// OSFS reads through to the host file system.
type OSFS struct{}

func (OSFS) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (OSFS) Exists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

type memFile struct {
	data     []byte
	modified time.Time
}

// MemFS is an in-memory file set keyed by slash-separated paths.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
}

// NewMemFS returns an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile)}
}

// normalize cleans a path into its canonical map key.
func normalize(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean(name)
	if name == "" || name == "." || strings.HasPrefix(name, "../") {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(name, "./"), nil
}

// Write stores data under name, overwriting any previous contents.
// The data is deep copied so later caller mutations cannot leak in.
func (m *MemFS) Write(name string, data []byte) error {
	key, err := normalize(name)
	if err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = &memFile{data: buf, modified: time.Now()}
	return nil
}

// WriteString is Write for string contents; the common shape in tests.
func (m *MemFS) WriteString(name, data string) error {
	return m.Write(name, []byte(data))
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	key, err := normalize(name)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[key]
	if !ok {
		return nil, ErrNotFound
	}
	return f.data, nil
}

func (m *MemFS) Exists(name string) bool {
	key, err := normalize(name)
	if err != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok
}

// Remove deletes a file.
func (m *MemFS) Remove(name string) error {
	key, err := normalize(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return ErrNotFound
	}
	delete(m.files, key)
	return nil
}

// List returns all stored paths in sorted order.
func (m *MemFS) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
