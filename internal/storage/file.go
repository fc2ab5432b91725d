package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores one file per key under a root directory. Values are
// written atomically via a temp file rename so a crash mid-write never leaves
// a half-serialized ledger behind.
type FileBackend struct {
	root string
}

// NewFileBackend creates the root directory if needed and returns a backend
// rooted there.
func NewFileBackend(root string) (*FileBackend, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &FileBackend{root: root}, nil
}

// Root returns the backing directory.
func (f *FileBackend) Root() string {
	return f.root
}

// Get reads the value stored for key. Absent keys report false.
func (f *FileBackend) Get(key string) (string, bool) {
	data, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes the value for key, replacing any previous value.
func (f *FileBackend) Set(key string, value string) error {
	path := f.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// pathFor maps a key to a file name, replacing anything that is not safe in a
// file name with underscores. Keys are already flat namespaced strings, so
// collisions after sanitizing are not a concern in practice.
func (f *FileBackend) pathFor(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == '@':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(f.root, sanitized+".json")
}
