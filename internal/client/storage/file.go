package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File persists values as a JSON object in a single file so they survive
// restarts of the client. Writes replace the file atomically.
type File struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// OpenFile loads path if it exists. A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.values); err != nil {
			return nil, fmt.Errorf("decode session file %s: %w", path, err)
		}
	}
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if existed {
			f.values[key] = previous
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := false
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return f.flush()
}

// flush must be called with mu held.
func (f *File) flush() error {
	raw, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

var _ Storage = (*File)(nil)
