package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileKV is a KVStore that keeps one JSON file per slot under a directory.
// Writes go to a temp file first and are renamed into place.
type FileKV struct {
	dir string
}

// NewFileKV creates a file-backed KVStore rooted at dir
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

// Dir returns the directory holding the slot files
func (s *FileKV) Dir() string {
	return s.dir
}

// SlotPath returns the file path used for key
func (s *FileKV) SlotPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := validSlotKey(key); err != nil {
		return nil, false, &StorageError{Key: key, Op: "get", Err: err}
	}
	data, err := os.ReadFile(s.SlotPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, &StorageError{Key: key, Op: "get", Err: err}
	}
	return data, true, nil
}

func (s *FileKV) Put(_ context.Context, key string, value []byte) error {
	if err := validSlotKey(key); err != nil {
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Key: key, Op: "put", Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Key: key, Op: "put", Err: err}
	}

	if err := os.Rename(tmpName, s.SlotPath(key)); err != nil {
		os.Remove(tmpName)
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	return nil
}

func (s *FileKV) Delete(_ context.Context, key string) error {
	if err := validSlotKey(key); err != nil {
		return &StorageError{Key: key, Op: "delete", Err: err}
	}
	if err := os.Remove(s.SlotPath(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

// Keys lists every populated slot
func (s *FileKV) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Key: s.dir, Op: "get", Err: err}
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileKV) Close() error {
	return nil
}

func validSlotKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
