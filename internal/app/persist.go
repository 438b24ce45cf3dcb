package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Persister is durable key-value storage for serialized party lists
type Persister interface {
	// Load returns ErrNotFound if the key has never been saved
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// FileStore keeps one JSON file per key inside a data directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing the given key
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the file for key
func (s *FileStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Save writes data for key, keeping the previous version as backup
func (s *FileStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.Path(key)

	// Create backup
	if _, err := os.Stat(file); err == nil {
		if err := copyFile(file, file+BackupSuffix); err != nil {
			log.Printf("Warning: failed to create backup: %v", err)
		}
	}

	// Write to temp file first
	tmpFile := file + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return err
	}

	return os.Rename(tmpFile, file)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePermissions)
}
