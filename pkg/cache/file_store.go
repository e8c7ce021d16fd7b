package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// fileStore keeps every namespace in one JSON document and rewrites the
// whole document on each update.
type fileStore struct {
	mu     sync.RWMutex
	path   string
	data   map[string]map[string]string
	closed bool
}

func openFileStore(path string) (Handle, error) {
	s := &fileStore{
		path: path,
		data: make(map[string]map[string]string),
	}

	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat store file: %w", err)
	}
	if info.Size() == 0 {
		return s, nil
	}

	if err := json.NewDecoder(file).Decode(&s.data); err != nil {
		return nil, fmt.Errorf("failed to decode store file: %w", err)
	}
	if s.data == nil {
		s.data = make(map[string]map[string]string)
	}

	return s, nil
}

func (s *fileStore) Namespace(key string) (map[string]string, error) {
	if key == "" {
		return nil, ErrEmptyNamespace
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	return copyEntries(s.data[key]), nil
}

func (s *fileStore) PutNamespace(key string, entries map[string]string) error {
	if key == "" {
		return ErrEmptyNamespace
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.data[key]
	s.data[key] = copyEntries(entries)
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *fileStore) Namespaces() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// save writes the document to disk atomically
func (s *fileStore) save() error {
	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}
