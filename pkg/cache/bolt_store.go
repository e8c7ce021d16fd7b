package cache

import (
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltLockTimeout bounds the wait for another process's file lock
const boltLockTimeout = 5 * time.Second

// boltStore keeps one bucket per namespace
type boltStore struct {
	mu sync.RWMutex
	db *bolt.DB
}

func openBoltStore(path string, timeout time.Duration) (*boltStore, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Namespace(key string) (map[string]string, error) {
	if key == "" {
		return nil, ErrEmptyNamespace
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	entries := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			entries[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *boltStore) PutNamespace(key string, entries map[string]string) error {
	if key == "" {
		return ErrEmptyNamespace
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		name := []byte(key)
		if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		for k, v := range entries {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStore) Namespaces() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			keys = append(keys, string(name))
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}

func (s *boltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
