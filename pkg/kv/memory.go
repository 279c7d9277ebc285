package kv

import (
	"context"
	"sync"
)

type MemoryStore struct {
	data map[string]*Entry
	mu   *sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Entry),
		mu:   &sync.RWMutex{},
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	return &Entry{Value: value, Version: entry.Version}, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, version int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[key]
	switch {
	case !ok && version != 0:
		return 0, ErrConflict
	case ok && current.Version != version:
		return 0, ErrConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = &Entry{Value: stored, Version: version + 1}
	return version + 1, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
