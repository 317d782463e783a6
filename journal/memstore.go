package journal

import (
	"context"
	"sync"
)

type memoryStore struct {
	doc *Document
	mu  sync.RWMutex
}

// NewMemoryStore creates a Store that keeps the document in process memory.
// Used when disk access is disabled and in tests.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Load(_ context.Context) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, nil
	}
	return s.doc.clone(), nil
}

func (s *memoryStore) Save(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc.clone()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
