package store

import (
	"sync"

	"github.com/fennih/fantahustler/internal/models"
)

// MemoryStore implements AuctionStore in process memory, for development
// and tests
type MemoryStore struct {
	mu  sync.Mutex
	doc *models.AuctionDocument
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*models.AuctionDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.doc == nil {
		return nil, ErrNoSnapshot
	}
	doc := *m.doc
	return &doc, nil
}

func (m *MemoryStore) Save(doc models.AuctionDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = &doc
	return nil
}

func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = nil
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
