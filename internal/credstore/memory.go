package credstore

import (
	"context"
	"sync"

	"github.com/apigrate/quickbooks/pkg/qbo"
)

// MemoryStore is a process-local store, mostly useful in tests.
type MemoryStore struct {
	mutex sync.RWMutex
	creds *qbo.Credentials
	sets  int
}

// NewMemoryStore creates a store seeded with initial, which may be nil.
func NewMemoryStore(initial *qbo.Credentials) *MemoryStore {
	store := &MemoryStore{}
	if initial != nil {
		c := *initial
		store.creds = &c
	}

	return store
}

func (s *MemoryStore) Get(context.Context) (*qbo.Credentials, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.creds == nil {
		return nil, nil
	}

	c := *s.creds

	return &c, nil
}

func (s *MemoryStore) Set(_ context.Context, creds qbo.Credentials) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.creds = &creds
	s.sets++

	return nil
}

// Sets reports how many times Set was called.
func (s *MemoryStore) Sets() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.sets
}

var _ qbo.CredentialStore = (*MemoryStore)(nil)
