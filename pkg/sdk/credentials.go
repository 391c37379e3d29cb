package sdk

import (
	"context"
	"sync"
)

// DefaultStorageKey is the key of the Durable Record holding the token.
const DefaultStorageKey = "auth_token"

// CredentialStore persists the Durable Record: a single key holding the
// session token. Implementations must treat Delete of a missing key as success.
type CredentialStore interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a process-local CredentialStore.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]string
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.records[key]
	return value, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
