// Package memory provides an in-process CredentialStore for tests and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"github.com/target/taskdesk/internal/ports"
)

var (
	_ ports.CredentialStore       = (*CredentialStore)(nil)
	_ ports.CredentialBatchWriter = (*CredentialStore)(nil)
)

// CredentialStore keeps credentials in a map. Safe for concurrent use.
type CredentialStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewCredentialStore returns an empty store, optionally seeded with values.
func NewCredentialStore(seed map[string]string) *CredentialStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &CredentialStore{values: values}
}

func (s *CredentialStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ports.ErrCredentialNotFound
	}
	return v, nil
}

func (s *CredentialStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *CredentialStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// SetMany stores all values under one lock.
func (s *CredentialStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string, len(values))
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// Len reports how many keys are stored.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
