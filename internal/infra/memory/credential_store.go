package memory

import (
	"context"
	"sync"

	"quiz-arena/internal/domain"
)

// CredentialStore keeps player password hashes in memory.
type CredentialStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{hashes: make(map[string][]byte)}
}

func (s *CredentialStore) CreateCredential(_ context.Context, player string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[player]; ok {
		return domain.ErrPlayerExists
	}
	s.hashes[player] = append([]byte(nil), hash...)
	return nil
}

func (s *CredentialStore) CredentialHash(_ context.Context, player string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[player]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return hash, nil
}
