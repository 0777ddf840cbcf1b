package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"quiz-arena/internal/domain"
)

const playersKey = "quiz:players"

// CredentialStore keeps password hashes in a single hash: HSET quiz:players {name} {bcrypt}.
type CredentialStore struct {
	client *redis.Client
}

func NewCredentialStore(client *redis.Client) *CredentialStore {
	return &CredentialStore{client: client}
}

func (s *CredentialStore) CreateCredential(ctx context.Context, player string, hash []byte) error {
	created, err := s.client.HSetNX(ctx, playersKey, player, hash).Result()
	if err != nil {
		return err
	}
	if !created {
		return domain.ErrPlayerExists
	}
	return nil
}

func (s *CredentialStore) CredentialHash(ctx context.Context, player string) ([]byte, error) {
	hash, err := s.client.HGet(ctx, playersKey, player).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrInvalidCredentials
	}
	return hash, err
}
