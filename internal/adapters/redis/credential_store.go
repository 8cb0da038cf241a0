package redis

// Package redis provides Redis-based adapters for taskdesk.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/taskdesk/internal/ports"
)

// DefaultPrefix namespaces credential keys.
const DefaultPrefix = "taskdesk:cred:"

var (
	_ ports.CredentialStore       = (*CredentialStore)(nil)
	_ ports.CredentialBatchWriter = (*CredentialStore)(nil)
)

// CredentialStore is a Redis-backed credential store so several hosts can share one login.
// A non-zero TTL bounds how long a stored credential survives without being refreshed.
type CredentialStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// CredentialStoreOptions configures a CredentialStore.
type CredentialStoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewCredentialStore creates a Redis credential store.
func NewCredentialStore(client redis.UniversalClient, opts CredentialStoreOptions) *CredentialStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &CredentialStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *CredentialStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ports.ErrCredentialNotFound
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrCredentialNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *CredentialStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("credential key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// SetMany writes every value in a single MULTI/EXEC block.
func (s *CredentialStore) SetMany(ctx context.Context, values map[string]string) error {
	for key := range values {
		if key == "" {
			return errors.New("credential key cannot be empty")
		}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, s.prefix+key, value, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set many: %w", err)
	}
	return nil
}
