package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenRevoked is returned when a token's jti was revoked before it expired.
var ErrTokenRevoked = errors.New("token revoked")

// RevocationStore remembers revoked token ids until the token would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Consume revokes jti and reports whether this call was the one that did it.
	// Concurrent callers with the same jti see true at most once.
	Consume(ctx context.Context, jti string, until time.Time) (bool, error)
}

// MemoryRevocationStore keeps revocations in process memory.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, id)
		}
	}
	if until.After(now) {
		s.entries[jti] = until
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(s.now()) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryRevocationStore) Consume(_ context.Context, jti string, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !until.After(now) {
		return false, nil
	}
	if exp, ok := s.entries[jti]; ok && exp.After(now) {
		return false, nil
	}
	s.entries[jti] = until
	return true, nil
}

const redisRevocationPrefix = "inventory:revoked:"

// RedisRevocationStore shares revocations between replicas through Redis key expiry.
type RedisRevocationStore struct {
	client redis.UniversalClient
}

func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, redisRevocationPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke %s: %w", jti, err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, redisRevocationPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup %s: %w", jti, err)
	}
	return n > 0, nil
}

func (s *RedisRevocationStore) Consume(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return false, nil
	}
	ok, err := s.client.SetNX(ctx, redisRevocationPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis consume %s: %w", jti, err)
	}
	return ok, nil
}

var (
	_ RevocationStore = (*MemoryRevocationStore)(nil)
	_ RevocationStore = (*RedisRevocationStore)(nil)
)
