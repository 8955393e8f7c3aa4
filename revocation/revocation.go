// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package revocation tracks access tokens that were logged out before expiry.
//
// Entries are keyed by the token's jti and live only until the token would
// have expired anyway. MemoryStore serves a single instance; RedisStore shares
// the list between instances.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/food-order/metrics"
)

// KeyPrefix namespaces revoked jtis in Redis
const KeyPrefix = "food-order:revoked:"

// Store records revoked token IDs
type Store interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryStore is an in-process revocation list
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.entries[jti] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() { metrics.RevocationCheckDuration.Observe(time.Since(start).Seconds()) }()

	if jti == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expires) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len reports the number of live entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.entries)
}

func (s *MemoryStore) pruneLocked() {
	now := s.now()
	for jti, expires := range s.entries {
		if !now.Before(expires) {
			delete(s.entries, jti)
		}
	}
}

// RedisStore keeps the revocation list in Redis with per-key expiry
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect parses url, pings the server and returns a store backed by it
func Connect(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	// The value is a marker; key existence is what matters
	if err := s.client.Set(ctx, KeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() { metrics.RevocationCheckDuration.Observe(time.Since(start).Seconds()) }()

	if jti == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, KeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
