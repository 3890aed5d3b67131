package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long an untouched worksheet survives
const DefaultTTL = 24 * time.Hour

// Key identifies the worksheet of one user for one store and mode
type Key struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Mode    Mode
}

func (k Key) String() string {
	return fmt.Sprintf("staging:%s:%s:%s", k.StoreID, k.UserID, k.Mode)
}

// Store persists worksheets
type Store interface {
	Load(ctx context.Context, key Key) (*Worksheet, error)
	Save(ctx context.Context, key Key, w *Worksheet) error
	Delete(ctx context.Context, key Key) error
}

// RedisStore keeps worksheets as JSON strings; every save renews the TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns an empty worksheet when none is stored
func (s *RedisStore) Load(ctx context.Context, key Key) (*Worksheet, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewWorksheet(key.Mode), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load worksheet: %w", err)
	}

	w := NewWorksheet(key.Mode)
	if err := json.Unmarshal(raw, w); err != nil {
		return nil, fmt.Errorf("failed to decode worksheet: %w", err)
	}
	return w, nil
}

func (s *RedisStore) Save(ctx context.Context, key Key, w *Worksheet) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode worksheet: %w", err)
	}
	if err := s.client.Set(ctx, key.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save worksheet: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete worksheet: %w", err)
	}
	return nil
}
