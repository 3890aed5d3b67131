package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions tracks idle timeouts of logged-in sessions
type Sessions interface {
	Start(ctx context.Context, sessionID, userID string) error
	Touch(ctx context.Context, sessionID string) (bool, error)
	End(ctx context.Context, sessionID string) error
}

// SessionStore keeps one Redis key per session; every touch slides its TTL
type SessionStore struct {
	client *redis.Client
	idle   time.Duration
}

// NewSessionStore creates a session store expiring sessions after idle without activity
func NewSessionStore(client *redis.Client, idle time.Duration) *SessionStore {
	return &SessionStore{client: client, idle: idle}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *SessionStore) Start(ctx context.Context, sessionID, userID string) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), userID, s.idle).Err(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// Touch extends the session and reports whether it was still alive
func (s *SessionStore) Touch(ctx context.Context, sessionID string) (bool, error) {
	alive, err := s.client.Expire(ctx, sessionKey(sessionID), s.idle).Result()
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	return alive, nil
}

func (s *SessionStore) End(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}
