package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// SessionStore persists selection sessions in Redis as JSON so a page
// reload or cross-page navigation can resume an in-progress configuration.
// The engine owns the keys and their meaning only; Redis is the storage
// mechanism behind the flat key/value contract.
type SessionStore struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(redis *RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redis: redis,
		ttl:   ttl,
	}
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Save writes the session under session:{id}, refreshing the TTL on every
// committed selection step.
func (s *SessionStore) Save(ctx context.Context, sess *models.SelectionSession) error {
	sess.UpdatedAt = time.Now()

	jsonData, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(sess.ID), string(jsonData), s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves a session by id. Returns ErrSessionNotFound for unknown or
// expired sessions.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.SelectionSession, error) {
	jsonData, err := s.redis.Get(ctx, s.key(sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, utils.ErrSessionNotFound
		}
		return nil, err
	}

	var sess models.SelectionSession
	if err := json.Unmarshal([]byte(jsonData), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Called on successful submission and on
// explicit navigation away from the checkout context.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Delete(ctx, s.key(sessionID))
}
