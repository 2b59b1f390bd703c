// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Manager struct {
	client redis.Cmdable
}

func NewManager(client redis.Cmdable) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a new session in Redis until the token expires
func (m *Manager) CreateSession(ctx context.Context, s *SessionData) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, m.sessionKey(s.UserID, s.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// GetSession retrieves a session; a missing session returns (nil, nil)
func (m *Manager) GetSession(ctx context.Context, userID, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, m.sessionKey(userID, jti)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s SessionData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// RevokeSession deletes the session and blacklists its jti until expiresAt
func (m *Manager) RevokeSession(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	if err := m.client.Del(ctx, m.sessionKey(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return m.BlacklistToken(ctx, jti, time.Until(expiresAt))
}

// BlacklistToken marks a jti as unusable for ttl
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether the jti was revoked
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

func (m *Manager) sessionKey(userID, jti string) string {
	return fmt.Sprintf("session:%s:%s", userID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
