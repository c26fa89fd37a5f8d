package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autods/internal/cache"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when a session is missing or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the signed-in state passed explicitly to services.
type Session struct {
	ID           string    `json:"-"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AccessExpired reports whether the identity access token needs refreshing.
// A minute of slack avoids sending a token that expires in flight.
func (s *Session) AccessExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.Add(time.Minute).After(s.ExpiresAt)
}

// SessionStoreInterface defines the interface for session storage operations.
type SessionStoreInterface interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore keeps sessions in Redis.
type SessionStore struct {
	cache *cache.Client
}

var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

// Save stores sess under its ID with TTL.
func (s *SessionStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess.ID == "" {
		return errors.New("session ID is required")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl)
}

// Get loads a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil || data == nil {
		return nil, ErrSessionNotFound
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	sess.ID = id
	return &sess, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+id)
}
