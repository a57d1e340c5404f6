// Package redis provides Redis-based session context storage for the admin BFF.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
)

var (
	_ ports.SessionStore = (*SessionStore)(nil)
	_ ports.Notifier     = (*SessionStore)(nil)
)

const (
	userSuffix         = ":user"
	unauthorizedSuffix = ":unauthorized"
	flashSuffix        = ":flash"

	// flashTTL bounds how long undelivered notifications linger.
	flashTTL = 10 * time.Minute
)

// SessionStore is a Redis-based session context store for production use.
// Keys are <prefix><session id><suffix>; every key carries its own TTL.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) key(sessionID, suffix string) string {
	return s.prefix + sessionID + suffix
}

func (s *SessionStore) SaveUser(ctx context.Context, sessionID string, user domainauth.User, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(sessionID, userSuffix), data, ttl).Err()
}

func (s *SessionStore) User(ctx context.Context, sessionID string) (domainauth.User, error) {
	if sessionID == "" {
		return domainauth.User{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(sessionID, userSuffix)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.User{}, ErrNotFound
		}
		return domainauth.User{}, fmt.Errorf("redis get: %w", err)
	}

	var user domainauth.User
	if unmarshalErr := json.Unmarshal([]byte(data), &user); unmarshalErr != nil {
		return domainauth.User{}, fmt.Errorf("unmarshal user: %w", unmarshalErr)
	}
	return user, nil
}

func (s *SessionStore) ClearUser(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.key(sessionID, userSuffix)).Err()
}

// MarkUnauthorized relies on SETNX so exactly one concurrent caller wins across replicas.
func (s *SessionStore) MarkUnauthorized(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	if sessionID == "" {
		return false, errors.New("session ID cannot be empty")
	}
	ok, err := s.client.SetNX(ctx, s.key(sessionID, unauthorizedSuffix), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *SessionStore) ResetUnauthorized(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(sessionID, unauthorizedSuffix)).Err()
}

func (s *SessionStore) Notify(ctx context.Context, sessionID string, n domainauth.Notification) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := s.key(sessionID, flashSuffix)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, flashTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Drain reads and deletes the queue in one transaction so a notification is delivered once.
func (s *SessionStore) Drain(ctx context.Context, sessionID string) ([]domainauth.Notification, error) {
	if sessionID == "" {
		return nil, nil
	}

	key := s.key(sessionID, flashSuffix)
	pipe := s.client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis drain: %w", err)
	}

	raw := lrange.Val()
	out := make([]domainauth.Notification, 0, len(raw))
	for _, item := range raw {
		var n domainauth.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return out, fmt.Errorf("unmarshal notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ErrNotFound is returned when no profile is cached for the session.
var ErrNotFound = apperrors.New(apperrors.KindNotFoundUser, "session user not found")
