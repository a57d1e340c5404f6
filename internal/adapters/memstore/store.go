// Package memstore provides in-process session context storage for single-instance
// deployments and tests. Everything is lost on restart.
package memstore

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
)

var (
	_ ports.SessionStore = (*Store)(nil)
	_ ports.Notifier     = (*Store)(nil)
)

const (
	// flashTTL bounds how long undelivered notifications linger.
	flashTTL = 10 * time.Minute
	// sweepEvery throttles the eviction pass that runs on writes.
	sweepEvery = time.Minute
)

// ErrNotFound is returned when no profile is cached for the session.
var ErrNotFound = apperrors.New(apperrors.KindNotFoundUser, "no cached profile")

type expiring[T any] struct {
	value   T
	expires time.Time
}

func (e expiring[T]) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// Store implements ports.SessionStore and ports.Notifier behind a single mutex.
type Store struct {
	mu            sync.Mutex
	users         map[string]expiring[domainauth.User]
	unauthorized  map[string]expiring[struct{}]
	notifications map[string]expiring[[]domainauth.Notification]
	now           func() time.Time
	lastSweep     time.Time
}

// New creates an empty Store. A nil now uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		users:         make(map[string]expiring[domainauth.User]),
		unauthorized:  make(map[string]expiring[struct{}]),
		notifications: make(map[string]expiring[[]domainauth.Notification]),
		now:           now,
	}
}

func (s *Store) SaveUser(_ context.Context, sessionID string, user domainauth.User, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeSweep()
	s.users[sessionID] = expiring[domainauth.User]{value: user, expires: s.deadline(ttl)}
	return nil
}

func (s *Store) User(_ context.Context, sessionID string) (domainauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[sessionID]
	if !ok {
		return domainauth.User{}, ErrNotFound
	}
	if !e.live(s.now()) {
		delete(s.users, sessionID)
		return domainauth.User{}, ErrNotFound
	}
	return e.value, nil
}

func (s *Store) ClearUser(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.users, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *Store) MarkUnauthorized(_ context.Context, sessionID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeSweep()
	if e, ok := s.unauthorized[sessionID]; ok && e.live(s.now()) {
		return false, nil
	}
	s.unauthorized[sessionID] = expiring[struct{}]{expires: s.deadline(ttl)}
	return true, nil
}

func (s *Store) ResetUnauthorized(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.unauthorized, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *Store) Notify(_ context.Context, sessionID string, n domainauth.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeSweep()
	now := s.now()
	e := s.notifications[sessionID]
	if !e.live(now) {
		e.value = nil
	}
	s.notifications[sessionID] = expiring[[]domainauth.Notification]{
		value:   append(e.value, n),
		expires: now.Add(flashTTL),
	}
	return nil
}

func (s *Store) Drain(_ context.Context, sessionID string) ([]domainauth.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.notifications[sessionID]
	delete(s.notifications, sessionID)
	if !ok || !e.live(s.now()) {
		return nil, nil
	}
	return e.value, nil
}

func (s *Store) maybeSweep() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.sweep(now)
}

// sweep evicts expired entries of every kind. Callers hold s.mu.
func (s *Store) sweep(now time.Time) {
	s.lastSweep = now
	for id, e := range s.users {
		if !e.live(now) {
			delete(s.users, id)
		}
	}
	for id, e := range s.unauthorized {
		if !e.live(now) {
			delete(s.unauthorized, id)
		}
	}
	for id, e := range s.notifications {
		if !e.live(now) {
			delete(s.notifications, id)
		}
	}
}

func (s *Store) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
