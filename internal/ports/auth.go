package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
)

// AuthAPI is the slice of the backend that the session guard talks to.
// Tokens are passed explicitly so these calls never re-enter the guard.
type AuthAPI interface {
	// Login exchanges credentials for a token pair and the user's profile.
	Login(ctx context.Context, email, password string) (domainauth.AuthResult, error)

	// Register creates an account and returns the same shape as Login.
	Register(ctx context.Context, email, password string) (domainauth.AuthResult, error)

	// UpdateToken mints a new access token using refreshToken as authorization.
	UpdateToken(ctx context.Context, refreshToken string) (string, error)

	// UserAuthData fetches the profile summary of a user.
	UserAuthData(ctx context.Context, accessToken string, userID int32) (domainauth.User, error)
}

// SessionStore keeps per-browser-session context that does not belong in cookies.
type SessionStore interface {
	// SaveUser caches the signed-in user's profile for the session.
	SaveUser(ctx context.Context, sessionID string, user domainauth.User, ttl time.Duration) error

	// User returns the cached profile or an error satisfying IsNotFound.
	User(ctx context.Context, sessionID string) (domainauth.User, error)

	// ClearUser drops the cached profile. Idempotent.
	ClearUser(ctx context.Context, sessionID string) error

	// MarkUnauthorized atomically sets the one-shot unauthorized flag and reports
	// whether this caller was the one that set it.
	MarkUnauthorized(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)

	// ResetUnauthorized clears the one-shot flag.
	ResetUnauthorized(ctx context.Context, sessionID string) error
}

// Notifier queues toasts for a browser session and hands them out once.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n domainauth.Notification) error
	Drain(ctx context.Context, sessionID string) ([]domainauth.Notification, error)
}

// Navigator moves the browser to another route.
type Navigator interface {
	Navigate(path string)
}

// Translator resolves localized messages by key.
type Translator interface {
	Translate(locale, key string) string
}

// Metrics receives counters for auth events.
type Metrics interface {
	Count(name string, value int64, tags map[string]string)
}
