package auth

// Package auth contains domain-level types for credentials and browser sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents the backend role carried in token claims.
// Keep string form so it survives JSON payloads unchanged.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEmployee Role = "Employee"
)

// TokenKind selects one half of the credential pair.
type TokenKind int

const (
	TokenAccess TokenKind = iota
	TokenRefresh
)

// String returns the storage key used for the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenAccess:
		return "accessToken"
	case TokenRefresh:
		return "refreshToken"
	default:
		return "unknownToken"
	}
}

// Claims is the decoded payload of a backend-issued token.
// It is informational only: the backend remains the authority on validity.
type Claims struct {
	Subject   int64
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CredentialPair holds the raw access and refresh tokens. Empty means absent.
type CredentialPair struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is present.
func (p CredentialPair) Empty() bool { return p.Access == "" && p.Refresh == "" }

// User is the profile summary shown by the admin front-end for the signed-in principal.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	FullName  *string `json:"full_name"`
	Avatar    *string `json:"avatar"`
}

// AuthResult is what the backend returns for a successful login or registration.
type AuthResult struct {
	User         User
	AccessToken  string
	RefreshToken string
}

// StateKind enumerates the session states.
type StateKind string

const (
	StateUnauthenticated StateKind = "unauthenticated"
	StateRefreshing      StateKind = "refreshing"
	StateAuthenticated   StateKind = "authenticated"
)

// State is derived from the credential pair on demand and never persisted.
// User is only set for StateAuthenticated and may still be nil when the
// profile has not been fetched yet.
type State struct {
	Kind StateKind
	User *User
}

// Unauthenticated returns the unauthenticated state.
func Unauthenticated() State { return State{Kind: StateUnauthenticated} }

// Refreshing returns the transient state used while a new access token is minted.
func Refreshing() State { return State{Kind: StateRefreshing} }

// Authenticated returns the authenticated state with an optional cached profile.
func Authenticated(u *User) State { return State{Kind: StateAuthenticated, User: u} }

// IsAuthenticated is true for the authenticated and refreshing states.
func (s State) IsAuthenticated() bool { return s.Kind != StateUnauthenticated }

// NotificationLevel is the severity of a toast shown by the front-end.
type NotificationLevel string

const (
	LevelError   NotificationLevel = "error"
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a localized toast queued for one browser session.
type Notification struct {
	Level   NotificationLevel `json:"type"`
	Message string            `json:"message"`
}
