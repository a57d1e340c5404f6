package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects where per-session context (profile cache, flash notifications,
// the one-shot unauthorized flag) lives.
type SessionStoreKind string

const (
	// SessionStoreRedis keeps session context in Redis; required with more than one replica.
	SessionStoreRedis SessionStoreKind = "redis"
	// SessionStoreMemory keeps session context in process memory (development only).
	SessionStoreMemory SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: redis, memory)", v)
	}
}

// AuthConfig groups the session guard configuration.
type AuthConfig struct {
	SessionStore SessionStoreKind `env:"AUTH_SESSION_STORE" envDefault:"redis"`

	// TokenMargin is subtracted from token expiry before it is stored in the cookie.
	// Zero disables the margin; negative values are clamped to zero.
	TokenMargin time.Duration `env:"AUTH_TOKEN_SAFETY_MARGIN" envDefault:"5s"`

	// CoalesceRefresh shares one in-flight refresh per refresh token across requests.
	CoalesceRefresh bool `env:"AUTH_COALESCE_REFRESH" envDefault:"false"`

	SignInPath string        `env:"AUTH_SIGN_IN_PATH" envDefault:"/sign-in"`
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL"  envDefault:"24h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionStore == "" {
		a.SessionStore = SessionStoreRedis
	}
	if a.TokenMargin < 0 {
		a.TokenMargin = 0
	}
	a.SignInPath = strings.TrimSpace(a.SignInPath)
	if a.SignInPath == "" {
		a.SignInPath = "/sign-in"
	}
	if !strings.HasPrefix(a.SignInPath, "/") {
		a.SignInPath = "/" + a.SignInPath
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 24 * time.Hour
	}
}
