// Package credentials keeps the access/refresh token pair in browser-managed storage.
//
// The Store adds expiry awareness on top of a plain key/value Jar: tokens are
// persisted with a storage expiry slightly before their real expiry, and reads
// treat tokens inside that safety margin as absent so a request never leaves
// with a token that dies in flight.
package credentials

import (
	"fmt"
	"time"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/token"
)

// DefaultSafetyMargin is how long before expiry a token stops being handed out.
const DefaultSafetyMargin = 5 * time.Second

// Jar is the raw storage underneath the Store (cookies in production).
// Values are opaque strings; expires is the storage-level eviction time.
type Jar interface {
	Load(name string) (string, bool)
	Save(name, value string, expires time.Time)
	Delete(name string)
}

// Options configures a Store.
type Options struct {
	Jar    Jar
	Margin *time.Duration   // nil uses DefaultSafetyMargin; zero disables the margin
	Now    func() time.Time // defaults to time.Now
}

// Store is an expiry-aware view over a Jar.
type Store struct {
	jar    Jar
	margin time.Duration
	now    func() time.Time
}

// NewStore constructs a Store.
func NewStore(opts Options) *Store {
	margin := DefaultSafetyMargin
	if opts.Margin != nil {
		margin = max(*opts.Margin, 0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{jar: opts.Jar, margin: margin, now: now}
}

// Get returns the raw token of the given kind when it is present and usable.
// Access tokens must be valid for longer than the safety margin; refresh tokens
// only need to be unexpired. Undecodable values are treated as absent.
func (s *Store) Get(kind domainauth.TokenKind) (string, bool) {
	v, ok := s.jar.Load(kind.String())
	if !ok {
		return "", false
	}
	raw := token.StripBearer(v)
	claims, err := token.Decode(raw)
	if err != nil {
		return "", false
	}

	deadline := claims.ExpiresAt
	if kind == domainauth.TokenAccess {
		deadline = deadline.Add(-s.margin)
	}
	if !s.now().Before(deadline) {
		return "", false
	}
	return raw, true
}

// Set persists the token with a storage expiry of exp minus the safety margin.
func (s *Store) Set(kind domainauth.TokenKind, raw string) error {
	raw = token.StripBearer(raw)
	claims, err := token.Decode(raw)
	if err != nil {
		return fmt.Errorf("store %s: %w", kind, err)
	}
	s.jar.Save(kind.String(), token.BearerPrefix+raw, claims.ExpiresAt.Add(-s.margin))
	return nil
}

// Remove deletes the persisted token. Safe to call when nothing is stored.
func (s *Store) Remove(kind domainauth.TokenKind) {
	s.jar.Delete(kind.String())
}

// Pair returns both usable tokens; absent ones are empty.
func (s *Store) Pair() domainauth.CredentialPair {
	access, _ := s.Get(domainauth.TokenAccess)
	refresh, _ := s.Get(domainauth.TokenRefresh)
	return domainauth.CredentialPair{Access: access, Refresh: refresh}
}

// Clear removes both tokens.
func (s *Store) Clear() {
	s.Remove(domainauth.TokenAccess)
	s.Remove(domainauth.TokenRefresh)
}
