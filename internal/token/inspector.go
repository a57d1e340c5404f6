// Package token decodes backend-issued JWTs without verifying them.
//
// Decoding is a read-only convenience for the UI tier: it tells the BFF when a
// token expires and whom it names. The signature is never checked here, so the
// result must not be used as proof of identity; the backend remains the authority.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
)

// ErrMalformed is returned for anything that is not a decodable three-segment token.
var ErrMalformed = errors.New("malformed token")

// payload mirrors the JSON claims the backend puts into its tokens.
// The subject is numeric, so jwt.RegisteredClaims cannot be used directly.
type payload struct {
	Sub   int64           `json:"sub"`
	Email string          `json:"email,omitempty"`
	Role  domainauth.Role `json:"role,omitempty"`
	Iat   int64           `json:"iat"`
	Exp   int64           `json:"exp"`
}

var parser = jwt.NewParser()

// Decode extracts the claims from a raw token. A leading "Bearer " marker is tolerated.
// Only the payload segment is read; the header and signature are ignored.
func Decode(raw string) (domainauth.Claims, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return domainauth.Claims{}, ErrMalformed
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return domainauth.Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	seg, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("%w: payload encoding: %w", ErrMalformed, err)
	}

	var p payload
	if err := json.Unmarshal(seg, &p); err != nil {
		return domainauth.Claims{}, fmt.Errorf("%w: payload json: %w", ErrMalformed, err)
	}
	if p.Exp == 0 {
		return domainauth.Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}

	return domainauth.Claims{
		Subject:   p.Sub,
		Email:     p.Email,
		Role:      p.Role,
		IssuedAt:  time.Unix(p.Iat, 0),
		ExpiresAt: time.Unix(p.Exp, 0),
	}, nil
}

// BearerPrefix marks a stored credential value.
const BearerPrefix = "Bearer "

// StripBearer removes the bearer marker from a stored credential value.
func StripBearer(v string) string {
	if len(v) >= len(BearerPrefix) && v[:len(BearerPrefix)] == BearerPrefix {
		return v[len(BearerPrefix):]
	}
	return v
}
