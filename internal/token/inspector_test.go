package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestDecode_RoundTrip(t *testing.T) {
	want := domainauth.Claims{
		Subject:   7,
		Email:     "ada@example.com",
		Role:      domainauth.RoleEmployee,
		IssuedAt:  time.Unix(1_700_000_000, 0),
		ExpiresAt: time.Unix(1_700_000_900, 0),
	}
	raw := sign(t, jwt.MapClaims{
		"sub":   want.Subject,
		"email": want.Email,
		"role":  string(want.Role),
		"iat":   want.IssuedAt.Unix(),
		"exp":   want.ExpiresAt.Unix(),
	})

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, want.Subject, got.Subject)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Role, got.Role)
	assert.True(t, want.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	withMarker, err := Decode(BearerPrefix + raw)
	require.NoError(t, err)
	assert.Equal(t, got, withMarker)
}

func TestDecode_IgnoresSignatureAndExpiry(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"sub": 1, "iat": 1, "exp": 2})
	tampered := raw[:len(raw)-4] + "AAAA"

	got, err := Decode(tampered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Subject)
}

func TestDecode_IgnoresHeader(t *testing.T) {
	seg := func(v string) string { return base64.RawURLEncoding.EncodeToString([]byte(v)) }
	payload := seg(`{"sub":7,"iat":1,"exp":2}`)

	headers := map[string]string{
		"no alg":      seg(`{"typ":"JWT"}`),
		"unknown alg": seg(`{"alg":"XYZ"}`),
		"hs256":       seg(`{"alg":"HS256","typ":"JWT"}`),
		"garbage":     "!!!",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(header + "." + payload + ".sig")
			require.NoError(t, err)
			assert.Equal(t, int64(7), got.Subject)
			assert.True(t, time.Unix(2, 0).Equal(got.ExpiresAt))
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":1}`))
	tests := map[string]string{
		"empty":          "",
		"bearer only":    "Bearer ",
		"one segment":    "abc",
		"two segments":   "abc.def",
		"four segments":  "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig.extra",
		"bad base64":     "eyJhbGciOiJIUzI1NiJ9.!!!.sig",
		"not json":       "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig",
		"missing expiry": "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("abc"))
	assert.Equal(t, "", StripBearer("Bearer "))
	assert.Equal(t, "bearer abc", StripBearer("bearer abc"))
}
