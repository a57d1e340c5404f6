package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/token"
)

func TestMemoryJar_EvictsAtExpiry(t *testing.T) {
	clock := NewClock(time.Unix(1_700_000_000, 0))
	jar := NewMemoryJar(clock.Now)

	jar.Save("accessToken", "Bearer abc", clock.Now().Add(time.Minute))

	v, ok := jar.Load("accessToken")
	require.True(t, ok)
	assert.Equal(t, "Bearer abc", v)

	clock.Advance(time.Minute)
	_, ok = jar.Load("accessToken")
	assert.False(t, ok)
}

func TestMemoryJar_DeleteIdempotent(t *testing.T) {
	jar := NewMemoryJar(nil)
	jar.Delete("missing")
	jar.Save("k", "v", time.Time{})
	jar.Delete("k")
	jar.Delete("k")

	_, ok := jar.Load("k")
	assert.False(t, ok)
}

func TestRecordingNavigator(t *testing.T) {
	var nav RecordingNavigator
	nav.Navigate("/sign-in")
	nav.Navigate("/users")

	paths := nav.Paths()
	assert.Equal(t, []string{"/sign-in", "/users"}, paths)

	paths[0] = "mutated"
	assert.Equal(t, "/sign-in", nav.Paths()[0])
}

func TestStaticTranslator(t *testing.T) {
	tr := StaticTranslator{"errors.UNAUTHORIZED_ERROR": "Unauthorized"}
	assert.Equal(t, "Unauthorized", tr.Translate("en", "errors.UNAUTHORIZED_ERROR"))
	assert.Equal(t, "missing.key", tr.Translate("en", "missing.key"))
}

func TestRecordingMetrics(t *testing.T) {
	var m RecordingMetrics
	m.Count("auth.refresh", 1, nil)
	m.Count("auth.refresh", 2, map[string]string{"result": "ok"})
	assert.Equal(t, int64(3), m.Get("auth.refresh"))
	assert.Zero(t, m.Get("other"))
}

func TestIssueToken_Decodes(t *testing.T) {
	iat := time.Unix(1_700_000_000, 0)
	exp := iat.Add(15 * time.Minute)

	raw := IssueToken(42, domainauth.RoleAdmin, iat, exp)
	claims, err := token.Decode(raw)

	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Subject)
	assert.Equal(t, domainauth.RoleAdmin, claims.Role)
	assert.True(t, exp.Equal(claims.ExpiresAt))
}
