package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	for _, v := range []string{"", "0", "false", "no"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.False(t, envBool("TESTUTIL_FLAG"), v)
	}
}

func TestFixedTimeFunc(t *testing.T) {
	now := FixedTimeFunc(TestTime())
	assert.Equal(t, TestTime(), now())
	time.Sleep(time.Millisecond)
	assert.Equal(t, TestTime(), now())
}

func TestUserBuilder(t *testing.T) {
	u := NewUser().WithID("42").WithEmail("grace@example.com").WithAvatar("/a.png").Build()

	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "grace@example.com", u.Email)
	if assert.NotNil(t, u.Avatar) {
		assert.Equal(t, "/a.png", *u.Avatar)
	}
	assert.Equal(t, "Ada", *u.FirstName)
}

func TestTestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_URI", "")
	t.Setenv("REDIS_PASSWORD", "")
	t.Setenv("TEST_REDIS_DB", "")

	opts := testRedisOptions(t)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, defaultTestRedisDB, opts.DB)

	t.Setenv("REDIS_URI", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("TEST_REDIS_DB", "3")

	opts = testRedisOptions(t)
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
}
