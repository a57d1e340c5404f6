// Package testutil provides testing utilities and helpers shared by the admin BFF packages.
package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTestRedisDB keeps integration tests away from DB 0, which a local
// BFF started with the default config writes its sessions to.
const defaultTestRedisDB = 15

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// FixedTimeFunc returns a function that always returns the same time.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time {
		return t
	}
}

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// testRedisOptions builds client options from the same REDIS_* variables the
// BFF reads, plus TEST_REDIS_DB to pick the database.
func testRedisOptions(t testing.TB) *redis.Options {
	t.Helper()

	addr := os.Getenv("REDIS_URI")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := defaultTestRedisDB
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			t.Fatalf("invalid TEST_REDIS_DB=%q", v)
		}
		db = i
	}

	return &redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db}
}

// SetupTestRedis returns a client on the test database. It does not flush:
// packages run in parallel and share the database. Tests are skipped when Redis is unreachable unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	opts := testRedisOptions(t)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireRedis() {
			t.Fatalf("Redis not available for testing at %s: %v", opts.Addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", opts.Addr, err)
	}
	return client
}
