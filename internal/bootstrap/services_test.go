package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvboard/admin/config"
	httpx "github.com/cvboard/admin/internal/http"
	"github.com/cvboard/admin/internal/testutil"
)

func testConfig(store config.SessionStoreKind) *config.AppConfig {
	cfg := &config.AppConfig{
		Auth:    config.AuthConfig{SessionStore: store},
		Backend: config.BackendConfig{GraphQLURL: "http://backend.invalid/graphql"},
		Locale:  config.LocaleConfig{Supported: []string{"en", "de", "ru"}, Default: "en", Fallback: "en"},
		HTTP:    config.HTTPConfig{CompressionEnabled: true, CompressionLevel: 5},
	}
	cfg.Sanitize()
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServices_MemoryStore(t *testing.T) {
	svc, err := NewServices(&ServiceDeps{Config: testConfig(config.SessionStoreMemory), Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	assert.NotNil(t, svc.Auth)
	assert.NotNil(t, svc.Backend)
	assert.NotNil(t, svc.Catalog)
	assert.Equal(t, "/sign-in", svc.Auth.SignInPath())
	assert.False(t, svc.Metrics.Enabled())
	assert.Nil(t, svc.HealthChecks)
}

func TestNewServices_RedisStoreRequiresClient(t *testing.T) {
	_, err := NewServices(&ServiceDeps{Config: testConfig(config.SessionStoreRedis), Logger: discardLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis client")
}

func TestNewServices_RequiresConfig(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)
	_, err = NewServices(&ServiceDeps{})
	require.Error(t, err)
}

func TestNewServices_RedisStore(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	svc, err := NewServices(&ServiceDeps{
		Config:      testConfig(config.SessionStoreRedis),
		RedisClient: client,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)
	require.Contains(t, svc.HealthChecks, "redis")
	assert.NoError(t, svc.HealthChecks["redis"](context.Background()))
}

func TestBuildHTTPHandler(t *testing.T) {
	cfg := testConfig(config.SessionStoreMemory)
	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	h, err := buildHTTPHandler(httpHandlerConfig{
		Logger: discardLogger(),
		Services: httpx.RouterServices{
			Auth:    svc.Auth,
			Backend: svc.Backend,
			Catalog: svc.Catalog,
			Metrics: svc.Metrics,
		},
		HTTP: cfg.HTTP,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	// The embedded shell answers page routes.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sign-in", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="app"`)
}

func TestBuildHTTPHandler_RequiresServices(t *testing.T) {
	_, err := buildHTTPHandler(httpHandlerConfig{Logger: discardLogger()})
	require.Error(t, err)
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}

func TestConnectRedis_InvalidTopology(t *testing.T) {
	tests := []struct {
		name  string
		redis config.RedisConfig
		want  string
	}{
		{name: "direct without uri", redis: config.RedisConfig{URI: "  "}, want: "requires a URI"},
		{name: "sentinel without nodes", redis: config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}}, want: "sentinel node"},
		{name: "cluster without nodes", redis: config.RedisConfig{UseCluster: true}, want: "at least one address"},
		{name: "bad url", redis: config.RedisConfig{URI: "redis://:bad@host:notaport"}, want: "parse redis url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConnectRedis(context.Background(), RedisConnConfig{Redis: tt.redis})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
