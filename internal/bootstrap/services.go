package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cvboard/admin/config"
	"github.com/cvboard/admin/internal/adapters/backend"
	"github.com/cvboard/admin/internal/adapters/graphql"
	"github.com/cvboard/admin/internal/adapters/memstore"
	redisstore "github.com/cvboard/admin/internal/adapters/redis"
	httpx "github.com/cvboard/admin/internal/http"
	"github.com/cvboard/admin/internal/i18n"
	"github.com/cvboard/admin/internal/observability/statsd"
	"github.com/cvboard/admin/internal/ports"
	"github.com/cvboard/admin/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth         *service.AuthService
	Backend      *graphql.Client
	Catalog      *i18n.Catalog
	Metrics      *statsd.Client
	HealthChecks map[string]httpx.HealthCheck
}

// Close releases resources owned by the container. The Redis client belongs to the caller.
func (c ServiceContainer) Close() error {
	if c.Metrics == nil {
		return nil
	}
	if err := c.Metrics.Close(); err != nil {
		return fmt.Errorf("close statsd client: %w", err)
	}
	return nil
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	// HTTPClient overrides the backend transport client; nil builds one from config.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// sessionContext is what both session store adapters provide.
type sessionContext interface {
	ports.SessionStore
	ports.Notifier
}

// NewServices wires the backend transport, session store, locale catalog and metrics into the
// session guard.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require config")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := buildMetrics(logger, cfg.Observability)

	client, err := graphql.New(graphql.Options{
		Endpoint:   cfg.Backend.GraphQLURL,
		HTTPClient: deps.HTTPClient,
		Timeout:    cfg.Backend.Timeout,
		Breaker: graphql.BreakerSettings{
			MaxRequests:         cfg.Backend.Breaker.MaxRequests,
			Interval:            cfg.Backend.Breaker.Interval,
			Timeout:             cfg.Backend.Breaker.Timeout,
			ConsecutiveFailures: cfg.Backend.Breaker.ConsecutiveFailures,
		},
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build backend client: %w", err)
	}

	catalog, err := i18n.New(i18n.Options{
		Supported: cfg.Locale.Supported,
		Default:   cfg.Locale.Default,
		Fallback:  cfg.Locale.Fallback,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("load locale catalog: %w", err)
	}

	store, err := newSessionStore(cfg, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		API:             backend.NewAuthAPI(client),
		Sessions:        store,
		Notifier:        store,
		Translator:      catalog,
		Metrics:         metrics,
		Logger:          logger,
		SignInPath:      cfg.Auth.SignInPath,
		SessionTTL:      cfg.Auth.SessionTTL,
		CoalesceRefresh: cfg.Auth.CoalesceRefresh,
	})

	return ServiceContainer{
		Auth:         auth,
		Backend:      client,
		Catalog:      catalog,
		Metrics:      metrics,
		HealthChecks: healthChecks(deps.RedisClient),
	}, nil
}

// buildMetrics returns a statsd client; a disabled or unreachable sink yields a client that
// drops everything.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  logger,
		})
		if err == nil {
			return client
		}
		logger.Error("failed to initialise statsd client", "error", err)
	}
	client, _ := statsd.NewClient(statsd.Config{Prefix: cfg.Metrics.Prefix, Logger: logger})
	return client
}

//nolint:ireturn // both store adapters satisfy the same pair of ports.
func newSessionStore(cfg *config.AppConfig, client redis.UniversalClient, logger *slog.Logger) (sessionContext, error) {
	switch cfg.Auth.SessionStore {
	case config.SessionStoreMemory:
		if !cfg.IsDev {
			logger.Warn("in-memory session store in use; session context is lost on restart and not shared between replicas")
		}
		return memstore.New(time.Now), nil
	default:
		if client == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return redisstore.NewSessionStoreWithPrefix(client, cfg.Redis.KeyPrefix), nil
	}
}

func healthChecks(client redis.UniversalClient) map[string]httpx.HealthCheck {
	if client == nil {
		return nil
	}
	return map[string]httpx.HealthCheck{
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
