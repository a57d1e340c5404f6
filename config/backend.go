package config

import (
	"strings"
	"time"
)

// BackendConfig describes the GraphQL backend the BFF talks to.
type BackendConfig struct {
	GraphQLURL string        `env:"GRAPHQL_URL" envDefault:"http://localhost:3001/api/graphql"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"15s"`

	Breaker BreakerConfig `envPrefix:"BREAKER_"`
}

// BreakerConfig tunes the circuit breaker around the backend transport.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `env:"CONSECUTIVE_FAILURES" envDefault:"5"`
	// MaxRequests allowed through while half-open.
	MaxRequests uint32        `env:"MAX_REQUESTS" envDefault:"1"`
	Interval    time.Duration `env:"INTERVAL"     envDefault:"60s"`
	// Timeout is how long the breaker stays open.
	Timeout time.Duration `env:"OPEN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.GraphQLURL = strings.TrimSpace(b.GraphQLURL)
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
	if b.Breaker.ConsecutiveFailures == 0 {
		b.Breaker.ConsecutiveFailures = 5
	}
	if b.Breaker.MaxRequests == 0 {
		b.Breaker.MaxRequests = 1
	}
	if b.Breaker.Timeout <= 0 {
		b.Breaker.Timeout = 30 * time.Second
	}
}
