// Package remote attaches session credentials to outbound backend operations and
// classifies every failure before it leaves the package.
package remote

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/cvboard/admin/internal/adapters/backend"
	"github.com/cvboard/admin/internal/adapters/graphql"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
)

// MetricBackendError counts classified backend failures, tagged by kind.
const MetricBackendError = "backend.error"

var _ backend.Executor = (*Caller)(nil)

// TokenResolver is the part of the session guard the caller depends on.
type TokenResolver interface {
	EnsureAccessToken(ctx context.Context) (string, error)
	Token(kind domainauth.TokenKind) (string, bool)
}

// Transport posts one operation with an optional bearer token.
type Transport interface {
	Do(ctx context.Context, req graphql.Request, tok *oauth2.Token) (*graphql.Response, error)
}

// Option configures a Caller.
type Option func(*Caller)

// WithExempt replaces the set of operations that never trigger a refresh.
func WithExempt(ops ...string) Option {
	return func(c *Caller) {
		c.exempt = make(map[string]struct{}, len(ops))
		for _, op := range ops {
			c.exempt[op] = struct{}{}
		}
	}
}

// WithMetrics reports classified failures.
func WithMetrics(m ports.Metrics) Option {
	return func(c *Caller) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Caller) { c.logger = l }
}

// Caller is the remote call wrapper for one browser session. It never retries;
// the session guard decides what an Unauthorized failure means.
type Caller struct {
	transport Transport
	tokens    TokenResolver
	exempt    map[string]struct{}
	metrics   ports.Metrics
	logger    *slog.Logger
}

// NewCaller constructs a Caller. Token-minting operations are exempt by default.
func NewCaller(t Transport, tokens TokenResolver, opts ...Option) *Caller {
	c := &Caller{transport: t, tokens: tokens, logger: slog.Default()}
	WithExempt(backend.ExemptOperations...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs req with the session's credentials. Every returned error wraps an *errors.Error.
func (c *Caller) Execute(ctx context.Context, req graphql.Request) (*graphql.Response, error) {
	tok, err := c.credential(ctx, req.OperationName)
	if err != nil {
		return nil, c.fail(req.OperationName, err)
	}

	var bearer *oauth2.Token
	if tok != "" {
		bearer = &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
	}

	resp, err := c.transport.Do(ctx, req, bearer)
	if err != nil {
		return nil, c.fail(req.OperationName, err)
	}
	return resp, nil
}

// credential picks the token for op. Exempt operations take whatever is stored; the rest
// wait for EnsureAccessToken and fall back to the refresh token when resolution failed
// for a reason other than Unauthorized.
func (c *Caller) credential(ctx context.Context, op string) (string, error) {
	if _, ok := c.exempt[op]; ok {
		if access, ok := c.tokens.Token(domainauth.TokenAccess); ok {
			return access, nil
		}
		refresh, _ := c.tokens.Token(domainauth.TokenRefresh)
		return refresh, nil
	}

	access, err := c.tokens.EnsureAccessToken(ctx)
	if err == nil {
		return access, nil
	}
	if apperrors.IsUnauthorized(err) {
		return "", err
	}
	if refresh, ok := c.tokens.Token(domainauth.TokenRefresh); ok {
		c.logger.WarnContext(ctx, "access token unavailable, sending refresh token", "operation", op, "error", err)
		return refresh, nil
	}
	return "", err
}

func (c *Caller) fail(op string, err error) error {
	classified := apperrors.Classify(err)
	if c.metrics != nil {
		c.metrics.Count(MetricBackendError, 1, map[string]string{"kind": string(classified.Kind), "operation": op})
	}
	return fmt.Errorf("%s: %w", op, classified)
}
