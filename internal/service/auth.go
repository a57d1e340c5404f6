package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cvboard/admin/internal/credentials"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
	"github.com/cvboard/admin/internal/token"
)

const (
	// DefaultSignInPath is where logout and unauthorized episodes send the browser.
	DefaultSignInPath = "/sign-in"
	// DefaultSessionTTL bounds cached profiles and the one-shot unauthorized flag.
	DefaultSessionTTL = 24 * time.Hour
)

// Metric names emitted by the guard.
const (
	MetricLogin         = "auth.login"
	MetricRegister      = "auth.register"
	MetricLogout        = "auth.logout"
	MetricRefresh       = "auth.refresh"
	MetricRefreshFailed = "auth.refresh_failed"
	MetricUnauthorized  = "auth.unauthorized"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API        ports.AuthAPI
	Sessions   ports.SessionStore
	Notifier   ports.Notifier
	Translator ports.Translator
	Metrics    ports.Metrics
	Logger     *slog.Logger

	SignInPath string
	SessionTTL time.Duration
	// CoalesceRefresh shares one in-flight refresh between concurrent requests
	// presenting the same refresh token. Needed when the backend rotates refresh tokens.
	CoalesceRefresh bool
}

// AuthService holds the application-wide session guard dependencies. One instance per process;
// per-request behavior lives on the Guard returned by Guard.
type AuthService struct {
	api        ports.AuthAPI
	sessions   ports.SessionStore
	notifier   ports.Notifier
	translator ports.Translator
	metrics    ports.Metrics
	logger     *slog.Logger

	signInPath string
	sessionTTL time.Duration
	coalesce   bool
	refreshes  singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signIn := opts.SignInPath
	if signIn == "" {
		signIn = DefaultSignInPath
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AuthService{
		api:        opts.API,
		sessions:   opts.Sessions,
		notifier:   opts.Notifier,
		translator: opts.Translator,
		metrics:    metrics,
		logger:     logger.With("component", "auth"),
		signInPath: signIn,
		sessionTTL: ttl,
		coalesce:   opts.CoalesceRefresh,
	}
}

// SignInPath returns the sign-in route.
func (s *AuthService) SignInPath() string { return s.signInPath }

// Scope binds the guard to one browser session for the duration of one request.
type Scope struct {
	SessionID   string
	Credentials *credentials.Store
	Navigator   ports.Navigator
	Locale      string
}

// Guard is the session guard for a single browser session.
type Guard struct {
	svc   *AuthService
	scope Scope
}

// Guard returns the session guard for scope.
func (s *AuthService) Guard(scope Scope) *Guard {
	return &Guard{svc: s, scope: scope}
}

// Token returns the usable token of the given kind.
func (g *Guard) Token(kind domainauth.TokenKind) (string, bool) {
	return g.scope.Credentials.Get(kind)
}

// IsAuthenticated reports whether a usable access or refresh token exists.
// A cached profile alone never counts.
func (g *Guard) IsAuthenticated() bool {
	if _, ok := g.Token(domainauth.TokenAccess); ok {
		return true
	}
	_, ok := g.Token(domainauth.TokenRefresh)
	return ok
}

// State derives the session state from the credential pair. Refreshing means
// only a refresh token is left, so the next authorized call mints an access token.
func (g *Guard) State(ctx context.Context) domainauth.State {
	if _, ok := g.Token(domainauth.TokenAccess); ok {
		return domainauth.Authenticated(g.cachedUser(ctx))
	}
	if _, ok := g.Token(domainauth.TokenRefresh); ok {
		return domainauth.Refreshing()
	}
	return domainauth.Unauthenticated()
}

func (g *Guard) cachedUser(ctx context.Context) *domainauth.User {
	u, err := g.svc.sessions.User(ctx, g.scope.SessionID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			g.svc.logger.WarnContext(ctx, "read cached user", "error", err)
		}
		return nil
	}
	return &u
}

// EnsureAccessToken returns a usable access token, minting one from the refresh token when needed.
// With neither token usable it fails with the Unauthorized Signal without touching the network.
func (g *Guard) EnsureAccessToken(ctx context.Context) (string, error) {
	if access, ok := g.Token(domainauth.TokenAccess); ok {
		return access, nil
	}

	refresh, ok := g.Token(domainauth.TokenRefresh)
	if !ok {
		return "", apperrors.New(apperrors.KindUnauthorized, "no usable credentials")
	}

	access, err := g.svc.refresh(ctx, refresh)
	if err != nil {
		g.svc.metrics.Count(MetricRefreshFailed, 1, nil)
		classified := apperrors.Classify(err)
		g.svc.logger.InfoContext(ctx, "silent refresh failed", "kind", classified.Kind, "error", err)
		return "", fmt.Errorf("refresh access token: %w", classified)
	}

	if err := g.scope.Credentials.Set(domainauth.TokenAccess, access); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", apperrors.Wrap(err, apperrors.KindUnexpected))
	}
	g.svc.metrics.Count(MetricRefresh, 1, nil)
	return access, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (string, error) {
	if !s.coalesce {
		return s.api.UpdateToken(ctx, refreshToken)
	}
	v, err, _ := s.refreshes.Do(refreshToken, func() (any, error) {
		return s.api.UpdateToken(ctx, refreshToken)
	})
	if err != nil {
		return "", err
	}
	access, _ := v.(string)
	return access, nil
}

// Login authenticates with the backend and establishes the session.
func (g *Guard) Login(ctx context.Context, email, password string) (domainauth.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return domainauth.User{}, err
	}
	res, err := g.svc.api.Login(ctx, email, password)
	if err != nil {
		return domainauth.User{}, apperrors.Classify(err)
	}
	g.svc.metrics.Count(MetricLogin, 1, nil)
	return g.establish(ctx, res)
}

// Register creates an account and establishes the session.
func (g *Guard) Register(ctx context.Context, email, password string) (domainauth.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return domainauth.User{}, err
	}
	res, err := g.svc.api.Register(ctx, email, password)
	if err != nil {
		return domainauth.User{}, apperrors.Classify(err)
	}
	g.svc.metrics.Count(MetricRegister, 1, nil)
	return g.establish(ctx, res)
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return apperrors.New(apperrors.KindBadInputData, "email and password are required")
	}
	return nil
}

func (g *Guard) establish(ctx context.Context, res domainauth.AuthResult) (domainauth.User, error) {
	creds := g.scope.Credentials
	if err := creds.Set(domainauth.TokenAccess, res.AccessToken); err != nil {
		return domainauth.User{}, apperrors.Wrap(err, apperrors.KindUnexpected)
	}
	if err := creds.Set(domainauth.TokenRefresh, res.RefreshToken); err != nil {
		creds.Clear()
		return domainauth.User{}, apperrors.Wrap(err, apperrors.KindUnexpected)
	}

	// The session cookies are already valid, so store failures only cost a refetch.
	var errs []error
	if err := g.svc.sessions.SaveUser(ctx, g.scope.SessionID, res.User, g.svc.sessionTTL); err != nil {
		errs = append(errs, fmt.Errorf("cache user: %w", err))
	}
	if err := g.svc.sessions.ResetUnauthorized(ctx, g.scope.SessionID); err != nil {
		errs = append(errs, fmt.Errorf("reset unauthorized flag: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		g.svc.logger.WarnContext(ctx, "session context update failed", "error", err)
	}
	return res.User, nil
}

// Logout clears the cached user and both tokens, then navigates to sign-in. Idempotent.
func (g *Guard) Logout(ctx context.Context) error {
	err := g.svc.sessions.ClearUser(ctx, g.scope.SessionID)
	g.scope.Credentials.Clear()
	if g.scope.Navigator != nil {
		g.scope.Navigator.Navigate(g.svc.signInPath)
	}
	g.svc.metrics.Count(MetricLogout, 1, nil)
	if err != nil {
		return fmt.Errorf("clear cached user: %w", err)
	}
	return nil
}

// HandleUnauthorized reacts to an observed Unauthorized Signal. Only the first caller of an
// episode shows the notification and logs out; it reports whether this call did so.
func (g *Guard) HandleUnauthorized(ctx context.Context) (bool, error) {
	first, err := g.svc.sessions.MarkUnauthorized(ctx, g.scope.SessionID, g.svc.sessionTTL)
	if err != nil {
		return false, fmt.Errorf("mark unauthorized: %w", err)
	}
	if !first {
		return false, nil
	}

	g.svc.metrics.Count(MetricUnauthorized, 1, nil)
	g.NotifyUnauthorized(ctx)
	return true, g.Logout(ctx)
}

// NotifyUnauthorized queues the localized "unauthorized" toast.
func (g *Guard) NotifyUnauthorized(ctx context.Context) {
	g.Notify(ctx, domainauth.LevelError, apperrors.KindUnauthorized.MessageKey())
}

// Notify queues a localized toast for the session; failures are logged.
func (g *Guard) Notify(ctx context.Context, level domainauth.NotificationLevel, key string) {
	msg := key
	if g.svc.translator != nil {
		msg = g.svc.translator.Translate(g.scope.Locale, key)
	}
	n := domainauth.Notification{Level: level, Message: msg}
	if err := g.svc.notifier.Notify(ctx, g.scope.SessionID, n); err != nil {
		g.svc.logger.WarnContext(ctx, "queue notification", "error", err)
	}
}

// Notifications drains the pending toasts of the session.
func (g *Guard) Notifications(ctx context.Context) ([]domainauth.Notification, error) {
	return g.svc.notifier.Drain(ctx, g.scope.SessionID)
}

// CurrentUser returns the signed-in user's profile, fetching and caching it on first use.
// It returns nil without error when the session is unauthenticated.
func (g *Guard) CurrentUser(ctx context.Context) (*domainauth.User, error) {
	if !g.IsAuthenticated() {
		return nil, nil
	}
	if u := g.cachedUser(ctx); u != nil {
		return u, nil
	}

	raw, ok := g.Token(domainauth.TokenAccess)
	if !ok {
		raw, _ = g.Token(domainauth.TokenRefresh)
	}
	claims, err := token.Decode(raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindUnexpected)
	}
	userID, err := CheckUserID(strconv.FormatInt(claims.Subject, 10))
	if err != nil {
		return nil, err
	}

	access, err := g.EnsureAccessToken(ctx)
	if err != nil {
		return nil, g.unauthorizedAware(ctx, err)
	}
	user, err := g.svc.api.UserAuthData(ctx, access, userID)
	if err != nil {
		return nil, g.unauthorizedAware(ctx, apperrors.Classify(err))
	}

	if err := g.svc.sessions.SaveUser(ctx, g.scope.SessionID, user, g.svc.sessionTTL); err != nil {
		g.svc.logger.WarnContext(ctx, "cache user", "error", err)
	}
	return &user, nil
}

// unauthorizedAware runs the one-shot logout when err carries the Unauthorized Signal.
func (g *Guard) unauthorizedAware(ctx context.Context, err error) error {
	if apperrors.IsUnauthorized(err) {
		if _, herr := g.HandleUnauthorized(ctx); herr != nil {
			g.svc.logger.WarnContext(ctx, "handle unauthorized", "error", herr)
		}
	}
	return err
}

type nopMetrics struct{}

func (nopMetrics) Count(string, int64, map[string]string) {}
