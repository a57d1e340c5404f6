package httpx

import (
	"context"
	"net/http"
	"sync"

	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// logFieldsKey carries the access-log fields that inner middleware may fill in.
type logFieldsKey struct{}

// logFields is allocated by Logging and shared with inner handlers through the context.
type logFields struct {
	mu        sync.Mutex
	sessionID string
}

func withLogFields(ctx context.Context, f *logFields) context.Context {
	return context.WithValue(ctx, logFieldsKey{}, f)
}

// recordSessionID notes the session id on the enclosing access log entry, if any.
func recordSessionID(ctx context.Context, id string) {
	f, ok := ctx.Value(logFieldsKey{}).(*logFields)
	if !ok || f == nil {
		return
	}
	f.mu.Lock()
	f.sessionID = id
	f.mu.Unlock()
}

func (f *logFields) session() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

// RequestSession is the browser session bound to the current request.
type RequestSession struct {
	ID     string
	Locale string
	Guard  *service.Guard
	nav    *navigator
}

// Navigation returns the route the guard asked the browser to move to during this request.
func (s *RequestSession) Navigation() (string, bool) {
	return s.nav.target()
}

// withSession returns a child context carrying the session.
func withSession(ctx context.Context, s *RequestSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the request session and a boolean indicating presence.
func SessionFromContext(ctx context.Context) (*RequestSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(*RequestSession)
	return s, ok && s != nil
}

// requireSession fetches the request session or answers 500 when the middleware is missing.
func requireSession(w http.ResponseWriter, r *http.Request) (*RequestSession, bool) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: string(apperrors.KindUnexpected), Err: errNoSession})
		return nil, false
	}
	return s, true
}

// navigator records guard navigations so the handler can turn them into a redirect.
type navigator struct {
	mu   sync.Mutex
	path string
}

// Navigate implements ports.Navigator.
func (n *navigator) Navigate(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
}

func (n *navigator) target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path, n.path != ""
}
