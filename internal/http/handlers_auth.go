package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/service"
)

// Notification keys queued after successful auth actions.
const (
	msgSignedIn   = "auth.signedIn"
	msgRegistered = "auth.registered"
	msgSignedOut  = "auth.signedOut"
)

// AuthHandlers provides HTTP handlers for the session lifecycle.
type AuthHandlers struct {
	Svc    *service.AuthService
	Errors errorRenderer
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Status     string           `json:"status"`
	User       *domainauth.User `json:"user,omitempty"`
	RedirectTo string           `json:"redirect_to,omitempty"`
}

type statusResponse struct {
	Authenticated bool                      `json:"authenticated"`
	State         domainauth.StateKind      `json:"state"`
	User          *domainauth.User          `json:"user,omitempty"`
	Notifications []domainauth.Notification `json:"notifications"`
}

type authFunc func(g *service.Guard, ctx context.Context, email, password string) (domainauth.User, error)

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*service.Guard).Login, msgSignedIn)
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*service.Guard).Register, msgRegistered)
}

func (h *AuthHandlers) authenticate(w http.ResponseWriter, r *http.Request, fn authFunc, successKey string) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in credentialsRequest
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := fn(s.Guard, r.Context(), in.Email, in.Password)
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}

	s.Guard.Notify(r.Context(), domainauth.LevelSuccess, successKey)
	flushToasts(w, r, s, h.logger())
	if IsHTMX(r) {
		SetHXRedirect(w, LandingPath)
	}
	WriteJSON(w, http.StatusOK, authResponse{Status: "success", User: &user, RedirectTo: LandingPath})
}

// Logout handles POST /api/auth/logout. It always succeeds from the client's point of view.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Guard.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	s.Guard.Notify(r.Context(), domainauth.LevelInfo, msgSignedOut)

	target, ok := s.Navigation()
	if !ok {
		target = h.Svc.SignInPath()
	}

	if IsHTMX(r) || wantsJSON(r) {
		flushToasts(w, r, s, h.logger())
		if IsHTMX(r) {
			SetHXRedirect(w, target)
		}
		WriteJSON(w, http.StatusOK, authResponse{Status: "success", RedirectTo: target})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Status handles GET /api/auth/status. It reports the derived session state, the profile
// when one can be resolved, and drains queued notifications.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := s.Guard.CurrentUser(ctx); err != nil {
		// Unauthorized already ran the one-shot logout inside the guard.
		h.logger().WarnContext(ctx, "resolve current user", "error", err)
	}
	state := s.Guard.State(ctx)

	notes, err := s.Guard.Notifications(ctx)
	if err != nil {
		h.logger().WarnContext(ctx, "drain notifications", "error", err)
	}
	if notes == nil {
		notes = []domainauth.Notification{}
	}

	WriteJSON(w, http.StatusOK, statusResponse{
		Authenticated: state.IsAuthenticated(),
		State:         state.Kind,
		User:          state.User,
		Notifications: notes,
	})
}

// Notifications handles GET /api/notifications.
func (h *AuthHandlers) Notifications(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	notes, err := s.Guard.Notifications(r.Context())
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	if notes == nil {
		notes = []domainauth.Notification{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notifications": notes})
}
