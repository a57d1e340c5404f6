package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
)

// errorRenderer writes classified failures as {"error","message"} in the session's locale.
type errorRenderer struct {
	translator ports.Translator
	signInPath string
	logger     *slog.Logger
}

// render classifies err and answers with its status. The Unauthorized Signal runs the
// session's one-shot logout and always answers 401 with redirect_to, never a form error.
func (e errorRenderer) render(w http.ResponseWriter, r *http.Request, err error) {
	classified := apperrors.Classify(err)
	s, hasSession := SessionFromContext(r.Context())

	locale := ""
	if hasSession {
		locale = s.Locale
	}
	body := errorBody{Error: string(classified.Kind), Message: e.translate(locale, classified.Kind.MessageKey())}
	status := classified.Kind.HTTPStatus()

	if classified.Kind == apperrors.KindUnauthorized {
		if hasSession {
			if _, herr := s.Guard.HandleUnauthorized(r.Context()); herr != nil {
				e.logger.WarnContext(r.Context(), "handle unauthorized", "error", herr)
			}
		}
		body.RedirectTo = e.signInPath
		if IsHTMX(r) {
			SetHXRedirect(w, e.signInPath)
		}
	}

	if status >= http.StatusInternalServerError {
		e.logger.ErrorContext(r.Context(), "request failed", "kind", classified.Kind, "path", r.URL.Path, "error", err)
	} else {
		e.logger.DebugContext(r.Context(), "request rejected", "kind", classified.Kind, "path", r.URL.Path, "error", err)
	}

	if hasSession {
		flushToasts(w, r, s, e.logger)
	}
	WriteJSON(w, status, body)
}

func (e errorRenderer) translate(locale, key string) string {
	if e.translator == nil {
		return key
	}
	return e.translator.Translate(locale, key)
}

// flushToasts hands queued notifications to htmx clients through Hx-Trigger.
// Other clients collect them from /api/notifications.
func flushToasts(w http.ResponseWriter, r *http.Request, s *RequestSession, logger *slog.Logger) {
	if !IsHTMX(r) {
		return
	}
	notes, err := s.Guard.Notifications(r.Context())
	if err != nil {
		logger.WarnContext(r.Context(), "drain notifications", "error", err)
		return
	}
	if len(notes) > 0 {
		SetHXTrigger(w, ToastEvent, notes)
	}
}
