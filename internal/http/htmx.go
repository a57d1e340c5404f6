package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ToastEvent is the client-side event carrying queued notifications.
const ToastEvent = "showToast"

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// wantsJSON reports whether the client asked for a JSON answer instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger triggers a client-side event after swap with optional payload.
// It sets the Hx-Trigger response header as a JSON object: {"<event>": <payload>}.
// If payload is nil, the value true is used for the event.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", "{\""+event+"\":true}")
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// redirect moves the client to path in the form it understands: Hx-Redirect for htmx,
// a redirect_to body for JSON clients and a 303 for plain navigations.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	switch {
	case IsHTMX(r):
		SetHXRedirect(w, path)
		w.WriteHeader(http.StatusOK)
	case wantsJSON(r):
		WriteJSON(w, http.StatusOK, map[string]string{"redirect_to": path})
	default:
		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}
