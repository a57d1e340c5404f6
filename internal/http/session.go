package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cvboard/admin/internal/credentials"
	"github.com/cvboard/admin/internal/service"
)

var errNoSession = errors.New("request session missing")

// LocaleResolver picks the locale for a request from the stored choice and Accept-Language.
type LocaleResolver interface {
	Resolve(choice, acceptLanguage string) string
}

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Auth         *service.AuthService
	Locales      LocaleResolver
	CookieDomain string
	// TokenMargin is the credential safety margin; nil uses the credentials default.
	TokenMargin *time.Duration
	Now         func() time.Time
}

// Session binds every non-static request to its browser session: it issues the session_id
// cookie, resolves the locale and builds the session guard over a per-request cookie jar.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSession(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id := sessionID(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, newCookie(r, SessionCookie, id, cfg.CookieDomain))
			}
			recordSessionID(r.Context(), id)

			locale := ""
			if cfg.Locales != nil {
				choice := ""
				if c, err := r.Cookie(LanguageCookie); err == nil {
					choice = c.Value
				}
				locale = cfg.Locales.Resolve(choice, r.Header.Get("Accept-Language"))
			}

			jar := NewCookieJar(w, r, cfg.CookieDomain, cfg.Now)
			nav := &navigator{}
			guard := cfg.Auth.Guard(service.Scope{
				SessionID:   id,
				Credentials: credentials.NewStore(credentials.Options{Jar: jar, Margin: cfg.TokenMargin, Now: cfg.Now}),
				Navigator:   nav,
				Locale:      locale,
			})

			s := &RequestSession{ID: id, Locale: locale, Guard: guard, nav: nav}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
		})
	}
}

// sessionID returns the session cookie when it holds a well-formed id.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func skipSession(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/static/")
}
