package httpx

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cvboard/admin/internal/credentials"
)

// Cookie names persisted in the browser besides the token pair.
const (
	SessionCookie  = "session_id"
	LanguageCookie = "language"
)

// languageCookieMaxAge keeps the locale choice for a year.
const languageCookieMaxAge = 365 * 24 * 60 * 60

var _ credentials.Jar = (*CookieJar)(nil)

// CookieJar is the credentials.Jar of one request. Reads come from the request's cookies,
// writes go out as Set-Cookie headers and are overlaid so later reads in the same request
// observe them.
type CookieJar struct {
	w      http.ResponseWriter
	r      *http.Request
	domain string
	now    func() time.Time

	mu      sync.Mutex
	overlay map[string]*http.Cookie
}

// NewCookieJar binds a jar to the request/response pair.
func NewCookieJar(w http.ResponseWriter, r *http.Request, domain string, now func() time.Time) *CookieJar {
	if now == nil {
		now = time.Now
	}
	return &CookieJar{w: w, r: r, domain: domain, now: now, overlay: make(map[string]*http.Cookie)}
}

// Load returns the cookie value, honoring writes made earlier in this request.
func (j *CookieJar) Load(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if c, ok := j.overlay[name]; ok {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !j.now().Before(c.Expires)) {
			return "", false
		}
		return c.Value, true
	}
	c, err := j.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Save writes the cookie with the given storage expiry. An expiry in the past deletes it.
func (j *CookieJar) Save(name, value string, expires time.Time) {
	maxAge := int(expires.Sub(j.now()) / time.Second)
	if maxAge <= 0 {
		j.Delete(name)
		return
	}
	c := newCookie(j.r, name, value, j.domain)
	c.Expires = expires.UTC()
	c.MaxAge = maxAge
	j.set(c)
}

// Delete expires the cookie. Idempotent.
func (j *CookieJar) Delete(name string) {
	c := newCookie(j.r, name, "", j.domain)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	j.set(c)
}

func (j *CookieJar) set(c *http.Cookie) {
	j.mu.Lock()
	j.overlay[c.Name] = c
	j.mu.Unlock()
	http.SetCookie(j.w, c)
}

// newCookie builds a cookie with the attributes every BFF cookie shares.
func newCookie(r *http.Request, name, value, domain string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// setLanguageCookie persists the user's locale choice.
func setLanguageCookie(w http.ResponseWriter, r *http.Request, domain, lang string) {
	c := newCookie(r, LanguageCookie, lang, domain)
	c.MaxAge = languageCookieMaxAge
	http.SetCookie(w, c)
}
