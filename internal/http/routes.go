package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	admin "github.com/cvboard/admin"
	"github.com/cvboard/admin/internal/i18n"
	"github.com/cvboard/admin/internal/ports"
	"github.com/cvboard/admin/internal/remote"
	"github.com/cvboard/admin/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth    *service.AuthService
	Backend remote.Transport
	Catalog *i18n.Catalog
	Metrics ports.Metrics

	// Web holds index.html and static/. Defaults to the embedded shell.
	Web          fs.FS
	HealthChecks map[string]HealthCheck

	CookieDomain string
	TokenMargin  *time.Duration
	CORSOrigins  []string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewRouter creates and configures the BFF router: API routes, gated page routes and the
// web shell, wrapped with the session and CORS middleware.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil || services.Backend == nil || services.Catalog == nil {
		return nil, errors.New("router requires auth, backend and catalog services")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	web := services.Web
	if web == nil {
		sub, err := fs.Sub(admin.WebFS, "web")
		if err != nil {
			return nil, fmt.Errorf("open embedded web shell: %w", err)
		}
		web = sub
	}
	shell, err := newShellHandler(web)
	if err != nil {
		return nil, fmt.Errorf("load web shell: %w", err)
	}
	static, err := staticHandler(web)
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}

	errs := errorRenderer{translator: services.Catalog, signInPath: services.Auth.SignInPath(), logger: logger}
	authHandlers := &AuthHandlers{Svc: services.Auth, Errors: errs, Logger: logger}
	backendHandlers := &BackendHandlers{Transport: services.Backend, Metrics: services.Metrics, Errors: errs, Logger: logger}
	localeHandlers := &LocaleHandlers{Catalog: services.Catalog, CookieDomain: services.CookieDomain, Errors: errs}

	mux := http.NewServeMux()
	registerAuthRoutes(mux, authHandlers)
	registerBackendRoutes(mux, backendHandlers)
	registerLocaleRoutes(mux, localeHandlers)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("no such endpoint")})
	})

	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", static)
	registerPageRoutes(mux, shell, services.Auth.SignInPath())

	var h http.Handler = mux
	h = Session(SessionConfig{
		Auth:         services.Auth,
		Locales:      services.Catalog,
		CookieDomain: services.CookieDomain,
		TokenMargin:  services.TokenMargin,
		Now:          services.Now,
	})(h)
	h = CORS(services.CORSOrigins)(h)
	return h, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
	mux.HandleFunc("GET /api/notifications", h.Notifications)
}

func registerBackendRoutes(mux *http.ServeMux, h *BackendHandlers) {
	mux.HandleFunc("POST /api/graphql", h.GraphQL)
	mux.HandleFunc("GET /api/users/{userId}", h.User)
	mux.HandleFunc("GET /api/cvs/{cvId}", h.Cv)
}

func registerLocaleRoutes(mux *http.ServeMux, h *LocaleHandlers) {
	mux.HandleFunc("GET /api/locales/{lang}", h.Bundle)
	mux.HandleFunc("PUT /api/locale", h.Choose)
}
