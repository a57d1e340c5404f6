package httpx

import (
	"bytes"
	"io/fs"
	"net/http"
	"regexp"
)

// LandingPath is where authenticated users land when they open a public-only page.
const LandingPath = "/users"

// pageMeta is the navigation metadata attached to every page route.
type pageMeta struct {
	Name         string
	RequiresAuth bool
	NotFound     bool
}

type pageRoute struct {
	Pattern string
	Meta    pageMeta
}

//nolint:gochecknoglobals // static route table
var pageRoutes = []pageRoute{
	{"GET /sign-in", pageMeta{Name: "signIn"}},
	{"GET /sign-up", pageMeta{Name: "signUp"}},
	{"GET /settings", pageMeta{Name: "settings", RequiresAuth: true}},
	{"GET /users", pageMeta{Name: "users", RequiresAuth: true}},
	{"GET /users/{userId}/profile", pageMeta{Name: "userProfile", RequiresAuth: true}},
	{"GET /users/{userId}/skills", pageMeta{Name: "userSkills", RequiresAuth: true}},
	{"GET /users/{userId}/languages", pageMeta{Name: "userLanguages", RequiresAuth: true}},
	{"GET /users/{userId}/cvs", pageMeta{Name: "userCvs", RequiresAuth: true}},
	{"GET /projects", pageMeta{Name: "projects", RequiresAuth: true}},
	{"GET /cvs", pageMeta{Name: "cvs", RequiresAuth: true}},
	{"GET /cvs/{cvId}/details", pageMeta{Name: "cvDetails", RequiresAuth: true}},
	{"GET /cvs/{cvId}/skills", pageMeta{Name: "cvSkills", RequiresAuth: true}},
	{"GET /cvs/{cvId}/projects", pageMeta{Name: "cvProjects", RequiresAuth: true}},
	{"GET /cvs/{cvId}/preview", pageMeta{Name: "cvPreview", RequiresAuth: true}},
	{"GET /departments", pageMeta{Name: "departments", RequiresAuth: true}},
	{"GET /positions", pageMeta{Name: "positions", RequiresAuth: true}},
	{"GET /skills", pageMeta{Name: "skills", RequiresAuth: true}},
	{"GET /languages", pageMeta{Name: "languages", RequiresAuth: true}},
	{"/", pageMeta{Name: "notFound", NotFound: true}},
}

type gateDecision int

const (
	gateProceed gateDecision = iota
	gateToSignIn
	gateToLanding
)

// decide is the navigation rule: not-found pages always render, protected pages need a
// session, public pages bounce signed-in users to the landing page.
func decide(meta pageMeta, authenticated bool) gateDecision {
	switch {
	case meta.NotFound:
		return gateProceed
	case meta.RequiresAuth && !authenticated:
		return gateToSignIn
	case !meta.RequiresAuth && authenticated:
		return gateToLanding
	default:
		return gateProceed
	}
}

// NavigationGate guards one page route. Unauthenticated visits to protected pages queue the
// localized "unauthorized" toast and go to sign-in.
func NavigationGate(meta pageMeta, signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := requireSession(w, r)
			if !ok {
				return
			}
			switch decide(meta, s.Guard.IsAuthenticated()) {
			case gateToSignIn:
				s.Guard.NotifyUnauthorized(r.Context())
				redirect(w, r, signInPath)
			case gateToLanding:
				redirect(w, r, LandingPath)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// registerPageRoutes wires the gated page table, the router's root redirects and the shell.
func registerPageRoutes(mux *http.ServeMux, shell *shellHandler, signInPath string) {
	for _, p := range pageRoutes {
		status := http.StatusOK
		if p.Meta.NotFound {
			status = http.StatusNotFound
		}
		mux.Handle(p.Pattern, NavigationGate(p.Meta, signInPath)(shell.withStatus(status)))
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LandingPath, http.StatusFound)
	})
	mux.HandleFunc("GET /users/{userId}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/users/"+r.PathValue("userId")+"/profile", http.StatusFound)
	})
	mux.HandleFunc("GET /cvs/{cvId}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cvs/"+r.PathValue("cvId")+"/details", http.StatusFound)
	})
}

// shellHandler serves the SPA entry document.
type shellHandler struct {
	index []byte
}

func newShellHandler(web fs.FS) (*shellHandler, error) {
	index, err := fs.ReadFile(web, "index.html")
	if err != nil {
		return nil, err
	}
	return &shellHandler{index: index}, nil
}

func (h *shellHandler) withStatus(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := bytes.NewReader(h.index).WriteTo(w); err != nil {
			return
		}
	})
}

// staticHandler serves shell assets with cache headers.
func staticHandler(web fs.FS) (http.Handler, error) {
	sub, err := fs.Sub(web, "static")
	if err != nil {
		return nil, err
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(sub)))), nil
}

//nolint:gochecknoglobals // compiled once
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches content-hashed assets for a year and revalidates the rest.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
