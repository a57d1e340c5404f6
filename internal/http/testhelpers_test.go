package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"

	"github.com/cvboard/admin/internal/adapters/graphql"
	"github.com/cvboard/admin/internal/adapters/memstore"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/i18n"
	"github.com/cvboard/admin/internal/mocks"
	mockauth "github.com/cvboard/admin/internal/mocks/auth"
	"github.com/cvboard/admin/internal/service"
	"github.com/cvboard/admin/internal/testutil"
)

const testSessionID = "7d3c2a8e-4c1b-4f5e-9a0b-1c2d3e4f5a6b"

const testShell = `<!doctype html><div id="app"></div>`

// fakeTransport records outbound backend operations.
type fakeTransport struct {
	mu    sync.Mutex
	reqs  []graphql.Request
	toks  []*oauth2.Token
	raw   string
	err   error
	delay time.Duration
}

func (f *fakeTransport) Do(_ context.Context, req graphql.Request, tok *oauth2.Token) (*graphql.Response, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.toks = append(f.toks, tok)
	raw, err := f.raw, f.err
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if raw == "" {
		raw = `{"data":{}}`
	}
	return graphql.ParseResponse([]byte(raw))
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type routerFixture struct {
	api       *mocks.MockAuthAPI
	store     *memstore.Store
	clock     *mockauth.Clock
	transport *fakeTransport
	metrics   *mockauth.RecordingMetrics
	handler   http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &routerFixture{
		api:       mocks.NewMockAuthAPI(ctrl),
		clock:     mockauth.NewClock(testutil.TestTime()),
		transport: &fakeTransport{},
		metrics:   &mockauth.RecordingMetrics{},
	}
	f.store = memstore.New(f.clock.Now)

	catalog, err := i18n.New(i18n.Options{Supported: []string{"en", "de", "ru"}, Default: "en"})
	require.NoError(t, err)

	svc := service.NewAuthService(service.AuthServiceOptions{
		API:        f.api,
		Sessions:   f.store,
		Notifier:   f.store,
		Translator: catalog,
		Metrics:    f.metrics,
	})

	f.handler, err = NewRouter(RouterServices{
		Auth:    svc,
		Backend: f.transport,
		Catalog: catalog,
		Metrics: f.metrics,
		Web: fstest.MapFS{
			"index.html":    {Data: []byte(testShell)},
			"static/app.js": {Data: []byte(`console.log("ok")`)},
		},
		Now: f.clock.Now,
	})
	require.NoError(t, err)
	return f
}

// token issues a token for user 1 that expires after ttl.
func (f *routerFixture) token(ttl time.Duration) string {
	now := f.clock.Now()
	return mockauth.IssueToken(1, domainauth.RoleEmployee, now, now.Add(ttl))
}

// request builds a request bound to the test session.
func (f *routerFixture) request(method, path string, body any, cookies ...*http.Cookie) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: testSessionID})
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func (f *routerFixture) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func bearerCookie(kind domainauth.TokenKind, tok string) *http.Cookie {
	return &http.Cookie{Name: kind.String(), Value: "Bearer " + tok}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
