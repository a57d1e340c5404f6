package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/cvboard/admin/internal/adapters/backend"
	"github.com/cvboard/admin/internal/adapters/graphql"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
	"github.com/cvboard/admin/internal/remote"
	"github.com/cvboard/admin/internal/service"
)

// BackendHandlers proxies data operations to the GraphQL backend with the session's credentials.
type BackendHandlers struct {
	Transport remote.Transport
	Metrics   ports.Metrics
	Errors    errorRenderer
	Logger    *slog.Logger
}

func (h *BackendHandlers) caller(s *RequestSession) *remote.Caller {
	opts := []remote.Option{}
	if h.Metrics != nil {
		opts = append(opts, remote.WithMetrics(h.Metrics))
	}
	if h.Logger != nil {
		opts = append(opts, remote.WithLogger(h.Logger))
	}
	return remote.NewCaller(h.Transport, s.Guard, opts...)
}

// passthroughRequest accepts the envelope GraphQL clients send; extensions are dropped.
type passthroughRequest struct {
	graphql.Request
	Extensions json.RawMessage `json:"extensions,omitempty"`
}

// GraphQL handles POST /api/graphql for the SPA's entity operations.
func (h *BackendHandlers) GraphQL(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in passthroughRequest
	if !DecodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Query) == "" {
		h.Errors.render(w, r, apperrors.New(apperrors.KindBadInputData, "query is required"))
		return
	}
	if slices.Contains(backend.ExemptOperations, in.OperationName) {
		// Token-minting operations must go through /api/auth so the cookies get set.
		h.Errors.render(w, r, apperrors.New(apperrors.KindBadInputData, in.OperationName+" is not proxied"))
		return
	}

	resp, err := h.caller(s).Execute(r.Context(), in.Request)
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, resp.Raw)
}

// User handles GET /api/users/{userId}.
func (h *BackendHandlers) User(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := service.CheckUserID(r.PathValue("userId"))
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	data, err := backend.UserByID(r.Context(), h.caller(s), id)
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

// Cv handles GET /api/cvs/{cvId}.
func (h *BackendHandlers) Cv(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := service.CheckCvID(r.PathValue("cvId"))
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	data, err := backend.CvByID(r.Context(), h.caller(s), id)
	if err != nil {
		h.Errors.render(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}
