// Package graphql is a minimal client for the backend's single GraphQL endpoint.
//
// The client only moves envelopes: it posts {operationName, query, variables},
// trips a circuit breaker on transport failures, and surfaces the first GraphQL
// error message as a RemoteError. Classification into error kinds happens in
// the caller.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"

	apperrors "github.com/cvboard/admin/internal/errors"
)

const (
	errorMessageExpr = "errors[0].message"
	maxResponseBytes = 8 << 20
)

// Request is one GraphQL operation.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// RemoteError carries the message the backend reported for a failed operation.
type RemoteError struct {
	Operation string
	Status    int
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("graphql %s: %s", e.Operation, e.Message)
}

// BackendMessage exposes the raw server message to the error classifier.
func (e *RemoteError) BackendMessage() string { return e.Message }

// Response is a decoded GraphQL envelope.
type Response struct {
	Raw      []byte
	document any
}

// ParseResponse decodes a raw GraphQL envelope.
func ParseResponse(raw []byte) (*Response, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &Response{Raw: raw, document: doc}, nil
}

// Field evaluates a JMESPath expression rooted at the envelope's data member.
func (r *Response) Field(path string) (any, error) {
	return jmespath.Search("data."+path, r.document)
}

// Decode extracts data.<path> into dst.
func (r *Response) Decode(path string, dst any) error {
	v, err := r.Field(path)
	if err != nil {
		return fmt.Errorf("search data.%s: %w", path, err)
	}
	if v == nil {
		return fmt.Errorf("data.%s: %w", path, errMissingField)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal data.%s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode data.%s: %w", path, err)
	}
	return nil
}

var errMissingField = errors.New("field missing from response")

// BreakerSettings tunes the circuit breaker around the backend transport.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Breaker    BreakerSettings
	Logger     *slog.Logger
}

// Client posts operations to the backend.
type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("graphql endpoint is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	failures := opts.Breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graphql-backend",
		MaxRequests: opts.Breaker.MaxRequests,
		Interval:    opts.Breaker.Interval,
		Timeout:     opts.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Backend-reported errors mean the backend is up.
		IsSuccessful: func(err error) bool {
			var remote *RemoteError
			return err == nil || errors.As(err, &remote)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{endpoint: opts.Endpoint, http: hc, breaker: cb, logger: logger}, nil
}

// Do sends the request. A non-nil tok is attached as the Authorization header.
func (c *Client) Do(ctx context.Context, req Request, tok *oauth2.Token) (*Response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req, tok)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.Wrap(err, apperrors.KindNoNetworkConnection)
		}
		return nil, err
	}
	resp, _ := out.(*Response)
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request, tok *oauth2.Token) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", req.OperationName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if tok != nil {
		tok.SetAuthHeader(httpReq)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", req.OperationName, err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.OperationName, err)
	}

	if res.StatusCode == http.StatusUnauthorized {
		return nil, &RemoteError{Operation: req.OperationName, Status: res.StatusCode, Message: "Unauthorized"}
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("post %s: backend status %d", req.OperationName, res.StatusCode)
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s (status %d): %w", req.OperationName, res.StatusCode, err)
	}

	if msg, _ := jmespath.Search(errorMessageExpr, resp.document); msg != nil {
		s, _ := msg.(string)
		return nil, &RemoteError{Operation: req.OperationName, Status: res.StatusCode, Message: s}
	}

	return resp, nil
}
