// Package portal is the HTTP client for the customer portal backend.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/tracing"
)

// SessionCookie is the cookie the backend reads the access token from.
const SessionCookie = "access_token_cookie"

// Client talks to the portal backend. It is safe for concurrent use.
type Client struct {
	apiBase  string
	dataBase string
	http     *http.Client
	tracer   trace.Tracer
	validate *validator.Validate

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client. apiBase serves /api/auth and /api/user,
// dataBase serves /account-data and /get-quote-pdf.
func NewClient(apiBase, dataBase string, opts ...Option) *Client {
	c := &Client{
		apiBase:  strings.TrimRight(apiBase, "/"),
		dataBase: strings.TrimRight(dataBase, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		tracer:   noop.NewTracerProvider().Tracer(tracing.ServiceName),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// request describes one backend call.
type request struct {
	op     string
	method string
	url    string
	body   any
}

// send performs req and returns the response for a 2xx status.
// The caller closes the body. Cancellation surfaces as the context error.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	u, err := url.Parse(req.url)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	ctx, span := tracing.StartRequest(ctx, c.tracer, req.op, req.method, u.Path)
	requestID := uuid.NewString()
	span.SetAttributes(attribute.String(tracing.AttrRequestID, requestID))

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			tracing.EndRequest(span, 0, err)
			return nil, fmt.Errorf("encode %s body: %w", req.op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		tracing.EndRequest(span, 0, err)
		return nil, fmt.Errorf("build %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		httpReq.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			tracing.EndRequest(span, 0, ctxErr)
			log.Debug(log.CatHTTP, "Request canceled", "op", req.op, "request_id", requestID)
			return nil, ctxErr
		}
		fe := &FetchError{Message: "Network error: " + rootCause(err).Error(), Err: err}
		tracing.EndRequest(span, 0, fe)
		log.ErrorErr(log.CatHTTP, "Request failed", err, "op", req.op, "request_id", requestID)
		return nil, fe
	}

	log.Debug(log.CatHTTP, "Response",
		"op", req.op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		fe := errorFromBody(resp.StatusCode, data)
		tracing.EndRequest(span, resp.StatusCode, fe)
		log.Warn(log.CatHTTP, "Backend error", "op", req.op, "status", resp.StatusCode, "message", fe.Message)
		return nil, fe
	}

	tracing.EndRequest(span, resp.StatusCode, nil)
	return resp, nil
}

// sendJSON performs req and decodes a 2xx JSON body into out (which may be nil).
func (c *Client) sendJSON(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &FetchError{Status: resp.StatusCode, Message: "Invalid response from server", Err: err}
	}
	return nil
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
