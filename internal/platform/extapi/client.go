package extapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

// DefaultTimeout bounds every outbound call. There is no automatic retry.
const DefaultTimeout = 3 * time.Second

const maxLoggedBody = 2000

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client performs single JSON requests against one external service rooted at
// <base>/api/. It never interprets status codes; that is left to the caller.
type Client struct {
	service    string
	log        *logger.Logger
	root       string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
}

// New builds a Client. httpClient may be nil; when given, its Timeout is
// replaced by cfg.Timeout.
func New(log *logger.Logger, service string, cfg Config, httpClient *http.Client) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s: base url required", service)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	hc := *httpClient
	hc.Timeout = cfg.Timeout
	return &Client{
		service:    service,
		log:        log.With("upstream", service),
		root:       APIRoot(cfg.BaseURL),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &hc,
		tracer:     otel.Tracer("edlm-portal/extapi"),
	}, nil
}

// APIRoot normalizes a configured base URL so that it ends in "/api/".
func APIRoot(base string) string {
	base = strings.TrimSpace(base)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if !strings.HasSuffix(base, "api/") {
		base += "api/"
	}
	return base
}

func (c *Client) Service() string { return c.service }

// URL joins path onto the API root.
func (c *Client) URL(path string) string {
	return c.root + strings.TrimLeft(path, "/")
}

type Response struct {
	StatusCode int
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty body")
	}
	return json.Unmarshal(r.Body, v)
}

// Snippet returns a bounded copy of the body for logs and error messages.
func (r *Response) Snippet() string {
	if r == nil {
		return ""
	}
	s := strings.TrimSpace(string(r.Body))
	if len(s) > maxLoggedBody {
		s = s[:maxLoggedBody] + "..."
	}
	return s
}

// Do sends one request. Transport failures, including the timeout, come back
// as KindUpstreamUnavailable; any HTTP status is returned to the caller.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, body any) (*Response, error) {
	ctx, span := c.tracer.Start(ctxutil.Default(ctx), c.service+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", c.service),
			attribute.String("http.request.method", method),
		),
	)
	defer span.End()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, NewError(KindPreconditionFailed, c.service, op, 0, "encode request", err)
		}
		rdr = bytes.NewReader(raw)
	}

	target := c.URL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, NewError(KindPreconditionFailed, c.service, op, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-Id", td.RequestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		observability.Current().ObserveUpstream(c.service, op, string(KindUpstreamUnavailable), time.Since(start))
		c.log.Warn("external request failed",
			"op", op,
			"method", method,
			"path", path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return nil, NewError(KindUpstreamUnavailable, c.service, op, 0, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, NewError(KindUpstreamUnavailable, c.service, op, resp.StatusCode, "read response", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	observability.Current().ObserveUpstream(c.service, op, fmt.Sprintf("%dxx", resp.StatusCode/100), time.Since(start))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	c.log.Debug("external request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// Unexpected builds the error for a status the caller has no rule for.
func (c *Client) Unexpected(op string, resp *Response) *Error {
	c.log.Error("unexpected response", "op", op, "status", resp.StatusCode, "body", resp.Snippet())
	return NewError(KindUpstreamUnavailable, c.service, op, resp.StatusCode, "unexpected status", nil)
}
