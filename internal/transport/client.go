// Package transport issues authenticated HTTP requests to a UCP merchant
// and maps response status codes onto the typed error taxonomy in model.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dunglas/httpsfv"
	"github.com/google/uuid"

	"ucp-agent/internal/model"
)

// ProtocolVersion is the UCP protocol version this agent speaks,
// a calendar date per the UCP versioning scheme.
const ProtocolVersion = "2026-01-11"

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultAgentName identifies this agent in the UCP-Agent header.
const DefaultAgentName = "go-ucp-agent"

// maxErrorBody caps how much of an error response body we read.
const maxErrorBody = 1 << 20

// Config holds client configuration.
type Config struct {
	MerchantURL string        // Base URL of the UCP merchant server (required)
	AgentName   string        // Agent name for the UCP-Agent header
	Timeout     time.Duration // Per-request timeout
	BrowserTLS  bool          // Present a browser TLS fingerprint to the merchant
	Logger      *slog.Logger  // Structured logger; nil discards
}

// Client is an HTTP client for UCP-compliant merchants. It owns one lazily
// created persistent connection pool, reused across requests until Close.
//
// Every request carries the UCP protocol headers: agent identity, a signature
// placeholder, a fresh request id, and an idempotency key. Idempotency keys
// are generated per call and never reused automatically - callers that need
// retry-safety must supply a stable key via WithIdempotencyKey.
type Client struct {
	merchantURL string
	agentName   string
	agentHeader string
	timeout     time.Duration
	browserTLS  bool
	logger      *slog.Logger

	mu   sync.Mutex
	http *http.Client
}

// New creates a client for the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.MerchantURL == "" {
		return nil, fmt.Errorf("merchant URL is required")
	}
	if cfg.AgentName == "" {
		cfg.AgentName = DefaultAgentName
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	agentHeader, err := buildAgentHeader(cfg.AgentName, ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("building UCP-Agent header: %w", err)
	}

	return &Client{
		merchantURL: strings.TrimSuffix(cfg.MerchantURL, "/"),
		agentName:   cfg.AgentName,
		agentHeader: agentHeader,
		timeout:     cfg.Timeout,
		browserTLS:  cfg.BrowserTLS,
		logger:      cfg.Logger,
	}, nil
}

// buildAgentHeader serializes the agent identity as an RFC 8941 item with a
// version parameter: `agent-name;version="2026-01-11"`.
func buildAgentHeader(name, version string) (string, error) {
	item := httpsfv.NewItem(httpsfv.Token(name))
	item.Params.Add("version", version)
	return httpsfv.Marshal(item)
}

// httpClient lazily creates the underlying HTTP client.
func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
		if c.browserTLS {
			// Chrome TLS fingerprint avoids JA3-based rate limiting on
			// CDN-fronted merchants. See browser.go.
			c.http.Transport = NewBrowserTransport(c.timeout)
		}
	}
	return c.http
}

// Close releases the persistent connections. Callers must invoke it on
// shutdown; cleanup is not tied to finalization.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey pins the Idempotency-Key header for this call.
// Without it, every call gets a fresh key.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.idempotencyKey = key
	}
}

// Do issues one request and decodes the 2xx JSON response into out.
// Non-2xx responses are classified into the typed errors in model; out may be
// nil when the caller does not need the body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	url := c.merchantURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, o.idempotencyKey)

	c.logger.Debug("ucp request", slog.String("method", method), slog.String("url", url))

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &model.ProtocolError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("ucp response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.ProtocolError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decoding response: %v", err),
		}
	}
	return nil
}

// setHeaders applies the UCP protocol headers to a request.
func (c *Client) setHeaders(req *http.Request, idempotencyKey string) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("UCP-Agent", c.agentHeader)
	req.Header.Set("Request-Signature", "dummy-signature")
	req.Header.Set("Request-Id", uuid.NewString())
	req.Header.Set("Idempotency-Key", idempotencyKey)
}

// errorBody is the shape of error responses we understand. Detail is either
// a bare message string or a list of field problems (422).
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// classifyError maps a non-2xx response to the typed error taxonomy.
// A body that is not JSON degrades to its raw text as the message.
func classifyError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed errorBody
	decodeOK := json.Unmarshal(raw, &parsed) == nil

	message := parsed.Message
	if message == "" && decodeOK && len(parsed.Detail) > 0 {
		var s string
		if json.Unmarshal(parsed.Detail, &s) == nil {
			message = s
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = "unknown error"
	}

	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		if decodeOK && len(parsed.Detail) > 0 {
			var details []fieldDetail
			if json.Unmarshal(parsed.Detail, &details) == nil && len(details) > 0 {
				fieldErrs := make([]model.FieldError, 0, len(details))
				for _, d := range details {
					fieldErrs = append(fieldErrs, model.FieldError{
						Field:   joinLoc(d.Loc),
						Message: d.Msg,
					})
				}
				return &model.ValidationError{
					Message:     fmt.Sprintf("invalid request: %d field(s) have errors", len(fieldErrs)),
					FieldErrors: fieldErrs,
				}
			}
		}
		return &model.ValidationError{Message: message}

	case http.StatusNotFound:
		return &model.NotFoundError{Message: message, StatusCode: resp.StatusCode}

	case http.StatusBadRequest:
		return &model.RequestError{Message: message, StatusCode: resp.StatusCode}

	default:
		return &model.ProtocolError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Body:       string(raw),
		}
	}
}

// joinLoc dot-joins a detail location path. Segments may be strings or
// numeric indexes.
func joinLoc(loc []any) string {
	if len(loc) == 0 {
		return "unknown"
	}
	parts := make([]string, len(loc))
	for i, seg := range loc {
		switch v := seg.(type) {
		case string:
			parts[i] = v
		case float64:
			parts[i] = fmt.Sprintf("%d", int(v))
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ".")
}
