package remote

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

	"github.com/google/uuid"
	"github.com/ledgerline/sync-agent/internal/auth"
	"go.uber.org/zap"
)

// Error is the single rejection shape every failed backend call is normalized
// to: transport failures, non-2xx statuses, unparseable bodies, and
// server-reported business errors all surface as *Error. HTTPStatus is zero
// when no response was received.
type Error struct {
	Message    string
	HTTPStatus int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.HTTPStatus)
	}
	return e.Message
}

// Envelope is the standard backend response wrapper
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config holds remote client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client wraps the HTTP transport to the accounting backend. It attaches the
// JSON content type and, on mutating methods, the CSRF token header. Callers
// surface failures through a Notifier; the client itself never notifies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenProvider
	logger     *zap.Logger
}

// NewClient creates a new backend client
func NewClient(cfg Config, tokens auth.TokenProvider, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// Send issues a request and returns the parsed JSON body on HTTP 2xx. Every
// other outcome is a *Error. No retry, no backoff: a failed request surfaces
// directly to the caller.
func (c *Client) Send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if method != http.MethodGet {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("authentication token unavailable: %v", err)}
		}
		req.Header.Set("X-CSRFToken", token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, &Error{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read response: %v", err), HTTPStatus: resp.StatusCode}
	}

	c.logger.Debug("Backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Message:    fmt.Sprintf("backend returned %s", resp.Status),
			HTTPStatus: resp.StatusCode,
		}
	}

	if !json.Valid(data) {
		return nil, &Error{Message: "backend returned malformed JSON", HTTPStatus: resp.StatusCode}
	}

	return json.RawMessage(data), nil
}

// Get issues a GET request with optional query parameters
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.Send(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Send(ctx, http.MethodPost, path, body)
}

// CheckSuccess decodes the standard envelope and converts a
// {"success":false} business rejection into a *Error carrying the
// server-supplied message.
func CheckSuccess(raw json.RawMessage) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "backend rejected the request"
		}
		return &Error{Message: message}
	}
	return nil
}
