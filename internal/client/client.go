// Package client provides a JSON client for the advice backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/adviser/internal/metrics"
)

// slowRequestThreshold is the duration above which calls are logged at WARN level.
const slowRequestThreshold = 5 * time.Second

// ErrMalformedResponse indicates a success response whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the human-readable text extracted from the body's "detail" field.
	Detail    string
	HasDetail bool
}

func (e *APIError) Error() string {
	if e.HasDetail {
		return fmt.Sprintf("server error: %d %s - %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unauthorized reports whether the backend rejected the credentials (401).
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Client talks to the advice backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	stats      *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMetrics records every call in the collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.stats = m }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
// A zero timeout means requests only end with their context.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// credentials is the request payload for signup and login.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the success payload of signup and login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// askRequest is the request payload for /ask.
type askRequest struct {
	Question string `json:"question"`
}

// Answer is the success payload of /ask.
type Answer struct {
	Category string   `json:"category"`
	Advice   string   `json:"advice"`
	Sources  []string `json:"sources,omitempty"`
}

// Signup registers a new account and returns its access token.
func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, metrics.OpSignup, "/auth/signup", email, password)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, metrics.OpLogin, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, op, path, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.post(ctx, op, path, "", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}
	return resp.AccessToken, nil
}

// Ask submits a question. The bearer token is attached only when non-empty.
func (c *Client) Ask(ctx context.Context, token, question string) (*Answer, error) {
	var ans Answer
	if err := c.post(ctx, metrics.OpAsk, "/ask", token, askRequest{Question: question}, &ans); err != nil {
		return nil, err
	}
	if ans.Category == "" {
		return nil, fmt.Errorf("%w: missing category", ErrMalformedResponse)
	}
	return &ans, nil
}

// post sends a JSON POST and decodes a 2xx body into result.
func (c *Client) post(ctx context.Context, op, path, token string, payload, result any) (err error) {
	start := time.Now()
	defer func() { c.stats.Record(op, time.Since(start), err) }()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	duration := time.Since(start)
	attrs := []any{
		"op", op,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", duration.Milliseconds(),
	}
	if duration > slowRequestThreshold {
		c.logger.Warn("slow backend call", attrs...)
	} else {
		c.logger.Debug("backend call", attrs...)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, ok := ParseDetail(body)
		return &APIError{StatusCode: resp.StatusCode, Detail: detail, HasDetail: ok}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ParseDetail extracts the "detail" field of an error body.
// A string is returned as-is; a list of validation items is flattened to each
// item's msg (or type, or its JSON) joined by " | ".
func ParseDetail(body []byte) (string, bool) {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s, s != ""
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload.Detail, &items); err != nil {
		return "", false
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, detailItem(item))
	}
	joined := strings.Join(parts, " | ")
	return joined, joined != ""
}

func detailItem(item json.RawMessage) string {
	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err == nil {
		for _, field := range []string{"msg", "type"} {
			if v, ok := obj[field].(string); ok && v != "" {
				return v
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, item); err != nil {
		return string(item)
	}
	return buf.String()
}
