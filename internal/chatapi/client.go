package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"duet/internal/logging"

	"go.uber.org/zap"
)

// ErrNotObject is returned when a 2xx body does not start a JSON object.
var ErrNotObject = errors.New("chat response is not a JSON object")

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.Code, e.Body)
}

// Client posts user messages to the chat endpoint. It makes exactly one
// attempt per Send.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets an overall request timeout. Zero leaves the http.Client's
// own timeout in charge. The timeout is applied to a copy, so a client passed
// to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given endpoint URL, e.g.
// "http://127.0.0.1:8000/api/chat".
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Send posts message and decodes the reply. Transport errors, non-2xx
// statuses and bodies that are not exactly one JSON object are all returned
// as errors.
func (c *Client) Send(ctx context.Context, message string) (*Response, error) {
	body, err := json.Marshal(Request{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	timer := logging.StartTimer(c.logger, "chat request")
	resp, err := c.httpClient.Do(req)
	timer.StopWithThreshold(30 * time.Second)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: errorDetail(raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}
	out, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("chat reply received",
		zap.Bool("answer", out.HasAnswer()),
		zap.Bool("check", out.HasCheck()))

	return out, nil
}

// decodeResponse accepts a single JSON object and nothing else: null, arrays,
// scalars and trailing data are rejected.
func decodeResponse(raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("failed to decode chat response: %w", ErrNotObject)
	}
	var out Response
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &out, nil
}

// errorDetail extracts the backend's "detail" field when present, otherwise
// returns the trimmed raw body.
func errorDetail(raw []byte) string {
	var eb ErrorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return strings.TrimSpace(string(raw))
}
