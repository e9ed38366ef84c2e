// Package client provides the API client for the lead automation backend.
//
// The client wraps the REST endpoints used to supervise remote jobs:
//   - Starting, polling and stopping the lead-scraping job
//   - Starting and polling the messaging job
//   - Resolving the Google Sheets OAuth link and lead counter
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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/leadpilot/pilot/internal/buildinfo"
)

const (
	// DefaultBaseURL is the default backend endpoint.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4096

// Client is the backend API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is returned when the backend answers with an unexpected status.
type APIError struct {
	Operation  string
	StatusCode int
	// Detail is the FastAPI "detail" field when the body carried one.
	Detail string
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}

	if msg == "" {
		return fmt.Sprintf("%s failed with status %d", e.Operation, e.StatusCode)
	}

	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, msg)
}

// New creates a new API client with an instrumented transport.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{
		Timeout:   DefaultTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewWithHTTPClient creates a client using the provided HTTP client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     slog.Default(),
	}
}

// WithTimeout overrides the HTTP request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}

	return c
}

// WithLogger sets the logger used for request diagnostics.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}

	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pilot/"+buildinfo.Version)

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			slog.String("http.method", req.Method),
			slog.String("http.path", req.URL.Path),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	c.logger.Debug("backend request",
		slog.String("http.method", req.Method),
		slog.String("http.path", req.URL.Path),
		slog.Int("http.status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	return resp, nil
}

// getJSON performs a GET and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path, operation string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(operation, resp.StatusCode, resp.Body)
	}

	return decodeJSON(resp.Body, out, "failed to parse "+operation+" response")
}

// postJSON performs a POST with an optional JSON body and decodes a 2xx response into out.
func (c *Client) postJSON(ctx context.Context, path, operation string, in, out any) error {
	var body io.Reader = emptyJSONBody()

	if in != nil {
		jsonBody, err := encodeJSON(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(jsonBody)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return unexpectedStatus(operation, resp.StatusCode, resp.Body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return decodeJSON(resp.Body, out, "failed to parse "+operation+" response")
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeJSON(r io.Reader, out any, errPrefix string) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty body", errPrefix)
		}

		return fmt.Errorf("%s: %w", errPrefix, err)
	}

	return nil
}

func emptyJSONBody() io.Reader {
	return bytes.NewReader([]byte(`{}`))
}

// unexpectedStatus creates an APIError from an unexpected HTTP status code.
func unexpectedStatus(operation string, statusCode int, body io.Reader) error {
	respBody, readErr := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if readErr != nil {
		return &APIError{Operation: operation, StatusCode: statusCode}
	}

	apiErr := &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}

	var detail struct {
		Detail any `json:"detail"`
	}

	if json.Unmarshal(respBody, &detail) == nil {
		switch d := detail.Detail.(type) {
		case string:
			apiErr.Detail = d
		case nil:
		default:
			// FastAPI validation errors carry a list of objects.
			if encoded, err := json.Marshal(d); err == nil {
				apiErr.Detail = string(encoded)
			}
		}
	}

	return apiErr
}
