package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError is a non-2xx response from the MedConnect backend. Detail carries
// the backend-provided message verbatim when the body had one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
}

// IsAuthFailure reports whether the backend rejected the credentials.
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Client wraps the MedConnect REST backend. All persistence and business
// rules live behind it; the portal only forwards requests and interprets
// responses.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. baseURL is injectable so tests can
// point it at an httptest server.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// do issues one JSON request. token is attached as a bearer credential when
// non-empty; out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("request_time", time.Since(startTime)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeError extracts the backend's detail message from an error body.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err == nil && len(data) > 0 {
		var body struct {
			Detail string `json:"detail"`
		}
		if jsonErr := json.Unmarshal(data, &body); jsonErr == nil && body.Detail != "" {
			apiErr.Detail = body.Detail
		}
	}

	c.logger.Warn("backend returned error response",
		zap.Int("status_code", resp.StatusCode),
		zap.String("detail", apiErr.Detail),
	)

	return apiErr
}
