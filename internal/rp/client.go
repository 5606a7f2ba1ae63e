package rp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"lightcheck/internal/logging"
)

const userAgent = "lightcheck-rp"

// Client talks to the reporting API of one Report Portal instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// Option adjusts a Client in New.
type Option func(*Client) error

// New returns a Client for the instance at baseURL, authenticating with a
// bearer token (an API key from the user profile page).
func New(baseURL, bearerToken string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("rp: baseURL is required")
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   bearerToken,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}
	return c, nil
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.http = hc
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("rp: negative timeout %s", d)
		}
		c.timeout = d
		return nil
	}
}

// doJSON sends body (if any) as JSON and decodes a 2xx reply into dst.
// Any other status becomes an *APIError.
func (c *Client) doJSON(ctx context.Context, method, url, operation string, body, dst any) error {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	c.log.DebugContext(ctx, "rp call", "op", operation, "method", method, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode/100 != 2 {
		return decodeError(operation, resp)
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// decodeError prefers the ErrorRS body and falls back to the raw text.
func decodeError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var rs ErrorRS
	if json.Unmarshal(raw, &rs) == nil && rs.Message != "" {
		return newAPIError(operation, resp.StatusCode, rs.ErrorCode, rs.Message)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return newAPIError(operation, resp.StatusCode, 0, msg)
}

// ReadAPIKey returns the first line of a token file, trimmed.
func ReadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	key, _, _ := strings.Cut(string(data), "\n")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("rp: token file %s is empty", path)
	}
	return key, nil
}
