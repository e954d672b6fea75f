// Package scrape is the HTTP client for the external scrape endpoint.
//
// The endpoint accepts POST {"identifier": "..."} and answers with the
// per-platform blocks decoded by core.ScrapeResponse. A non-2xx answer that
// still carries a JSON body is a backend rejection and is returned as a
// response; anything that yields no decodable body is a network failure.
package scrape

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

	"github.com/JonMunkholm/MenuEditor/internal/core"
)

// DefaultMaxResponseBytes caps the response body when no limit is set.
const DefaultMaxResponseBytes int64 = 64 << 20

// ErrResponseTooLarge is returned when the body exceeds the configured cap.
var ErrResponseTooLarge = errors.New("scrape response too large")

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds one request. Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// MaxResponseBytes caps the decoded body. Zero means DefaultMaxResponseBytes.
	MaxResponseBytes int64

	// HTTP is the transport. Defaults to a fresh *http.Client.
	HTTP HTTPClient
}

// Client calls the scrape endpoint. It implements core.Scraper.
type Client struct {
	url      string
	timeout  time.Duration
	maxBytes int64
	http     HTTPClient
}

var _ core.Scraper = (*Client)(nil)

// NewClient creates a client for the endpoint at url.
func NewClient(url string, opts Options) *Client {
	c := &Client{
		url:      url,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxResponseBytes,
		http:     opts.HTTP,
	}
	if c.maxBytes <= 0 {
		c.maxBytes = DefaultMaxResponseBytes
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

type scrapeRequest struct {
	Identifier string `json:"identifier"`
}

// Scrape posts identifier and decodes the response.
func (c *Client) Scrape(ctx context.Context, identifier string) (*core.ScrapeResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(scrapeRequest{Identifier: identifier})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", core.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", core.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", core.ErrNetwork, err)
	}
	if int64(len(raw)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %w (limit %d bytes)", core.ErrNetwork, ErrResponseTooLarge, c.maxBytes)
	}

	var out core.ScrapeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response (HTTP %d): %w", core.ErrNetwork, resp.StatusCode, err)
	}
	out.OK = resp.StatusCode >= 200 && resp.StatusCode < 300

	slog.Debug("scrape response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"blocks", len(out.Blocks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &out, nil
}
