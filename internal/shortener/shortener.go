// Package shortener wraps the link-shortening service used for poster URLs.
// Shortening is best effort: any failure falls back to the original URL so a
// reply never loses its poster link.
package shortener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client calls the shortening API. A Client with an empty API key is valid
// and passes URLs through unchanged.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient constructs a shortener client.
func NewClient(baseURL, apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   httpc,
	}
}

// Enabled reports whether shortening is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Shorten returns a shortened form of longURL, or longURL itself when
// shortening is disabled or the service misbehaves.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if !c.Enabled() || strings.TrimSpace(longURL) == "" || longURL == "N/A" {
		return longURL
	}

	q := url.Values{}
	q.Set("api", c.apiKey)
	q.Set("url", longURL)
	q.Set("format", "text")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("shortener: build request")
		return longURL
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("shortener: request failed")
		return longURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("shortener: non-200 response")
		return longURL
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		log.Warn().Err(err).Msg("shortener: read response")
		return longURL
	}
	short := strings.TrimSpace(string(body))
	if short == "" || !strings.HasPrefix(short, "http") {
		log.Warn().Str("body", fmt.Sprintf("%.64s", short)).Msg("shortener: unusable response")
		return longURL
	}
	return short
}
