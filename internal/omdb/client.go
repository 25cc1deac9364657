// Package omdb is the metadata provider client. Every upstream call first
// consults the response cache and then the shared daily quota guard, so
// cache hits are free and quota is only spent on real network requests.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-movie-bot/internal/cache"
	"github.com/tbourn/go-movie-bot/internal/quota"
)

// Client queries the metadata provider with caching and quota enforcement.
type Client struct {
	baseURL *url.URL
	apiKey  string
	httpc   *http.Client
	guard   *quota.Guard
	titles  *cache.Cache[Title]
	seasons *cache.Cache[Season]
}

// NewClient constructs a provider client. The quota guard is shared across
// the whole process; ttl controls how long successful lookups are reused.
func NewClient(baseURL, apiKey string, httpc *http.Client, guard *quota.Guard, ttl time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: parsed,
		apiKey:  apiKey,
		httpc:   httpc,
		guard:   guard,
		titles:  cache.New[Title](ttl),
		seasons: cache.New[Season](ttl),
	}, nil
}

// LookupMovie fetches metadata for a movie by title.
func (c *Client) LookupMovie(ctx context.Context, title string) (Title, error) {
	return c.lookupTitle(ctx, title, TypeMovie, cache.MovieKey(title))
}

// LookupSeries fetches metadata for a series by title.
func (c *Client) LookupSeries(ctx context.Context, title string) (Title, error) {
	return c.lookupTitle(ctx, title, TypeSeries, cache.SeriesKey(title))
}

func (c *Client) lookupTitle(ctx context.Context, title, mediaType, key string) (Title, error) {
	tr := otel.Tracer("omdb/Client")
	ctx, span := tr.Start(ctx, "LookupTitle",
		trace.WithAttributes(
			attribute.String("omdb.title", title),
			attribute.String("omdb.type", mediaType),
		),
	)
	defer span.End()

	if t, ok := c.titles.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return t, nil
	}

	var t Title
	err := c.get(ctx, map[string]string{"t": title, "type": mediaType}, &t)
	if err != nil {
		return Title{}, err
	}
	if !strings.EqualFold(t.Response, "True") {
		if isNotFound(t.Error) {
			return Title{}, ErrNotFound
		}
		return Title{}, fmt.Errorf("omdb: provider error: %s", t.Error)
	}
	// Only found responses are cached; misses stay cheap to retry once the
	// user fixes a typo.
	c.titles.Set(key, t)
	return t, nil
}

// LookupSeason resolves a series by title and fetches one season's episode
// listing. Both the series record and the season listing are cached.
func (c *Client) LookupSeason(ctx context.Context, seriesTitle string, season int) (Season, error) {
	tr := otel.Tracer("omdb/Client")
	ctx, span := tr.Start(ctx, "LookupSeason",
		trace.WithAttributes(
			attribute.String("omdb.title", seriesTitle),
			attribute.Int("omdb.season", season),
		),
	)
	defer span.End()

	series, err := c.LookupSeries(ctx, seriesTitle)
	if err != nil {
		return Season{}, err
	}

	key := cache.SeasonKey(series.ImdbID, season)
	if s, ok := c.seasons.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s, nil
	}

	var s Season
	err = c.get(ctx, map[string]string{"i": series.ImdbID, "Season": fmt.Sprintf("%d", season)}, &s)
	if err != nil {
		return Season{}, err
	}
	if !strings.EqualFold(s.Response, "True") {
		if isNotFound(s.Error) {
			return Season{}, ErrNotFound
		}
		return Season{}, fmt.Errorf("omdb: provider error: %s", s.Error)
	}
	if s.Title == "" {
		s.Title = series.Title
	}
	c.seasons.Set(key, s)
	return s, nil
}

// SearchByGenre runs a keyword search for the given genre and media type.
// Results are not cached here; the recommendation engine keeps its own
// longer-lived cache on top.
func (c *Client) SearchByGenre(ctx context.Context, genre, mediaType string) ([]SearchItem, error) {
	tr := otel.Tracer("omdb/Client")
	ctx, span := tr.Start(ctx, "SearchByGenre",
		trace.WithAttributes(
			attribute.String("omdb.genre", genre),
			attribute.String("omdb.type", mediaType),
		),
	)
	defer span.End()

	var page searchPage
	err := c.get(ctx, map[string]string{"s": genre, "type": mediaType}, &page)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(page.Response, "True") {
		if isNotFound(page.Error) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("omdb: provider error: %s", page.Error)
	}
	if len(page.Search) == 0 {
		return nil, ErrNotFound
	}
	return page.Search, nil
}

// QuotaSnapshot exposes current quota consumption for the /stats command.
func (c *Client) QuotaSnapshot() quota.Snapshot { return c.guard.Snapshot() }

// CacheLen reports how many responses are currently cached.
func (c *Client) CacheLen() int { return c.titles.Len() + c.seasons.Len() }

// ClearCache drops every cached response and returns the number removed.
func (c *Client) ClearCache() int { return c.titles.Clear() + c.seasons.Clear() }

// get performs one quota-guarded provider request and decodes the JSON body
// into out. The quota slot is claimed before the request and is spent even
// when the provider reports a miss.
func (c *Client) get(ctx context.Context, params map[string]string, out any) error {
	if !c.guard.TryConsume() {
		return ErrQuotaExceeded
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	endpoint := *c.baseURL
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("omdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("omdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("omdb returned non-200")
		return fmt.Errorf("omdb: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("omdb: decode response: %w", err)
	}
	return nil
}

// isNotFound matches the provider's miss messages, such as
// "Movie not found!" and "Series or episode not found!".
func isNotFound(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}
