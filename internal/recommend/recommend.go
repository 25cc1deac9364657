// Package recommend derives "similar title" lists by fanning out per-genre
// searches against the metadata provider. Subject-based recommendations are
// cached for a day; genre-based ones (the guided dialog path) are not.
package recommend

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-bot/internal/cache"
	"github.com/tbourn/go-movie-bot/internal/omdb"
)

// MaxResults caps every recommendation list.
const MaxResults = 5

// Provider is the slice of the metadata client the engine needs.
type Provider interface {
	LookupMovie(ctx context.Context, title string) (omdb.Title, error)
	LookupSeries(ctx context.Context, title string) (omdb.Title, error)
	SearchByGenre(ctx context.Context, genre, mediaType string) ([]omdb.SearchItem, error)
}

// Engine computes recommendation lists.
type Engine struct {
	provider Provider
	cache    *cache.Cache[[]string]
	shuffle  func([]string)
}

// NewEngine constructs an engine whose subject-keyed results live for ttl.
func NewEngine(p Provider, ttl time.Duration) *Engine {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		provider: p,
		cache:    cache.New[[]string](ttl),
		shuffle: func(s []string) {
			rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

// SetShuffle overrides the randomization step. Intended for tests.
func (e *Engine) SetShuffle(fn func([]string)) { e.shuffle = fn }

// Recommend returns up to MaxResults titles similar to the subject. The
// subject itself never appears in the output. A subject without genre data
// yields an empty list, which is a valid outcome rather than an error.
func (e *Engine) Recommend(ctx context.Context, title, mediaType string) ([]string, error) {
	key := cache.RecommendKey(mediaType, title)
	if hit, ok := e.cache.Get(key); ok {
		return append([]string(nil), hit...), nil
	}

	subject, err := e.lookupSubject(ctx, title, mediaType)
	if err != nil {
		return nil, err
	}
	genres := subject.Genres()
	if len(genres) == 0 {
		e.cache.Set(key, []string{})
		return nil, nil
	}

	seen := map[string]struct{}{strings.ToLower(subject.Title): {}}
	var pool []string
	for _, g := range genres {
		items, err := e.provider.SearchByGenre(ctx, g, mediaType)
		if err != nil {
			if errors.Is(err, omdb.ErrQuotaExceeded) {
				return nil, err
			}
			// A genre whose search fails just contributes nothing.
			log.Debug().Err(err).Str("genre", g).Msg("recommend: genre search failed")
			continue
		}
		for _, it := range items {
			k := strings.ToLower(it.Title)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			pool = append(pool, it.Title)
		}
	}

	e.shuffle(pool)
	if len(pool) > MaxResults {
		pool = pool[:MaxResults]
	}
	e.cache.Set(key, pool)
	return append([]string(nil), pool...), nil
}

// ByGenre samples up to MaxResults titles for one genre. Used by the guided
// dialog; results are keyed by subject elsewhere, so this path stays uncached.
func (e *Engine) ByGenre(ctx context.Context, genre, mediaType string) ([]string, error) {
	items, err := e.provider.SearchByGenre(ctx, genre, mediaType)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(items))
	var pool []string
	for _, it := range items {
		k := strings.ToLower(it.Title)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		pool = append(pool, it.Title)
	}
	e.shuffle(pool)
	if len(pool) > MaxResults {
		pool = pool[:MaxResults]
	}
	return pool, nil
}

func (e *Engine) lookupSubject(ctx context.Context, title, mediaType string) (omdb.Title, error) {
	if mediaType == omdb.TypeSeries {
		return e.provider.LookupSeries(ctx, title)
	}
	return e.provider.LookupMovie(ctx, title)
}
