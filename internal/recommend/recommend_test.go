package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tbourn/go-movie-bot/internal/omdb"
)

// fakeProvider serves canned titles and genre pages, counting upstream calls.
type fakeProvider struct {
	titles      map[string]omdb.Title
	genrePages  map[string][]omdb.SearchItem
	genreErr    error
	lookupCalls int
	searchCalls int
}

func (f *fakeProvider) LookupMovie(_ context.Context, title string) (omdb.Title, error) {
	f.lookupCalls++
	t, ok := f.titles[title]
	if !ok {
		return omdb.Title{}, omdb.ErrNotFound
	}
	return t, nil
}

func (f *fakeProvider) LookupSeries(ctx context.Context, title string) (omdb.Title, error) {
	return f.LookupMovie(ctx, title)
}

func (f *fakeProvider) SearchByGenre(_ context.Context, genre, _ string) ([]omdb.SearchItem, error) {
	f.searchCalls++
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	items, ok := f.genrePages[genre]
	if !ok {
		return nil, omdb.ErrNotFound
	}
	return items, nil
}

func newEngine(p Provider) *Engine {
	e := NewEngine(p, time.Hour)
	e.SetShuffle(func([]string) {}) // deterministic order for assertions
	return e
}

func TestRecommend_ExcludesSubjectAndDedupes(t *testing.T) {
	fp := &fakeProvider{
		titles: map[string]omdb.Title{
			"Alien": {Title: "Alien", Genre: "Horror, Sci-Fi", Response: "True"},
		},
		genrePages: map[string][]omdb.SearchItem{
			"Horror": {{Title: "Alien"}, {Title: "The Thing"}, {Title: "Halloween"}},
			"Sci-Fi": {{Title: "The Thing"}, {Title: "Blade Runner"}},
		},
	}
	e := newEngine(fp)

	got, err := e.Recommend(context.Background(), "Alien", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []string{"The Thing", "Halloween", "Blade Runner"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Recommend = %v, want %v", got, want)
	}
	for _, title := range got {
		if title == "Alien" {
			t.Fatalf("subject leaked into recommendations: %v", got)
		}
	}
}

func TestRecommend_TruncatesToFive(t *testing.T) {
	fp := &fakeProvider{
		titles: map[string]omdb.Title{
			"Alien": {Title: "Alien", Genre: "Horror", Response: "True"},
		},
		genrePages: map[string][]omdb.SearchItem{
			"Horror": {
				{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"},
				{Title: "E"}, {Title: "F"}, {Title: "G"},
			},
		},
	}
	e := newEngine(fp)
	got, err := e.Recommend(context.Background(), "Alien", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) != MaxResults {
		t.Fatalf("len = %d, want %d", len(got), MaxResults)
	}
}

func TestRecommend_CacheHitSkipsUpstream(t *testing.T) {
	fp := &fakeProvider{
		titles: map[string]omdb.Title{
			"Alien": {Title: "Alien", Genre: "Horror", Response: "True"},
		},
		genrePages: map[string][]omdb.SearchItem{
			"Horror": {{Title: "The Thing"}},
		},
	}
	e := newEngine(fp)

	first, err := e.Recommend(context.Background(), "Alien", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	lookups, searches := fp.lookupCalls, fp.searchCalls

	second, err := e.Recommend(context.Background(), "Alien", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("cached Recommend: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached result differs: %v vs %v", first, second)
	}
	if fp.lookupCalls != lookups || fp.searchCalls != searches {
		t.Fatalf("cache hit still reached upstream (lookups %d->%d, searches %d->%d)",
			lookups, fp.lookupCalls, searches, fp.searchCalls)
	}
}

func TestRecommend_NoGenresIsEmptyNotError(t *testing.T) {
	fp := &fakeProvider{
		titles: map[string]omdb.Title{
			"Mystery Tape": {Title: "Mystery Tape", Response: "True"},
		},
	}
	e := newEngine(fp)
	got, err := e.Recommend(context.Background(), "Mystery Tape", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recommend = %v, want empty", got)
	}
}

func TestRecommend_QuotaErrorPropagates(t *testing.T) {
	fp := &fakeProvider{
		titles: map[string]omdb.Title{
			"Alien": {Title: "Alien", Genre: "Horror", Response: "True"},
		},
		genreErr: omdb.ErrQuotaExceeded,
	}
	e := newEngine(fp)
	if _, err := e.Recommend(context.Background(), "Alien", omdb.TypeMovie); !errors.Is(err, omdb.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestRecommend_UnknownSubjectSurfacesNotFound(t *testing.T) {
	e := newEngine(&fakeProvider{})
	if _, err := e.Recommend(context.Background(), "zzzznotarealtitle123", omdb.TypeMovie); !errors.Is(err, omdb.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestByGenre_SamplesWithoutCaching(t *testing.T) {
	fp := &fakeProvider{
		genrePages: map[string][]omdb.SearchItem{
			"Comedy": {{Title: "Airplane!"}, {Title: "Airplane!"}, {Title: "The Naked Gun"}},
		},
	}
	e := newEngine(fp)

	got, err := e.ByGenre(context.Background(), "Comedy", omdb.TypeMovie)
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	want := []string{"Airplane!", "The Naked Gun"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ByGenre = %v, want %v", got, want)
	}

	// Each call reaches upstream again.
	if _, err := e.ByGenre(context.Background(), "Comedy", omdb.TypeMovie); err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	if fp.searchCalls != 2 {
		t.Fatalf("searchCalls = %d, want 2", fp.searchCalls)
	}
}
