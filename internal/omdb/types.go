package omdb

import "strings"

// Media type values accepted by the provider's "type" query parameter.
const (
	TypeMovie  = "movie"
	TypeSeries = "series"
)

// Title is a full metadata record for one movie or series.
type Title struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Genres splits the comma-separated Genre field into individual names.
func (t Title) Genres() []string {
	if strings.TrimSpace(t.Genre) == "" {
		return nil
	}
	parts := strings.Split(t.Genre, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Episode is one entry in a season listing.
type Episode struct {
	Title      string `json:"Title"`
	Released   string `json:"Released"`
	Episode    string `json:"Episode"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
}

// Season is the provider's season listing for a series.
type Season struct {
	Title        string    `json:"Title"`
	Season       string    `json:"Season"`
	TotalSeasons string    `json:"totalSeasons"`
	Episodes     []Episode `json:"Episodes"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// SearchItem is one row of a title search result.
type SearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type searchPage struct {
	Search       []SearchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}
