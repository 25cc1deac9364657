package omdb

import "errors"

// Sentinel errors returned by Client. Callers branch on these to choose a
// user-facing reply: ErrNotFound triggers the movie-to-series fallback, while
// ErrQuotaExceeded produces the fixed retry-tomorrow message.
var (
	// ErrNotFound indicates the provider answered but knows no matching title.
	ErrNotFound = errors.New("omdb: title not found")

	// ErrQuotaExceeded indicates the shared daily request budget is spent.
	// No upstream call was made.
	ErrQuotaExceeded = errors.New("omdb: daily request quota exceeded")
)
