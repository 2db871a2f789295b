package search

import (
	"context"
	"errors"
)

// RawResult is one organic entry as returned by the search API, before any
// filtering or scoring.
type RawResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchResult is a filtered, scored organic result. Immutable once scored.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
	Score   int    `json:"score"`
}

// Client issues a single search-API call for one query.
type Client interface {
	Search(ctx context.Context, query string) ([]RawResult, error)
}

// ErrNoResults signals that the full search pipeline produced zero usable
// results for every query.
var ErrNoResults = errors.New("no usable search results")
