package extract

import (
	"errors"
	"time"
)

// Meta holds the optional page metadata collected from meta tags and
// OpenGraph properties. Every field may be empty.
type Meta struct {
	Description   string `json:"description,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Type          string `json:"type,omitempty"`
	SiteName      string `json:"siteName,omitempty"`
	Canonical     string `json:"canonical,omitempty"`
}

// ExtractedContent is the cleaned textual content of one page. Text always
// satisfies the configured length bounds; a page whose text cannot be
// brought within them is rejected, never patched.
type ExtractedContent struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	Markdown       string    `json:"markdown,omitempty"`
	Meta           Meta      `json:"meta"`
	ExtractedAt    time.Time `json:"extractedAt"`
	WordCount      int       `json:"wordCount"`
	Language       string    `json:"language"`
	IsLargePage    bool      `json:"isLargePage"`
	IsSearchResult bool      `json:"isSearchResult"`
}

// ErrPageRejected marks page-local extraction failures: bad status, wrong
// content type, or content below the quality gate. The scrape loop catches
// it and skips the page.
var ErrPageRejected = errors.New("page rejected")
