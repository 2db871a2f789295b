package extract

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// readabilityPass runs the readability algorithm over the raw document. It
// is the rescue step when the selector strategies produce text that fails
// the quality gate: some layouts defeat class-based heuristics but still
// parse cleanly as an article.
func readabilityPass(body []byte, pageURL string) (title, text string, err error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", "", fmt.Errorf("readability extraction failed: %w", err)
	}

	return article.Title, article.TextContent, nil
}
