package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"pesquisa/ratelimit"
	"pesquisa/search"
)

// blockedDomains are platforms known to block automated access; probing
// them wastes the budget.
var blockedDomains = map[string]struct{}{
	"facebook.com":  {},
	"twitter.com":   {},
	"x.com":         {},
	"instagram.com": {},
	"linkedin.com":  {},
	"tiktok.com":    {},
	"youtube.com":   {},
	"pinterest.com": {},
	"reddit.com":    {},
}

// Config carries the extraction tunables.
type Config struct {
	MaxPages         int
	ProbeTimeout     time.Duration
	FetchTimeout     time.Duration
	MaxRedirects     int
	MaxBodyBytes     int64
	StreamCapBytes   int64
	LargePageBytes   int
	MaxContentLength int
	MinQualityLength int
	MinJitter        time.Duration
	MaxJitter        time.Duration
	ContentCacheTTL  time.Duration
}

// ContentExtractor validates candidate URLs and turns fetched pages into
// clean ExtractedContent records.
type ContentExtractor struct {
	cfg     Config
	fetcher *Fetcher
	limiter *ratelimit.Limiter
	cache   *contentCache
	logger  *zap.Logger
}

// NewContentExtractor wires an extractor. limiter bounds the validation
// probes; page fetches are sequential by design.
func NewContentExtractor(cfg Config, limiter *ratelimit.Limiter, logger *zap.Logger) *ContentExtractor {
	return &ContentExtractor{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.FetchTimeout, cfg.ProbeTimeout, cfg.MaxRedirects, cfg.MaxBodyBytes, cfg.StreamCapBytes, logger),
		limiter: limiter,
		cache:   newContentCache(cfg.ContentCacheTTL),
		logger:  logger,
	}
}

// ValidateURLs probes the candidates concurrently and returns the subset
// judged fetchable, preserving input order. The probe is advisory: 4xx
// responses keep the URL, genuine network failures drop it.
func (e *ContentExtractor) ValidateURLs(ctx context.Context, urls []string) []string {
	keep := make([]bool, len(urls))
	var wg sync.WaitGroup
	for i, candidate := range urls {
		wg.Add(1)
		go func(i int, candidate string) {
			defer wg.Done()
			keep[i] = e.validate(ctx, candidate)
		}(i, candidate)
	}
	wg.Wait()

	var validated []string
	for i, ok := range keep {
		if ok {
			validated = append(validated, urls[i])
		}
	}
	e.logger.Info("url validation completed",
		zap.Int("candidates", len(urls)),
		zap.Int("validated", len(validated)))
	return validated
}

func (e *ContentExtractor) validate(ctx context.Context, candidate string) bool {
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false
	}
	domain := search.Domain(parsed)
	if _, blocked := blockedDomains[domain]; blocked {
		return false
	}

	var outcome ProbeOutcome
	err = e.limiter.Execute(ctx, func(ctx context.Context) error {
		outcome = e.fetcher.Probe(ctx, candidate)
		return nil
	})
	if err != nil {
		return false
	}
	if outcome == ProbeFailed {
		e.logger.Debug("probe failed, dropping url", zap.String("url", candidate))
		return false
	}
	return true
}

// ScrapeURLs fetches pages sequentially, up to the page cap, with a
// randomized delay between fetches. A failing page is logged and skipped;
// the returned order is a stable sub-sequence of the input order.
func (e *ContentExtractor) ScrapeURLs(ctx context.Context, urls []string) []*ExtractedContent {
	var contents []*ExtractedContent
	fetched := false
	for _, pageURL := range urls {
		if len(contents) >= e.cfg.MaxPages {
			break
		}
		if cached := e.cache.get(pageURL); cached != nil {
			e.logger.Debug("content cache hit", zap.String("url", pageURL))
			contents = append(contents, cached)
			continue
		}

		if fetched {
			if err := e.jitter(ctx); err != nil {
				break
			}
		}
		fetched = true

		content, err := e.Extract(ctx, pageURL)
		if err != nil {
			e.logger.Warn("page extraction failed, skipping",
				zap.String("url", pageURL),
				zap.String("class", classifyError(err)),
				zap.Error(err))
			continue
		}
		e.cache.put(pageURL, content)
		contents = append(contents, content)
	}
	return contents
}

// Extract fetches one page and produces its cleaned content, or a page
// rejection error.
func (e *ContentExtractor) Extract(ctx context.Context, pageURL string) (*ExtractedContent, error) {
	res, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	isLarge := len(res.Body) > e.cfg.LargePageBytes

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable html: %v", ErrPageRejected, err)
	}

	og := parseOpenGraph(res.Body)
	title := extractTitle(doc, og)
	meta := extractMeta(doc, og)

	stripNonContent(doc)

	var rawText, strategy string
	var sel *goquery.Selection
	if isLarge {
		rawText, sel, strategy = selectLargePage(doc)
	} else {
		sel, strategy = selectContent(doc)
		rawText = sel.Text()
	}

	text := CleanText(rawText, e.cfg.MaxContentLength)
	if qualityErr := checkQuality(text, e.cfg.MinQualityLength); qualityErr != nil {
		rescued, rescueErr := e.rescue(res.Body, pageURL, &title)
		if rescueErr != nil {
			return nil, qualityErr
		}
		text = rescued
		strategy = "readability"
		sel = nil
	}

	content := &ExtractedContent{
		URL:         pageURL,
		Title:       title,
		Text:        text,
		Markdown:    renderMarkdown(sel),
		Meta:        meta,
		ExtractedAt: time.Now(),
		WordCount:   len(splitWords(text)),
		Language:    detectLanguage(text),
		IsLargePage: isLarge,
	}

	e.logger.Info("page extracted",
		zap.String("url", pageURL),
		zap.String("strategy", strategy),
		zap.Int("text_length", len(content.Text)),
		zap.Int("word_count", content.WordCount),
		zap.String("language", content.Language),
		zap.Bool("large_page", isLarge),
		zap.Bool("truncated", res.Truncated))

	return content, nil
}

// rescue runs the readability pass and re-applies cleaning and the quality
// gate to its output.
func (e *ContentExtractor) rescue(body []byte, pageURL string, title *string) (string, error) {
	rescTitle, rescText, err := readabilityPass(body, pageURL)
	if err != nil {
		return "", err
	}
	text := CleanText(rescText, e.cfg.MaxContentLength)
	if err := checkQuality(text, e.cfg.MinQualityLength); err != nil {
		return "", err
	}
	if *title == "" {
		*title = rescTitle
	}
	return text, nil
}

// FromSnippet synthesizes a degraded content record straight from a search
// result, used when scraping yields nothing at all.
func FromSnippet(result search.SearchResult) *ExtractedContent {
	text := strings.TrimSpace(result.Title + ". " + result.Snippet)
	return &ExtractedContent{
		URL:            result.URL,
		Title:          result.Title,
		Text:           text,
		ExtractedAt:    time.Now(),
		WordCount:      len(splitWords(text)),
		Language:       detectLanguage(text),
		IsSearchResult: true,
	}
}

func (e *ContentExtractor) jitter(ctx context.Context) error {
	span := e.cfg.MaxJitter - e.cfg.MinJitter
	delay := e.cfg.MinJitter
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrPageRejected):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "fetch_error"
	}
}
