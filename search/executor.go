package search

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"pesquisa/ratelimit"
)

const titleSimilarityThreshold = 0.9

// excludedDomains are hosts never worth scraping: platforms that block
// automated access plus known hard paywalls.
var excludedDomains = map[string]struct{}{
	"facebook.com":  {},
	"twitter.com":   {},
	"x.com":         {},
	"instagram.com": {},
	"linkedin.com":  {},
	"tiktok.com":    {},
	"youtube.com":   {},
	"pinterest.com": {},
	"reddit.com":    {},
	"wsj.com":       {},
	"ft.com":        {},
	"economist.com": {},
	"bloomberg.com": {},
}

// ExecutorConfig carries the tunables for one Executor.
type ExecutorConfig struct {
	MaxResults    int
	PerDomainCap  int
	RetryAttempts int
	RetryBaseWait time.Duration
}

// Executor fans a set of queries out to the search API, then merges,
// filters, deduplicates, scores, and ranks the organic results.
type Executor struct {
	client  Client
	limiter *ratelimit.Limiter
	cfg     ExecutorConfig
	logger  *zap.Logger
}

func NewExecutor(client Client, limiter *ratelimit.Limiter, cfg ExecutorConfig, logger *zap.Logger) *Executor {
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 5
	}
	if cfg.PerDomainCap < 1 {
		cfg.PerDomainCap = 2
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseWait <= 0 {
		cfg.RetryBaseWait = 500 * time.Millisecond
	}
	return &Executor{client: client, limiter: limiter, cfg: cfg, logger: logger}
}

// Search runs every query through a rate-limited, retried API call. A
// failing query is logged and skipped; only zero usable results across all
// queries is surfaced, as ErrNoResults.
func (e *Executor) Search(ctx context.Context, queries []string) ([]SearchResult, error) {
	var merged []RawResult
	for _, query := range queries {
		var raws []RawResult
		err := ratelimit.Retry(ctx, e.cfg.RetryAttempts, e.cfg.RetryBaseWait, func(ctx context.Context) error {
			return e.limiter.Execute(ctx, func(ctx context.Context) error {
				var callErr error
				raws, callErr = e.client.Search(ctx, query)
				return callErr
			})
		})
		if err != nil {
			e.logger.Warn("search query failed, skipping",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		e.logger.Info("search query completed",
			zap.String("query", query),
			zap.Int("results", len(raws)))
		merged = append(merged, raws...)
	}

	results := e.rank(e.score(e.dedupe(e.filter(merged))))
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

// filter drops results without a resolvable domain, on the exclusion list,
// with a non-HTTP(S) scheme, or pointing straight at a PDF.
func (e *Executor) filter(raws []RawResult) []SearchResult {
	var kept []SearchResult
	for _, raw := range raws {
		parsed, err := url.Parse(strings.TrimSpace(raw.Link))
		if err != nil {
			continue
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			continue
		}
		domain := Domain(parsed)
		if domain == "" {
			continue
		}
		if _, excluded := excludedDomains[domain]; excluded {
			continue
		}
		if strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf") {
			continue
		}
		kept = append(kept, SearchResult{
			Title:   strings.TrimSpace(raw.Title),
			URL:     parsed.String(),
			Snippet: strings.TrimSpace(raw.Snippet),
			Domain:  domain,
		})
	}
	return kept
}

// dedupe processes results in order, dropping any whose domain already hit
// the per-domain cap, whose title is near-identical to a kept result, or
// whose URL was already kept.
func (e *Executor) dedupe(results []SearchResult) []SearchResult {
	var kept []SearchResult
	domainCounts := make(map[string]int)
	seenURLs := make(map[string]struct{})

	for _, candidate := range results {
		if domainCounts[candidate.Domain] >= e.cfg.PerDomainCap {
			continue
		}
		if _, dup := seenURLs[candidate.URL]; dup {
			continue
		}
		similar := false
		for _, existing := range kept {
			if TitleSimilarity(candidate.Title, existing.Title) > titleSimilarityThreshold {
				similar = true
				break
			}
		}
		if similar {
			continue
		}
		domainCounts[candidate.Domain]++
		seenURLs[candidate.URL] = struct{}{}
		kept = append(kept, candidate)
	}
	return kept
}

func (e *Executor) score(results []SearchResult) []SearchResult {
	for i := range results {
		results[i].Score = Score(results[i])
	}
	return results
}

func (e *Executor) rank(results []SearchResult) []SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > e.cfg.MaxResults {
		results = results[:e.cfg.MaxResults]
	}
	return results
}

// Score is a pure function of the result's domain suffix, protocol, and
// title/snippet lengths. Domain tiers are mutually exclusive, in this
// precedence: edu/gov, org, wiki-named.
func Score(r SearchResult) int {
	score := 0
	switch {
	case strings.HasSuffix(r.Domain, ".edu") || strings.HasSuffix(r.Domain, ".gov") ||
		strings.Contains(r.Domain, ".edu.") || strings.Contains(r.Domain, ".gov."):
		score += 30
	case strings.HasSuffix(r.Domain, ".org"):
		score += 20
	case strings.Contains(r.Domain, "wiki"):
		score += 25
	}

	if strings.HasPrefix(r.URL, "https://") {
		score += 10
	}

	titleBonus := len(r.Title) / 2
	if titleBonus > 20 {
		titleBonus = 20
	}
	score += titleBonus

	snippetBonus := len(r.Snippet) / 20
	if snippetBonus > 15 {
		snippetBonus = 15
	}
	score += snippetBonus

	return score
}

// Domain extracts the bare host of u, without a www prefix.
func Domain(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
