package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pesquisa/ai"
	"pesquisa/cache"
	"pesquisa/extract"
	"pesquisa/search"
)

// Source is one citation in the final result, in scrape order.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Result is the structured outcome of one pipeline run. The pipeline always
// returns one, even when every stage failed.
type Result struct {
	RunID      string    `json:"runId"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	Sources    []Source  `json:"sources"`
	Confidence float64   `json:"confidence"`
	FromCache  bool      `json:"fromCache"`
	Degraded   bool      `json:"degraded"`
	Elapsed    string    `json:"elapsed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Searcher runs a set of queries against the search pipeline.
type Searcher interface {
	Search(ctx context.Context, queries []string) ([]search.SearchResult, error)
}

// Extractor validates and scrapes candidate URLs.
type Extractor interface {
	ValidateURLs(ctx context.Context, urls []string) []string
	ScrapeURLs(ctx context.Context, urls []string) []*extract.ExtractedContent
}

const sourceSummaryMax = 2000

// Pipeline sequences cache lookup, query analysis, search, extraction, and
// synthesis for one natural-language query.
type Pipeline struct {
	analyzer    ai.QueryAnalyzer
	keywords    ai.KeywordGenerator
	synthesizer ai.ContentSynthesizer
	searcher    Searcher
	extractor   Extractor
	results     *cache.ResultCache
	maxQueries  int
	logger      *zap.Logger
}

func New(
	analyzer ai.QueryAnalyzer,
	keywords ai.KeywordGenerator,
	synthesizer ai.ContentSynthesizer,
	searcher Searcher,
	extractor Extractor,
	results *cache.ResultCache,
	maxQueries int,
	logger *zap.Logger,
) *Pipeline {
	if maxQueries < 1 {
		maxQueries = 4
	}
	return &Pipeline{
		analyzer:    analyzer,
		keywords:    keywords,
		synthesizer: synthesizer,
		searcher:    searcher,
		extractor:   extractor,
		results:     results,
		maxQueries:  maxQueries,
		logger:      logger,
	}
}

// Run executes the full pipeline. It never panics or returns an error past
// this boundary: any failure produces a degraded, structured result.
func (p *Pipeline) Run(ctx context.Context, query string) (result *Result) {
	runID := uuid.NewString()
	started := time.Now()
	query = strings.TrimSpace(query)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered",
				zap.String("run_id", runID),
				zap.Any("panic", r))
			result = p.degraded(runID, query, started,
				"Ocorreu um erro interno ao processar a consulta. Tente novamente.")
		}
	}()

	if query == "" {
		return p.degraded(runID, query, started, "A consulta está vazia. Informe o que deseja pesquisar.")
	}

	if cached := p.lookupCache(runID, query, started); cached != nil {
		return cached
	}

	analysis, err := p.analyzer.Analyze(ctx, query)
	if err != nil {
		p.logger.Error("query analysis failed", zap.String("run_id", runID), zap.Error(err))
		return p.degraded(runID, query, started,
			fmt.Sprintf("Não foi possível analisar a consulta %q.", query))
	}

	keywords, err := p.keywords.Generate(ctx, analysis.MainTopic)
	if err != nil {
		// Keywords only enrich the fan-out; the main topic still searches.
		p.logger.Warn("keyword generation failed", zap.String("run_id", runID), zap.Error(err))
		keywords = nil
	}

	queries := search.BuildQueries(analysis, keywords, p.maxQueries)
	p.logger.Info("queries built",
		zap.String("run_id", runID),
		zap.Strings("queries", queries),
		zap.String("intent", analysis.IntentType))

	results, err := p.searcher.Search(ctx, queries)
	if err != nil {
		if errors.Is(err, search.ErrNoResults) {
			return p.degraded(runID, query, started,
				fmt.Sprintf("Nenhum resultado encontrado para %q. Tente reformular a consulta.", query))
		}
		p.logger.Error("search failed", zap.String("run_id", runID), zap.Error(err))
		return p.degraded(runID, query, started,
			"A busca falhou por um erro temporário. Tente novamente em instantes.")
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	validated := p.extractor.ValidateURLs(ctx, urls)
	contents := p.extractor.ScrapeURLs(ctx, validated)

	if len(contents) == 0 {
		p.logger.Warn("scraping yielded nothing, falling back to snippets",
			zap.String("run_id", runID))
		contents = snippetFallback(results)
	}
	if len(contents) == 0 {
		return p.degraded(runID, query, started,
			fmt.Sprintf("Nenhuma página pôde ser lida para %q.", query))
	}

	summaries := make([]ai.SourceSummary, 0, len(contents))
	for _, c := range contents {
		summaries = append(summaries, ai.SourceSummary{
			URL:     c.URL,
			Title:   c.Title,
			Summary: capString(c.Text, sourceSummaryMax),
		})
	}

	synthesis, err := p.synthesizer.Synthesize(ctx, summaries, query)
	if err != nil {
		p.logger.Error("synthesis failed", zap.String("run_id", runID), zap.Error(err))
		return p.degraded(runID, query, started,
			"O conteúdo foi coletado, mas a síntese da resposta falhou.")
	}

	result = &Result{
		RunID:      runID,
		Query:      query,
		Response:   synthesis.Response,
		Sources:    toSources(synthesis.Sources),
		Confidence: synthesis.Confidence,
		Elapsed:    time.Since(started).String(),
		Timestamp:  time.Now(),
	}

	if err := p.results.Set(query, result); err != nil {
		// Cache failures never fail the run.
		p.logger.Warn("cache write failed", zap.String("run_id", runID), zap.Error(err))
	}

	p.logger.Info("pipeline completed",
		zap.String("run_id", runID),
		zap.Int("sources", len(result.Sources)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(started)))

	return result
}

func (p *Pipeline) lookupCache(runID, query string, started time.Time) *Result {
	entry := p.results.Get(query)
	if entry == nil {
		return nil
	}
	var cached Result
	if err := json.Unmarshal(entry.Payload, &cached); err != nil {
		// A corrupt entry is just a miss.
		p.logger.Warn("cache entry unreadable", zap.String("run_id", runID), zap.Error(err))
		return nil
	}
	p.logger.Info("cache hit", zap.String("run_id", runID), zap.String("query", entry.Query))
	cached.RunID = runID
	cached.FromCache = true
	cached.Elapsed = time.Since(started).String()
	return &cached
}

// snippetFallback synthesizes degraded content records from the search
// results themselves when every scrape failed.
func snippetFallback(results []search.SearchResult) []*extract.ExtractedContent {
	var contents []*extract.ExtractedContent
	for _, r := range results {
		if strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		contents = append(contents, extract.FromSnippet(r))
	}
	return contents
}

func (p *Pipeline) degraded(runID, query string, started time.Time, response string) *Result {
	return &Result{
		RunID:      runID,
		Query:      query,
		Response:   response,
		Sources:    []Source{},
		Confidence: 0,
		Degraded:   true,
		Elapsed:    time.Since(started).String(),
		Timestamp:  time.Now(),
	}
}

func toSources(summaries []ai.SourceSummary) []Source {
	sources := make([]Source, 0, len(summaries))
	for _, s := range summaries {
		sources = append(sources, Source{URL: s.URL, Title: s.Title})
	}
	return sources
}

func capString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
