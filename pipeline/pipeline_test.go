package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pesquisa/ai"
	"pesquisa/cache"
	"pesquisa/extract"
	"pesquisa/search"
)

type stubSearcher struct {
	results []search.SearchResult
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, queries []string) ([]search.SearchResult, error) {
	s.queries = queries
	return s.results, s.err
}

type stubExtractor struct {
	contents  []*extract.ExtractedContent
	validated []string
	panicking bool
}

func (s *stubExtractor) ValidateURLs(ctx context.Context, urls []string) []string {
	if s.panicking {
		panic("boom")
	}
	if s.validated != nil {
		return s.validated
	}
	return urls
}

func (s *stubExtractor) ScrapeURLs(ctx context.Context, urls []string) []*extract.ExtractedContent {
	return s.contents
}

func newTestPipeline(t *testing.T, searcher Searcher, extractor Extractor) (*Pipeline, *cache.ResultCache) {
	t.Helper()
	results, err := cache.NewResultCache(time.Hour, 10, "", nil)
	require.NoError(t, err)

	logger := zap.NewNop()
	p := New(
		ai.NewAnalyzer(nil, logger),
		ai.NewKeyworder(nil, logger),
		ai.NewSynthesizer(nil, logger),
		searcher,
		extractor,
		results,
		4,
		logger,
	)
	return p, results
}

func someResults() []search.SearchResult {
	return []search.SearchResult{
		{Title: "Energia solar cresce", URL: "https://example.org/a", Snippet: "A energia solar cresceu bastante no Brasil.", Domain: "example.org", Score: 40},
		{Title: "Painéis em alta", URL: "https://example.com/b", Snippet: "Os painéis ficaram mais acessíveis.", Domain: "example.com", Score: 30},
	}
}

func someContents() []*extract.ExtractedContent {
	return []*extract.ExtractedContent{
		{URL: "https://example.org/a", Title: "Energia solar cresce", Text: "A energia solar cresceu bastante no Brasil. O setor segue em expansão.", WordCount: 12, Language: "pt"},
	}
}

func TestRunHappyPath(t *testing.T) {
	searcher := &stubSearcher{results: someResults()}
	p, _ := newTestPipeline(t, searcher, &stubExtractor{contents: someContents()})

	result := p.Run(context.Background(), "energia solar")

	require.NotNil(t, result)
	assert.False(t, result.Degraded)
	assert.False(t, result.FromCache)
	assert.NotEmpty(t, result.Response)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "https://example.org/a", result.Sources[0].URL)
	assert.Greater(t, result.Confidence, 0.0)
	assert.Contains(t, searcher.queries, "energia solar")
}

func TestRunCacheHitShortCircuits(t *testing.T) {
	searcher := &stubSearcher{results: someResults()}
	p, _ := newTestPipeline(t, searcher, &stubExtractor{contents: someContents()})

	first := p.Run(context.Background(), "energia solar")
	require.False(t, first.FromCache)

	searcher.results = nil
	searcher.err = search.ErrNoResults
	second := p.Run(context.Background(), "  Energia Solar ")

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestRunNoResultsIsDegradedNotError(t *testing.T) {
	p, _ := newTestPipeline(t, &stubSearcher{err: search.ErrNoResults}, &stubExtractor{})

	result := p.Run(context.Background(), "consulta sem resultados")

	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Sources)
	assert.Zero(t, result.Confidence)
	assert.NotEmpty(t, result.Response)
}

func TestRunSnippetFallbackWhenScrapeYieldsNothing(t *testing.T) {
	p, _ := newTestPipeline(t, &stubSearcher{results: someResults()}, &stubExtractor{contents: nil})

	result := p.Run(context.Background(), "energia solar")

	assert.False(t, result.Degraded)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "https://example.org/a", result.Sources[0].URL)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestRunEmptyQueryIsDegraded(t *testing.T) {
	p, _ := newTestPipeline(t, &stubSearcher{}, &stubExtractor{})

	result := p.Run(context.Background(), "   ")

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Response)
}

func TestRunRecoversFromPanic(t *testing.T) {
	p, _ := newTestPipeline(t, &stubSearcher{results: someResults()}, &stubExtractor{panicking: true})

	result := p.Run(context.Background(), "energia solar")

	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Sources)
}

func TestRunDegradedResultsAreNotCached(t *testing.T) {
	p, results := newTestPipeline(t, &stubSearcher{err: search.ErrNoResults}, &stubExtractor{})

	p.Run(context.Background(), "sem resultados")

	assert.Nil(t, results.Get("sem resultados"))
}
