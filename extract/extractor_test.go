package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pesquisa/ratelimit"
	"pesquisa/search"
)

const articleHTML = `<html>
<head>
	<title>Energia solar no Brasil</title>
	<meta name="description" content="Panorama da energia solar"/>
	<meta property="og:site_name" content="Portal Solar"/>
</head>
<body>
	<nav>Home Sobre Contato</nav>
	<article>
		<h1>Energia solar no Brasil</h1>
		<p>A energia solar fotovoltaica cresceu de forma acelerada no mercado brasileiro durante os últimos anos, impulsionada pela queda nos custos dos equipamentos importados.</p>
		<p>Analistas do setor elétrico apontam que a geração distribuída residencial já representa parcela relevante da capacidade instalada nacional em diversos estados.</p>
		<p>Além disso, novas linhas de financiamento facilitaram o acesso das famílias aos sistemas completos de geração própria.</p>
		<p>Especialistas esperam expansão contínua, embora mudanças regulatórias possam alterar o ritmo desse crescimento nos próximos ciclos de investimento.</p>
	</article>
	<footer>Todos os direitos reservados</footer>
</body>
</html>`

func testConfig() Config {
	return Config{
		MaxPages:         5,
		ProbeTimeout:     2 * time.Second,
		FetchTimeout:     5 * time.Second,
		MaxRedirects:     5,
		MaxBodyBytes:     1 << 20,
		StreamCapBytes:   2 << 20,
		LargePageBytes:   300 << 10,
		MaxContentLength: 8000,
		MinQualityLength: 200,
		MinJitter:        time.Millisecond,
		MaxJitter:        2 * time.Millisecond,
		ContentCacheTTL:  time.Minute,
	}
}

func newTestExtractor(cfg Config) *ContentExtractor {
	return NewContentExtractor(cfg, ratelimit.NewLimiter(5, 0), zap.NewNop())
}

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractProducesCleanContent(t *testing.T) {
	srv := articleServer(t)
	e := newTestExtractor(testConfig())

	content, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Energia solar no Brasil", content.Title)
	assert.Equal(t, "Panorama da energia solar", content.Meta.Description)
	assert.Equal(t, "Portal Solar", content.Meta.SiteName)
	assert.Contains(t, content.Text, "energia solar fotovoltaica")
	assert.NotContains(t, content.Text, "direitos reservados")
	assert.Equal(t, "pt", content.Language)
	assert.False(t, content.IsLargePage)
	assert.False(t, content.IsSearchResult)
	assert.NotEmpty(t, content.Markdown)

	// Length bounds hold for every non-rejected page.
	cfg := testConfig()
	assert.GreaterOrEqual(t, len(content.Text), cfg.MinQualityLength)
	assert.LessOrEqual(t, len(content.Text), cfg.MaxContentLength)
}

func TestExtractIdempotent(t *testing.T) {
	srv := articleServer(t)
	e := newTestExtractor(testConfig())

	first, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
}

func TestExtractRejectsLowQualityPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>Conteúdo raso.</p></body></html>"))
	}))
	defer srv.Close()

	_, err := newTestExtractor(testConfig()).Extract(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrPageRejected)
}

func TestExtractLargePageUsesLeadPath(t *testing.T) {
	filler := strings.Repeat("<div>bloco de preenchimento da página</div>", 20000)
	page := `<html><body><div class="lead">` + goodText + `</div>` + filler + `</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	content, err := newTestExtractor(testConfig()).Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, content.IsLargePage)
	assert.Contains(t, content.Text, "energia solar fotovoltaica")
}

func TestScrapeURLsSkipsFailingPages(t *testing.T) {
	good := articleServer(t)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	e := newTestExtractor(testConfig())
	contents := e.ScrapeURLs(context.Background(), []string{bad.URL, good.URL})

	require.Len(t, contents, 1)
	assert.Equal(t, good.URL, contents[0].URL)
}

func TestScrapeURLsHonorsPageCap(t *testing.T) {
	srv := articleServer(t)
	cfg := testConfig()
	cfg.MaxPages = 2

	urls := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c", srv.URL + "/d"}
	contents := newTestExtractor(cfg).ScrapeURLs(context.Background(), urls)

	assert.Len(t, contents, 2)
}

func TestScrapeURLsUsesContentCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	e := newTestExtractor(testConfig())
	e.ScrapeURLs(context.Background(), []string{srv.URL})
	e.ScrapeURLs(context.Background(), []string{srv.URL})

	assert.Equal(t, 1, hits)
}

func TestValidateURLsToleratesForbidden(t *testing.T) {
	okSrv := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		}))
	}
	ok1, ok2, ok3 := okSrv(), okSrv(), okSrv()
	defer ok1.Close()
	defer ok2.Close()
	defer ok3.Close()

	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer forbidden.Close()

	urls := []string{ok1.URL, ok2.URL, ok3.URL, forbidden.URL, "http://does-not-resolve.invalid./x"}
	validated := newTestExtractor(testConfig()).ValidateURLs(context.Background(), urls)

	// The three 200s and the tolerated 403 stay, the dead host goes.
	assert.Equal(t, []string{ok1.URL, ok2.URL, ok3.URL, forbidden.URL}, validated)
}

func TestValidateURLsDropsMalformedAndBlacklisted(t *testing.T) {
	urls := []string{"://broken", "https://facebook.com/page", "ftp://example.com/x"}
	validated := newTestExtractor(testConfig()).ValidateURLs(context.Background(), urls)
	assert.Empty(t, validated)
}

func TestFromSnippetDegradedContent(t *testing.T) {
	content := FromSnippet(search.SearchResult{
		Title:   "Energia solar",
		URL:     "https://example.org/solar",
		Snippet: "A energia solar cresce no Brasil.",
	})

	assert.True(t, content.IsSearchResult)
	assert.Equal(t, "https://example.org/solar", content.URL)
	assert.Contains(t, content.Text, "Energia solar")
	assert.Contains(t, content.Text, "cresce no Brasil")
	assert.Greater(t, content.WordCount, 0)
}
