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
)

func newTestFetcher(maxBody, streamCap int64) *Fetcher {
	return NewFetcher(5*time.Second, 2*time.Second, 5, maxBody, streamCap, zap.NewNop())
}

func TestFetchRejectsPDFBeforeParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(1<<20, 2<<20).Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrPageRejected)
	assert.Contains(t, err.Error(), "content type")
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher(1<<20, 2<<20).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrPageRejected)
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var ua, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		lang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(1<<20, 2<<20).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, ua, "Mozilla/5.0")
	assert.True(t, strings.HasPrefix(lang, "pt-BR"))
}

func TestFetchStreamingCapBoundsOversizedBody(t *testing.T) {
	big := strings.Repeat("a", 200<<10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>"))
		w.Write([]byte(big))
		w.Write([]byte("</body></html>"))
	}))
	defer srv.Close()

	res, err := newTestFetcher(10<<10, 50<<10).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, 50<<10, len(res.Body))
}

func TestFetchWithinCeilingNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>pequeno</body></html>"))
	}))
	defer srv.Close()

	res, err := newTestFetcher(1<<20, 2<<20).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
}

func TestProbeOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		ctype   string
		want    ProbeOutcome
	}{
		{"html ok", http.StatusOK, "text/html; charset=utf-8", ProbeOK},
		{"plain ok", http.StatusOK, "text/plain", ProbeOK},
		{"no content type", http.StatusOK, "", ProbeOK},
		{"forbidden tolerated", http.StatusForbidden, "", ProbeTolerated},
		{"method not allowed tolerated", http.StatusMethodNotAllowed, "", ProbeTolerated},
		{"pdf dropped", http.StatusOK, "application/pdf", ProbeFailed},
		{"server error dropped", http.StatusBadGateway, "", ProbeFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.ctype != "" {
					w.Header().Set("Content-Type", tc.ctype)
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			assert.Equal(t, tc.want, newTestFetcher(1<<20, 2<<20).Probe(context.Background(), srv.URL))
		})
	}
}

func TestProbeNetworkFailure(t *testing.T) {
	outcome := newTestFetcher(1<<20, 2<<20).Probe(context.Background(), "http://host.invalid./nope")
	assert.Equal(t, ProbeFailed, outcome)
}

func TestUserAgentRotation(t *testing.T) {
	f := newTestFetcher(1<<20, 2<<20)
	seen := map[string]struct{}{}
	for i := 0; i < len(userAgents); i++ {
		seen[f.nextUserAgent()] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
