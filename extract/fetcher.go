package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// userAgents rotate across fetches so a batch does not present a single
// fingerprint to every host.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (Version/17.5 Safari/605.1.15",
}

const acceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"

const readChunkSize = 64 << 10

// FetchResult is a fetched page body. Truncated is set when the streaming
// cap cut the body short; the partial body is still extractable.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
	Truncated   bool
}

// Fetcher issues browser-like GET requests with bounded redirects, a body
// ceiling, and a streaming fallback for oversized pages.
type Fetcher struct {
	client         *http.Client
	probeClient    *http.Client
	maxBodyBytes   int64
	streamCapBytes int64
	uaIndex        atomic.Uint32
	logger         *zap.Logger
}

func NewFetcher(fetchTimeout, probeTimeout time.Duration, maxRedirects int, maxBodyBytes, streamCapBytes int64, logger *zap.Logger) *Fetcher {
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:       fetchTimeout,
			CheckRedirect: redirectPolicy,
		},
		probeClient: &http.Client{
			Timeout:       probeTimeout,
			CheckRedirect: redirectPolicy,
		},
		maxBodyBytes:   maxBodyBytes,
		streamCapBytes: streamCapBytes,
		logger:         logger,
	}
}

// nextUserAgent rotates through the pool.
func (f *Fetcher) nextUserAgent() string {
	i := f.uaIndex.Add(1)
	return userAgents[int(i)%len(userAgents)]
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// Fetch GETs url and reads the body up to the configured ceiling. When the
// ceiling is passed, it keeps reading incrementally and aborts the
// connection at the larger streaming cap, returning the partial body
// collected so far instead of failing the request.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("%w: status %d", ErrPageRejected, resp.StatusCode)
	}
	if !isHTMLContentType(result.ContentType) {
		return result, fmt.Errorf("%w: content type %q", ErrPageRejected, result.ContentType)
	}

	body, truncated, err := f.readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	result.Body = body
	result.Truncated = truncated
	if truncated {
		f.logger.Warn("body exceeded streaming cap, extracting from partial read",
			zap.String("url", url),
			zap.Int("bytes", len(body)))
	}
	return result, nil
}

// readBody accumulates chunks until EOF or the streaming cap. Crossing the
// normal ceiling only switches reporting to truncated mode; crossing the
// streaming cap aborts the read.
func (f *Fetcher) readBody(r io.Reader) ([]byte, bool, error) {
	var body []byte
	truncated := false
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			body = append(body, chunk[:n]...)
			if int64(len(body)) >= f.streamCapBytes {
				return body[:int(f.streamCapBytes)], true, nil
			}
			if int64(len(body)) > f.maxBodyBytes {
				truncated = true
			}
		}
		if err == io.EOF {
			return body, truncated, nil
		}
		if err != nil {
			if len(body) > 0 && truncated {
				// The oversized read path tolerates a broken tail.
				return body, true, nil
			}
			return nil, false, err
		}
	}
}

// ProbeOutcome classifies a validation probe.
type ProbeOutcome int

const (
	// ProbeOK means the URL looks fetchable.
	ProbeOK ProbeOutcome = iota
	// ProbeTolerated means the probe was rejected in a way that a full
	// browser-like fetch frequently survives (4xx, method not allowed).
	ProbeTolerated
	// ProbeFailed means the URL is not worth fetching.
	ProbeFailed
)

// Probe issues a lightweight HEAD request. The outcome is advisory: 4xx
// responses are tolerated because anti-bot layers often reject probes
// while serving full fetches.
func (f *Fetcher) Probe(ctx context.Context, url string) ProbeOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeFailed
	}
	f.setHeaders(req)

	resp, err := f.probeClient.Do(req)
	if err != nil {
		return ProbeFailed
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		ct := resp.Header.Get("Content-Type")
		if ct == "" || isHTMLContentType(ct) || strings.HasPrefix(strings.ToLower(ct), "text/plain") {
			return ProbeOK
		}
		return ProbeFailed
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ProbeTolerated
	default:
		return ProbeFailed
	}
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
