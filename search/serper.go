package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// SerperClient talks to a Serper-style search API: JSON request with an
// API-key header, organic results in the response. Repeated API failures
// trip a circuit breaker so a dead provider fails fast instead of eating
// the retry budget of every query.
type SerperClient struct {
	baseURL    string
	apiKey     string
	region     string
	language   string
	numResults int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]RawResult]
	logger     *zap.Logger
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

type serperResponse struct {
	Organic []RawResult `json:"organic"`
}

func NewSerperClient(baseURL, apiKey, region, language string, numResults int, logger *zap.Logger) *SerperClient {
	c := &SerperClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		region:     region,
		language:   language,
		numResults: numResults,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]RawResult](gobreaker.Settings{
		Name:        "search-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

func (c *SerperClient) Search(ctx context.Context, query string) ([]RawResult, error) {
	return c.breaker.Execute(func() ([]RawResult, error) {
		return c.doSearch(ctx, query)
	})
}

func (c *SerperClient) doSearch(ctx context.Context, query string) ([]RawResult, error) {
	body, err := json.Marshal(serperRequest{
		Q:   query,
		Num: c.numResults,
		GL:  c.region,
		HL:  c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var searchResp serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// A response without an organic array means zero results, not an error.
	return searchResp.Organic, nil
}
