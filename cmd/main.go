package main

import (
	"log"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"pesquisa/ai"
	"pesquisa/api"
	"pesquisa/cache"
	"pesquisa/config"
	"pesquisa/extract"
	"pesquisa/pipeline"
	"pesquisa/ratelimit"
	"pesquisa/search"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// LLM (optional, pipeline degrades to heuristics without it)
	// =========
	var model llms.Model
	if cfg.LLM.APIKey != "" {
		model, err = openai.New(
			openai.WithToken(cfg.LLM.APIKey),
			openai.WithModel(cfg.LLM.Model),
		)
		if err != nil {
			logger.Warn("llm client unavailable, using heuristic fallbacks", zap.Error(err))
			model = nil
		}
	}

	// =========
	// Result cache
	// =========
	results, err := cache.NewResultCache(cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open result cache", zap.Error(err))
	}
	defer results.Close()

	// =========
	// Search
	// =========
	searchLimiter := ratelimit.NewLimiter(cfg.Search.MaxConcurrent, cfg.Search.MinInterval)
	serper := search.NewSerperClient(
		cfg.Search.BaseURL,
		cfg.Search.APIKey,
		cfg.Search.Region,
		cfg.Search.Language,
		cfg.Search.ResultsPerQry,
		logger,
	)
	executor := search.NewExecutor(serper, searchLimiter, search.ExecutorConfig{
		MaxResults:    cfg.Search.MaxResults,
		PerDomainCap:  cfg.Search.PerDomainCap,
		RetryAttempts: cfg.Search.RetryAttempts,
		RetryBaseWait: cfg.Search.RetryBaseWait,
	}, logger)

	// =========
	// Extraction
	// =========
	validateLimiter := ratelimit.NewLimiter(cfg.Scrape.ValidateConcurrent, cfg.Scrape.ValidateInterval)
	extractor := extract.NewContentExtractor(extract.Config{
		MaxPages:         cfg.Scrape.MaxPages,
		ProbeTimeout:     cfg.Scrape.ProbeTimeout,
		FetchTimeout:     cfg.Scrape.FetchTimeout,
		MaxRedirects:     cfg.Scrape.MaxRedirects,
		MaxBodyBytes:     cfg.Scrape.MaxBodyBytes,
		StreamCapBytes:   cfg.Scrape.StreamCapBytes,
		LargePageBytes:   cfg.Scrape.LargePageBytes,
		MaxContentLength: cfg.Scrape.MaxContentLength,
		MinQualityLength: cfg.Scrape.MinQualityLength,
		MinJitter:        cfg.Scrape.MinJitter,
		MaxJitter:        cfg.Scrape.MaxJitter,
		ContentCacheTTL:  cfg.Scrape.ContentCacheTTL,
	}, validateLimiter, logger)

	// =========
	// Pipeline
	// =========
	p := pipeline.New(
		ai.NewAnalyzer(model, logger),
		ai.NewKeyworder(model, logger),
		ai.NewSynthesizer(model, logger),
		executor,
		extractor,
		results,
		cfg.Search.MaxQueries,
		logger,
	)

	// =========
	// HTTP
	// =========
	server := api.NewServer(p, results, model != nil, cfg.AppPort, logger)
	if err := server.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
