package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pesquisa/cache"
	"pesquisa/pipeline"
)

// Server exposes the research pipeline over HTTP.
type Server struct {
	pipeline     *pipeline.Pipeline
	results      *cache.ResultCache
	llmAvailable bool
	port         int
	logger       *zap.Logger
}

func NewServer(p *pipeline.Pipeline, results *cache.ResultCache, llmAvailable bool, port int, logger *zap.Logger) *Server {
	return &Server{
		pipeline:     p,
		results:      results,
		llmAvailable: llmAvailable,
		port:         port,
		logger:       logger,
	}
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/research", s.researchHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/cache/stats", s.cacheStatsHandler)
	mux.HandleFunc("/cache/clear", s.cacheClearHandler)

	addr := ":" + strconv.Itoa(s.port)
	s.logger.Info("starting api server", zap.String("addr", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// requestContext bounds one research run end to end.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 2*time.Minute)
}
