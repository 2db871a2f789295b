package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type researchRequest struct {
	Query string `json:"query"`
}

type healthResponse struct {
	Status       string `json:"status"`
	LLMAvailable bool   `json:"llm_available"`
	Timestamp    string `json:"timestamp"`
}

func (s *Server) researchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result := s.pipeline.Run(ctx, req.Query)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		LLMAvailable: s.llmAvailable,
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.results.Stats())
}

func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.results.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.logger.Warn("request failed", zap.Int("status", status), zap.String("error", msg))
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
