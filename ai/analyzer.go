package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Analyzer implements QueryAnalyzer. When a model is configured it asks the
// model for a structured analysis; on any model failure it falls back to the
// deterministic heuristic, so analysis never fails the caller.
type Analyzer struct {
	model  llms.Model
	logger *zap.Logger
}

func NewAnalyzer(model llms.Model, logger *zap.Logger) *Analyzer {
	return &Analyzer{model: model, logger: logger}
}

const analyzePrompt = `Analise esta consulta de pesquisa e retorne um JSON com:
{
  "mainTopic": "tópico principal",
  "subtopics": ["subtópico1", "subtópico2"],
  "intentType": "question|definition|comparison|tutorial|general",
  "keywords": ["palavra1", "palavra2", "palavra3"],
  "context": "atual|histórico|geral"
}

Consulta: %q

Responda apenas com o JSON, sem texto adicional.`

func (a *Analyzer) Analyze(ctx context.Context, query string) (*QueryAnalysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	if a.model != nil {
		result, err := a.analyzeWithModel(ctx, query)
		if err == nil {
			return result, nil
		}
		a.logger.Warn("model analysis failed, using fallback",
			zap.String("query", query),
			zap.Error(err))
	}

	return fallbackAnalysis(query), nil
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, query string) (*QueryAnalysis, error) {
	prompt := fmt.Sprintf(analyzePrompt, query)
	raw, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt,
		llms.WithMaxTokens(500),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var result QueryAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	if result.MainTopic == "" {
		result.MainTopic = query
	}
	if result.IntentType == "" {
		result.IntentType = detectIntent(query)
	}
	return &result, nil
}

// fallbackAnalysis is the deterministic path: keywords are the lowercased
// words longer than two characters, subtopics the first three of those.
func fallbackAnalysis(query string) *QueryAnalysis {
	keywords := contentWords(query)
	return &QueryAnalysis{
		MainTopic:  query,
		Subtopics:  firstN(keywords, 3),
		IntentType: detectIntent(query),
		Keywords:   firstN(keywords, 5),
		Context:    "atual",
		Fallback:   true,
	}
}

var intentPatterns = []struct {
	intent  string
	markers []string
}{
	{IntentDefinition, []string{"o que é", "o que e", "o que são", "significado de", "what is", "what are", "definição"}},
	{IntentComparison, []string{" vs ", " versus ", "comparado", "diferença entre", "difference between", "melhor que"}},
	{IntentTutorial, []string{"como fazer", "como criar", "como instalar", "passo a passo", "how to", "tutorial"}},
	{IntentQuestion, []string{"como ", "por que", "porque ", "quando ", "onde ", "quem ", "qual ", "quais ", "quanto ", "why ", "when ", "where ", "who ", "which ", "?"}},
}

// detectIntent classifies the query with fixed pattern tables; first table
// that matches wins, anything else is general.
func detectIntent(query string) string {
	q := " " + strings.ToLower(strings.TrimSpace(query)) + " "
	for _, p := range intentPatterns {
		for _, marker := range p.markers {
			if strings.Contains(q, marker) {
				return p.intent
			}
		}
	}
	return IntentGeneral
}

// contentWords returns the lowercased words of text longer than two runes.
func contentWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?\"'():;[]{}")
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// extractJSON strips markdown fences and surrounding prose the model may
// wrap around its JSON answer.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			return raw[start : end+1]
		}
	}
	return raw
}
