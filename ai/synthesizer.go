package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Synthesizer implements ContentSynthesizer. The fallback path composes a
// plain-text digest of the source summaries; confidence grows with the
// number of usable sources.
type Synthesizer struct {
	model  llms.Model
	logger *zap.Logger
}

func NewSynthesizer(model llms.Model, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{model: model, logger: logger}
}

const synthesizePrompt = `Com base nas fontes abaixo, responda a consulta em português, de forma objetiva e citando apenas informações presentes nas fontes.

Consulta: %q

Fontes:
%s

Responda apenas com o texto da resposta.`

func (s *Synthesizer) Synthesize(ctx context.Context, sources []SourceSummary, originalQuery string) (*Synthesis, error) {
	if len(sources) == 0 {
		return &Synthesis{
			Response:   fmt.Sprintf("Não foi possível encontrar conteúdo confiável sobre %q.", originalQuery),
			Sources:    []SourceSummary{},
			Confidence: 0,
		}, nil
	}

	if s.model != nil {
		response, err := s.synthesizeWithModel(ctx, sources, originalQuery)
		if err == nil {
			return &Synthesis{
				Response:   response,
				Sources:    sources,
				Confidence: confidenceFor(len(sources)),
			}, nil
		}
		s.logger.Warn("model synthesis failed, using fallback",
			zap.String("query", originalQuery),
			zap.Error(err))
	}

	return fallbackSynthesis(sources, originalQuery), nil
}

func (s *Synthesizer) synthesizeWithModel(ctx context.Context, sources []SourceSummary, originalQuery string) (string, error) {
	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, src.Title, src.URL, src.Summary)
	}

	prompt := fmt.Sprintf(synthesizePrompt, originalQuery, b.String())
	response, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithMaxTokens(800),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("model returned empty response")
	}
	return response, nil
}

// fallbackSynthesis concatenates the leading sentences of each source into
// a readable digest, attributing each excerpt to its site.
func fallbackSynthesis(sources []SourceSummary, originalQuery string) *Synthesis {
	var b strings.Builder
	fmt.Fprintf(&b, "Resultados encontrados sobre %q:\n\n", originalQuery)
	for i, src := range sources {
		excerpt := leadingSentences(src.Summary, 2)
		if excerpt == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, src.Title, excerpt)
	}

	return &Synthesis{
		Response:   strings.TrimSpace(b.String()),
		Sources:    sources,
		Confidence: confidenceFor(len(sources)),
	}
}

// leadingSentences returns the first n sentence-like segments of text.
func leadingSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(text[:i+1])
			}
		}
	}
	const maxExcerpt = 300
	if len(text) > maxExcerpt {
		return text[:maxExcerpt] + "..."
	}
	return text
}

func confidenceFor(sourceCount int) float64 {
	c := 0.3 + 0.15*float64(sourceCount)
	if c > 0.9 {
		c = 0.9
	}
	return c
}
