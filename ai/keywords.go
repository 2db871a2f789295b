package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Keyworder implements KeywordGenerator with the same model-or-fallback
// shape as Analyzer.
type Keyworder struct {
	model  llms.Model
	logger *zap.Logger
}

func NewKeyworder(model llms.Model, logger *zap.Logger) *Keyworder {
	return &Keyworder{model: model, logger: logger}
}

const keywordsPrompt = `Gere palavras-chave para busca web sobre: %q
Retorne um JSON com:
{
  "primary": ["palavra-chave principal 1", "palavra-chave principal 2"],
  "related": ["termo relacionado 1", "termo relacionado 2"],
  "synonyms": ["sinônimo 1", "sinônimo 2"],
  "english": ["english term 1", "english term 2"]
}

Responda apenas com o JSON, sem texto adicional.`

func (k *Keyworder) Generate(ctx context.Context, topic string) (*KeywordSet, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	if k.model != nil {
		result, err := k.generateWithModel(ctx, topic)
		if err == nil {
			return result, nil
		}
		k.logger.Warn("model keyword generation failed, using fallback",
			zap.String("topic", topic),
			zap.Error(err))
	}

	return fallbackKeywords(topic), nil
}

func (k *Keyworder) generateWithModel(ctx context.Context, topic string) (*KeywordSet, error) {
	prompt := fmt.Sprintf(keywordsPrompt, topic)
	raw, err := llms.GenerateFromSinglePrompt(ctx, k.model, prompt,
		llms.WithMaxTokens(300),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var result KeywordSet
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	result.Primary = dedupeByStem(result.Primary)
	result.Related = dedupeByStem(result.Related)
	return &result, nil
}

// fallbackKeywords splits the topic into content words: the first two become
// primary keywords, the next two related ones.
func fallbackKeywords(topic string) *KeywordSet {
	words := dedupeByStem(contentWords(topic))
	set := &KeywordSet{
		Primary:  firstN(words, 2),
		Related:  []string{},
		Synonyms: []string{},
		English:  []string{},
		Fallback: true,
	}
	if len(words) > 2 {
		set.Related = firstN(words[2:], 2)
	}
	return set
}

// dedupeByStem drops keywords whose Portuguese stem was already seen, so
// "energia" and "energias" do not both spend query budget.
func dedupeByStem(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	var kept []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key, err := snowball.Stem(strings.ToLower(w), "portuguese", true)
		if err != nil || key == "" {
			key = strings.ToLower(w)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, w)
	}
	return kept
}
