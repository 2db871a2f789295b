package ai

import "context"

// QueryAnalysis describes what a search query is about and what the user
// wants from it.
type QueryAnalysis struct {
	MainTopic  string   `json:"mainTopic"`
	Subtopics  []string `json:"subtopics"`
	IntentType string   `json:"intentType"`
	Keywords   []string `json:"keywords"`
	Context    string   `json:"context"`
	Fallback   bool     `json:"fallback"`
}

// Intent types produced by analysis.
const (
	IntentQuestion   = "question"
	IntentDefinition = "definition"
	IntentComparison = "comparison"
	IntentTutorial   = "tutorial"
	IntentGeneral    = "general"
)

// KeywordSet groups generated search keywords by role.
type KeywordSet struct {
	Primary  []string `json:"primary"`
	Related  []string `json:"related"`
	Synonyms []string `json:"synonyms"`
	English  []string `json:"english"`
	Fallback bool     `json:"fallback"`
}

// SourceSummary is one extracted page handed to the synthesizer.
type SourceSummary struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Synthesis is the synthesizer's answer to the original query.
type Synthesis struct {
	Response   string          `json:"response"`
	Sources    []SourceSummary `json:"sources"`
	Confidence float64         `json:"confidence"`
}

type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string) (*QueryAnalysis, error)
}

type KeywordGenerator interface {
	Generate(ctx context.Context, topic string) (*KeywordSet, error)
}

type ContentSynthesizer interface {
	Synthesize(ctx context.Context, sources []SourceSummary, originalQuery string) (*Synthesis, error)
}
