package extract

import "strings"

// functionWords are high-frequency words per language, counted over the
// first tokens of the text. Cheap, and good enough to label sources.
var functionWords = map[string][]string{
	"pt": {"de", "que", "não", "uma", "para", "com", "mais", "dos", "das", "são", "está", "também"},
	"en": {"the", "and", "that", "with", "this", "from", "have", "are", "was", "which", "their", "been"},
	"es": {"los", "las", "una", "del", "este", "esta", "pero", "sus", "muy", "hay", "ser", "como"},
}

const languageSampleTokens = 100

// detectLanguage counts function-word hits per language among the first 100
// tokens. Ties and absent signal yield "unknown".
func detectLanguage(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) > languageSampleTokens {
		tokens = tokens[:languageSampleTokens]
	}
	if len(tokens) == 0 {
		return "unknown"
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[strings.Trim(tok, ".,;:!?()\"'")]++
	}

	best, bestScore, tied := "unknown", 0, false
	for lang, words := range functionWords {
		score := 0
		for _, w := range words {
			score += counts[w]
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = lang, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return "unknown"
	}
	return best
}
