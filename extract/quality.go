package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	minWordCount     = 50
	minSentenceCount = 3
	minDiversity     = 0.3
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// checkQuality rejects text that is too short, too repetitive, or not
// prose-shaped. It catches boilerplate-heavy and auto-generated pages that
// survive cleaning.
func checkQuality(text string, minLength int) error {
	if len(text) < minLength {
		return fmt.Errorf("%w: text too short (%d < %d chars)", ErrPageRejected, len(text), minLength)
	}

	words := splitWords(text)
	if len(words) < minWordCount {
		return fmt.Errorf("%w: too few words (%d)", ErrPageRejected, len(words))
	}

	if n := countSentences(text); n < minSentenceCount {
		return fmt.Errorf("%w: too few sentences (%d)", ErrPageRejected, n)
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	diversity := float64(len(unique)) / float64(len(words))
	if diversity < minDiversity {
		return fmt.Errorf("%w: vocabulary diversity %.2f below %.2f", ErrPageRejected, diversity, minDiversity)
	}

	return nil
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// countSentences counts segments of sentence-like length between
// terminators.
func countSentences(text string) int {
	count := 0
	for _, segment := range sentenceSplitRe.Split(text, -1) {
		if len(strings.TrimSpace(segment)) > 10 {
			count++
		}
	}
	return count
}
