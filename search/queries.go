package search

import (
	"fmt"
	"strings"

	"pesquisa/ai"
)

// BuildQueries assembles the search queries for one pipeline run, in
// priority order: the main topic verbatim, the primary keywords joined, an
// exact-phrase variant when the intent is a question, and an English
// variant when English keywords exist. When max truncates the list, the
// later strategies are the ones dropped.
func BuildQueries(analysis *ai.QueryAnalysis, keywords *ai.KeywordSet, max int) []string {
	if max < 1 {
		max = 1
	}

	var queries []string
	seen := make(map[string]struct{})
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, dup := seen[strings.ToLower(q)]; dup {
			return
		}
		seen[strings.ToLower(q)] = struct{}{}
		queries = append(queries, q)
	}

	add(analysis.MainTopic)

	if keywords != nil && len(keywords.Primary) > 0 {
		add(strings.Join(keywords.Primary, " "))
	}

	if analysis.IntentType == ai.IntentQuestion {
		add(fmt.Sprintf("%q", strings.TrimSpace(analysis.MainTopic)))
	}

	if keywords != nil && len(keywords.English) > 0 {
		add(strings.Join(keywords.English, " "))
	}

	if len(queries) > max {
		queries = queries[:max]
	}
	return queries
}
