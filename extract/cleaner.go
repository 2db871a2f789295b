package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Safe character set: letters of any script (accented Latin included),
	// digits, whitespace, and common punctuation/currency marks.
	unsafeCharsRe   = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?()\[\]'"%&$€/@ºª°\-–—]`)
	// Go's regexp (RE2) has no backreferences, so runs of the same
	// punctuation character are spelled out per character.
	repeatedPunctRe = regexp.MustCompile(`\.{2,}|,{2,}|;{2,}|:{2,}|!{2,}|\?{2,}|-{2,}`)
	symbolLineRe    = regexp.MustCompile(`^[\p{N}\p{P}\p{S}\s]+$`)
)

// navigationWords are line contents that mark menu or footer debris rather
// than article text.
var navigationWords = map[string]struct{}{
	"home": {}, "menu": {}, "login": {}, "cadastro": {}, "buscar": {},
	"search": {}, "compartilhar": {}, "share": {}, "anterior": {},
	"próximo": {}, "previous": {}, "next": {}, "voltar": {}, "back": {},
	"contato": {}, "contact": {}, "sobre": {}, "about": {}, "inscreva-se": {},
	"subscribe": {}, "publicidade": {}, "advertisement": {},
}

var boilerplateRes = compilePhrases([]string{
	"click here", "clique aqui", "read more", "leia mais", "saiba mais",
	"learn more", "continue reading", "continue lendo", "share this",
	"compartilhe", "sign up", "inscreva-se agora", "accept cookies",
	"aceitar cookies", "all rights reserved", "todos os direitos reservados",
	"follow us", "siga-nos",
})

func compilePhrases(phrases []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		res[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))
	}
	return res
}

// CleanText normalizes extracted page text: collapses whitespace, strips
// unsafe characters and repeated punctuation, drops navigation and
// symbol-only lines, removes boilerplate phrases, and truncates to maxLen
// at a sentence boundary when one is near enough.
func CleanText(text string, maxLen int) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if symbolLineRe.MatchString(line) {
			continue
		}
		if _, nav := navigationWords[strings.ToLower(line)]; nav {
			continue
		}
		lines = append(lines, line)
	}
	text = strings.Join(lines, " ")

	for _, re := range boilerplateRes {
		text = re.ReplaceAllString(text, " ")
	}

	text = unsafeCharsRe.ReplaceAllString(text, " ")
	text = repeatedPunctRe.ReplaceAllStringFunc(text, func(m string) string { return m[:1] })
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return truncateAtSentence(text, maxLen)
}

// truncateAtSentence cuts text to maxLen, preferring the last sentence
// terminator in the final stretch of the allowance.
func truncateAtSentence(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	cut := text[:maxLen]
	best := -1
	for _, term := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(cut, term); idx > best {
			best = idx
		}
	}
	if best > maxLen/2 {
		return strings.TrimSpace(cut[:best+1])
	}
	return strings.TrimSpace(cut)
}
