package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// Minimum text length for a semantic container to win outright.
	selectorMinLen = 250
	// Paragraphs shorter than this carry no weight when ranking containers.
	substantialParagraphLen = 80
	// Bounds for the longest-own-text strategy, so a wrapper holding the
	// whole document never wins.
	ownTextMinLen = 200
	ownTextMaxLen = 10000

	largePageMaxChars   = 10000
	largePageLeadMin    = 150
	largePageParagraphs = 12
)

var strippedSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "form", "button",
	"nav", "header", "footer", "aside",
	".nav", ".navbar", ".menu", ".sidebar", ".breadcrumb",
	".ad", ".ads", ".advertisement", ".banner", ".promo",
	".social", ".share", ".sharing", ".social-media",
	".comments", "#comments", ".comment-section",
	".cookie", ".cookie-banner", ".newsletter", ".subscribe",
	".related", ".recommended",
	"[hidden]", `[aria-hidden="true"]`,
	`[style*="display:none"]`, `[style*="display: none"]`,
	`[style*="visibility:hidden"]`, `[style*="visibility: hidden"]`,
}

// Semantic content containers, most specific first.
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".article-content", ".article-body", ".post-content", ".entry-content",
	".story-body", ".main-content", ".materia", ".texto",
	"#content", ".content",
}

// Lead/introduction regions tried first on very large pages.
var leadSelectors = []string{
	".intro", ".lead", ".summary", ".abstract", ".standfirst",
	".article-intro", ".article-summary", ".resumo",
	"#intro", "#summary",
}

// stripNonContent removes elements that never carry article text, plus
// short-text divs with no nested block content.
func stripNonContent(doc *goquery.Document) {
	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, h1, h2, h3, h4, h5, h6, ul, ol, table, article, section, blockquote, pre, img").Length() > 0 {
			return
		}
		if len(strings.TrimSpace(s.Text())) < 25 {
			s.Remove()
		}
	})
}

// selectContent picks the primary content of a stripped document. The
// strategies run in order; the strategy name is returned for logging.
func selectContent(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range contentSelectors {
		candidate := doc.Find(selector).First()
		if candidate.Length() > 0 && len(strings.TrimSpace(candidate.Text())) >= selectorMinLen {
			return candidate, "selector:" + selector
		}
	}

	if best := mostParagraphsContainer(doc); best != nil {
		return best, "paragraph-density"
	}

	if best := longestOwnTextElement(doc); best != nil {
		return best, "longest-own-text"
	}

	return doc.Find("body"), "body"
}

// mostParagraphsContainer returns the block container holding the most
// substantial paragraphs, requiring at least three of them.
func mostParagraphsContainer(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestCount := 2 // strictly more than this to qualify
	doc.Find("div, section, article, main").Each(func(_ int, s *goquery.Selection) {
		count := 0
		s.Find("p").Each(func(_ int, p *goquery.Selection) {
			if len(strings.TrimSpace(p.Text())) >= substantialParagraphLen {
				count++
			}
		})
		if count > bestCount {
			best = s
			bestCount = count
		}
	})
	return best
}

// longestOwnTextElement finds the single element whose direct text (child
// text nodes only) is the longest, within bounds.
func longestOwnTextElement(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestLen := ownTextMinLen - 1
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		n := len(strings.TrimSpace(ownText(s)))
		if n > bestLen && n <= ownTextMaxLen {
			best = s
			bestLen = n
		}
	})
	return best
}

// ownText concatenates the direct text-node children of s, excluding any
// nested elements.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			b.WriteString(" ")
		}
	})
	return b.String()
}

// selectLargePage is the cheaper path for oversized documents: a lead or
// summary region if one exists, otherwise the first substantial paragraphs,
// otherwise the generic strategy chain. Output is capped.
func selectLargePage(doc *goquery.Document) (string, *goquery.Selection, string) {
	for _, selector := range leadSelectors {
		lead := doc.Find(selector).First()
		if lead.Length() > 0 {
			text := strings.TrimSpace(lead.Text())
			if len(text) >= largePageLeadMin {
				return capText(text, largePageMaxChars), lead, "large:lead:" + selector
			}
		}
	}

	var paragraphs []string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if len(text) >= substantialParagraphLen {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < largePageParagraphs
	})
	if len(paragraphs) >= 3 {
		return capText(strings.Join(paragraphs, "\n"), largePageMaxChars), nil, "large:paragraphs"
	}

	sel, strategy := selectContent(doc)
	return capText(sel.Text(), largePageMaxChars), sel, "large:" + strategy
}

func capText(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}
