package extract

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// renderMarkdown converts the chosen content node to Markdown for the
// synthesizer. Best effort: any failure yields an empty string, never an
// extraction error.
func renderMarkdown(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	if err := html.Render(&b, sel.Get(0)); err != nil {
		return ""
	}

	md, err := htmltomarkdown.ConvertString(b.String())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
