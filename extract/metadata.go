package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

var titleClassSelectors = []string{
	".article-title", ".post-title", ".entry-title", ".headline", ".titulo",
}

// extractTitle tries title sources in order: the main heading, the document
// title, known title classes, then social meta tags.
func extractTitle(doc *goquery.Document, og *opengraph.OpenGraph) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return collapseSpace(h1)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return collapseSpace(title)
	}
	for _, selector := range titleClassSelectors {
		if t := strings.TrimSpace(doc.Find(selector).First().Text()); t != "" {
			return collapseSpace(t)
		}
	}
	if og != nil && og.Title != "" {
		return collapseSpace(og.Title)
	}
	if t, ok := doc.Find(`meta[name="twitter:title"]`).First().Attr("content"); ok {
		return collapseSpace(strings.TrimSpace(t))
	}
	return ""
}

// extractMeta collects page metadata from standard meta tags, with
// OpenGraph properties filling the gaps. Every field is independently
// optional.
func extractMeta(doc *goquery.Document, og *opengraph.OpenGraph) Meta {
	meta := Meta{
		Description:   metaContent(doc, `meta[name="description"]`),
		Keywords:      metaContent(doc, `meta[name="keywords"]`),
		Author:        metaContent(doc, `meta[name="author"]`),
		PublishedDate: firstNonEmpty(
			metaContent(doc, `meta[property="article:published_time"]`),
			metaContent(doc, `meta[name="date"]`),
			metaContent(doc, `meta[name="publish-date"]`),
		),
	}

	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		meta.Canonical = strings.TrimSpace(canonical)
	}

	if og != nil {
		if meta.Description == "" {
			meta.Description = og.Description
		}
		meta.Type = og.Type
		meta.SiteName = og.SiteName
		if meta.PublishedDate == "" && og.Article != nil && og.Article.PublishedTime != nil {
			meta.PublishedDate = og.Article.PublishedTime.Format("2006-01-02T15:04:05Z07:00")
		}
	}
	if meta.Type == "" {
		meta.Type = metaContent(doc, `meta[property="og:type"]`)
	}
	if meta.SiteName == "" {
		meta.SiteName = metaContent(doc, `meta[property="og:site_name"]`)
	}

	return meta
}

// parseOpenGraph reads og:* properties from the raw document. A parse
// failure just means no OpenGraph data.
func parseOpenGraph(body []byte) *opengraph.OpenGraph {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err != nil {
		return nil
	}
	return og
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
