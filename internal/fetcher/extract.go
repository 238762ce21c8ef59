package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageExtract is the part of a rendered document the pipeline cares about
// beyond the raw markup.
type pageExtract struct {
	Title           string
	InlineStyles    []string
	StylesheetHrefs []string
	Text            string
}

// nonContentSelectors lists elements stripped before extracting visible text.
const nonContentSelectors = "script, style, noscript, template"

// extractPage parses rendered markup and pulls out the title, inline style
// blocks, linked stylesheet references, and the visible text layout.
func extractPage(doc *goquery.Document, base *url.URL) pageExtract {
	var ex pageExtract

	ex.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if ex.Title == "" {
		if ogTitle, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			ex.Title = strings.TrimSpace(ogTitle)
		}
	}

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if css := strings.TrimSpace(s.Text()); css != "" {
			ex.InlineStyles = append(ex.InlineStyles, css)
		}
	})

	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if resolved := resolveHref(base, href); resolved != "" {
			ex.StylesheetHrefs = append(ex.StylesheetHrefs, resolved)
		}
	})

	body := doc.Find("body").First()
	if body.Length() > 0 {
		body = body.Clone()
		body.Find(nonContentSelectors).Remove()
		ex.Text = collapseWhitespace(body.Text())
	}

	return ex
}

// resolveHref resolves a stylesheet reference against the final document URL.
// Only http/https results are kept.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
