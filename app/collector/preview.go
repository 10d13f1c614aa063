package collector

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/unicode/norm"

	"github.com/albot-dev/alchemy/app/curator"
)

// buildPreview turns an entry's HTML content into a bounded plain-text
// extract. Full-content entries go through readability; short summaries
// are just stripped of markup.
func buildPreview(html, link string) string {
	if html == "" {
		return ""
	}

	text := ""
	if len(html) > 4000 {
		if pageURL, err := url.Parse(link); err == nil {
			if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil {
				text = article.TextContent
			}
		}
	}
	if text == "" {
		text = stripHTML(html)
	}

	return normalizeText(text)
}

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// normalizeText collapses whitespace, applies NFC normalization, and
// bounds the result to the preview limit.
func normalizeText(text string) string {
	text = norm.NFC.String(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > curator.PreviewLimit {
		return string(runes[:curator.PreviewLimit])
	}
	return text
}
