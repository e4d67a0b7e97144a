// Package extract turns fetched article HTML into cleaned plain text
// bounded by configurable length limits.
package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/earnscope/pkg/models"
)

// junkSelectors name elements that never contain article text.
var junkSelectors = []string{
	"script", "style", "noscript", "iframe", "form",
	"nav", "header", "footer", "aside",
	"[class*=advert]", "[class*=promo]", "[class*=related]",
	"[class*=share]", "[class*=comment]", "[class*=newsletter]",
	"[class*=subscribe]", "[class*=social]", "[class*=sidebar]",
	"[id*=advert]", "[id*=comment]", "[id*=sidebar]",
}

// contentSelectors are tried in order to locate the article body before
// falling back to every paragraph on the page.
var contentSelectors = []string{
	"article",
	"[itemprop=articleBody]",
	"[class*=article-body]",
	"[class*=story-body]",
	"[class*=post-content]",
	"[class*=entry-content]",
	"main",
}

// Parser extracts article content from HTML. Texts shorter than MinLength
// are flagged TooShort; texts longer than MaxLength are truncated and
// flagged.
type Parser struct {
	MinLength int
	MaxLength int

	cleaner *Cleaner
}

// NewParser builds a parser with the given text length bounds.
func NewParser(minLength, maxLength int) *Parser {
	return &Parser{
		MinLength: minLength,
		MaxLength: maxLength,
		cleaner:   NewCleaner(),
	}
}

// Parse extracts title, author, publication date, and body text from an
// article page.
func (p *Parser) Parse(url, html string) (*models.Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html for %s: %w", url, err)
	}

	title := extractTitle(doc)
	author := extractAuthor(doc)
	published := extractPublished(doc)

	for _, sel := range junkSelectors {
		doc.Find(sel).Remove()
	}

	text := p.cleaner.Clean(extractBody(doc))

	content := &models.Content{
		URL:       url,
		Title:     title,
		Author:    author,
		Published: published,
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}
	if len(content.Text) < p.MinLength {
		content.TooShort = true
	}
	if p.MaxLength > 0 && len(content.Text) > p.MaxLength {
		content.Text = content.Text[:p.MaxLength]
		content.TooLong = true
		content.Truncated = true
		content.WordCount = len(strings.Fields(content.Text))
	}
	return content, nil
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractAuthor(doc *goquery.Document) string {
	if a, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	if a, ok := doc.Find(`meta[property="article:author"]`).Attr("content"); ok {
		a = strings.TrimSpace(a)
		if a != "" && !strings.HasPrefix(a, "http") {
			return a
		}
	}
	return strings.TrimSpace(doc.Find(`[rel="author"]`).First().Text())
}

func extractPublished(doc *goquery.Document) time.Time {
	candidates := []string{}
	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, c); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Time{}
}

func extractBody(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := joinParagraphs(node); text != "" {
			return text
		}
	}
	return joinParagraphs(doc.Selection)
}

// joinParagraphs concatenates the paragraph texts under node, skipping
// fragments too short to be prose.
func joinParagraphs(node *goquery.Selection) string {
	var parts []string
	node.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		if len(t) >= 20 {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(node.Text())
	}
	return strings.Join(parts, "\n\n")
}
