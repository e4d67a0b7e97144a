package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/earnscope/internal/infra"
	"github.com/seenimoa/earnscope/pkg/models"
)

// Discoverer pulls candidate articles from RSS feeds. Feed responses are
// cached so repeated runs within the TTL do not hammer the publishers.
type Discoverer struct {
	parser       *gofeed.Parser
	cache        *infra.Cache
	maxPerSource int
	logger       *slog.Logger
}

// NewDiscoverer builds a discoverer. maxPerSource caps how many entries
// are taken from each feed; zero means no cap.
func NewDiscoverer(userAgent string, timeout time.Duration, cacheTTL time.Duration, maxPerSource int, logger *slog.Logger) *Discoverer {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &Discoverer{
		parser:       p,
		cache:        infra.NewCache(cacheTTL),
		maxPerSource: maxPerSource,
		logger:       logger,
	}
}

// Discover fetches every source's feed for the ticker and returns the
// combined article list. A failing feed is logged and skipped; Discover
// only errors when every source fails.
func (d *Discoverer) Discover(ctx context.Context, sources []Source, ticker string) ([]models.Article, error) {
	var (
		articles []models.Article
		failures int
	)
	for _, src := range sources {
		items, err := d.fromSource(ctx, src, ticker)
		if err != nil {
			failures++
			d.logger.Warn("feed fetch failed", "source", src.Name, "error", err)
			continue
		}
		d.logger.Debug("feed fetched", "source", src.Name, "articles", len(items))
		articles = append(articles, items...)
	}
	if len(sources) > 0 && failures == len(sources) {
		return nil, fmt.Errorf("discovery: all %d sources failed", len(sources))
	}
	return articles, nil
}

func (d *Discoverer) fromSource(ctx context.Context, src Source, ticker string) ([]models.Article, error) {
	feedURL := ExpandURL(src.URL, ticker)

	if cached, ok := d.cache.Get(feedURL); ok {
		return cached.([]models.Article), nil
	}

	feed, err := d.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if d.maxPerSource > 0 && len(items) > d.maxPerSource {
		items = items[:d.maxPerSource]
	}

	now := time.Now()
	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		a := models.Article{
			URL:          item.Link,
			Title:        strings.TrimSpace(item.Title),
			Summary:      stripHTML(item.Description),
			Source:       src.Name,
			Domain:       DomainOf(item.Link),
			QualityScore: src.QualityScore,
			DiscoveredAt: now,
		}
		if item.PublishedParsed != nil {
			a.Published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			a.Published = item.UpdatedParsed.UTC()
		}
		articles = append(articles, a)
	}

	d.cache.Set(feedURL, articles)
	return articles, nil
}

// stripHTML flattens feed summaries that arrive as HTML fragments into
// plain text.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
