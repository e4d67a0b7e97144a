// Package pipeline sequences the earnings sentiment run: discover,
// filter and deduplicate, fetch, extract, analyze, aggregate, persist.
// Phases run strictly in order; per-article failures inside a phase drop
// that article and the run continues.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/earnscope/internal/discovery"
	"github.com/seenimoa/earnscope/internal/fetch"
	"github.com/seenimoa/earnscope/internal/sentiment"
	"github.com/seenimoa/earnscope/pkg/models"
)

// Discoverer yields candidate articles for a ticker.
type Discoverer interface {
	Discover(ctx context.Context, sources []discovery.Source, ticker string) ([]models.Article, error)
}

// Fetcher downloads one article page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns HTML into cleaned content.
type Extractor interface {
	Parse(url, html string) (*models.Content, error)
}

// Artifacts persists intermediate and final outputs.
type Artifacts interface {
	SaveRaw(ticker, url, html string, now time.Time) (string, error)
	SaveParsed(ticker string, content *models.Content, now time.Time) (string, error)
	SaveReport(report *models.Report) (string, error)
}

// History records completed runs.
type History interface {
	SaveRun(ctx context.Context, report *models.Report, reportPath string) (int64, error)
}

// Options bundles the per-run parameters.
type Options struct {
	Ticker      string
	Company     string
	Window      models.DateRange
	TopK        int
	Concurrency int
	Sources     []discovery.Source
	Exclude     []string
}

// Pipeline wires the collaborators for one or more runs.
type Pipeline struct {
	discoverer Discoverer
	fetcher    Fetcher
	extractor  Extractor
	analyzer   sentiment.Analyzer
	artifacts  Artifacts
	history    History
	logger     *slog.Logger
}

// New assembles a pipeline. history may be nil to skip run recording.
func New(d Discoverer, f Fetcher, e Extractor, a sentiment.Analyzer, art Artifacts, h History, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		discoverer: d,
		fetcher:    f,
		extractor:  e,
		analyzer:   a,
		artifacts:  art,
		history:    h,
		logger:     logger,
	}
}

// Result is what a run hands back to the caller.
type Result struct {
	Report     *models.Report
	ReportPath string
	RunID      int64
}

// Run executes the full pipeline for one ticker. Discovery failure aborts
// the run; every later phase drops failing articles and continues. An
// empty article list after any phase short-circuits straight to an empty
// report, which is still persisted.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	metrics := NewMetrics()
	started := time.Now()

	candidates, err := p.discover(ctx, opts, metrics)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}

	selected := p.selectArticles(opts, candidates, metrics)
	fetched := p.fetchAll(ctx, opts, selected, metrics)
	extracted := p.extractAll(opts, fetched, metrics)
	analyzed := p.analyzeAll(ctx, opts, extracted, metrics)

	phaseStart := time.Now()
	weights := sentiment.WeightsFor(analyzed)
	summary := sentiment.AggregateWeighted(analyzed, weights)
	metrics.Phase("aggregate", time.Since(phaseStart))

	report := &models.Report{
		Ticker:           opts.Ticker,
		Timestamp:        started.UTC(),
		DateRange:        opts.Window,
		SentimentSummary: summary,
		Articles:         analyzed,
		Configuration: models.RunConfig{
			SentimentModel: p.analyzer.Name(),
			TopK:           opts.TopK,
		},
	}
	report.Metrics = metrics.Summary()

	result := &Result{Report: report}
	if p.artifacts != nil {
		path, err := p.artifacts.SaveReport(report)
		if err != nil {
			return nil, fmt.Errorf("persisting report: %w", err)
		}
		result.ReportPath = path
	}
	if p.history != nil {
		id, err := p.history.SaveRun(ctx, report, result.ReportPath)
		if err != nil {
			p.logger.Warn("recording run history failed", "error", err)
		} else {
			result.RunID = id
		}
	}

	p.logger.Info("run complete",
		"ticker", opts.Ticker,
		"articles", summary.Statistics.TotalArticles,
		"label", overallLabel(summary),
		"duration", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) discover(ctx context.Context, opts Options, metrics *Metrics) ([]models.Article, error) {
	start := time.Now()
	articles, err := p.discoverer.Discover(ctx, opts.Sources, opts.Ticker)
	metrics.Phase("discovery", time.Since(start))
	if err != nil {
		return nil, err
	}
	p.logger.Info("discovery complete", "ticker", opts.Ticker, "candidates", len(articles))
	return articles, nil
}

// selectArticles filters, ranks, and deduplicates the candidates. Ranking
// keeps twice the target count so that deduplication losses do not leave
// the run short.
func (p *Pipeline) selectArticles(opts Options, candidates []models.Article, metrics *Metrics) []models.Article {
	start := time.Now()
	defer func() { metrics.Phase("select", time.Since(start)) }()

	filter := discovery.NewFilter(opts.Ticker, opts.Company, opts.Window.Start, opts.Window.End, opts.Exclude)
	ranked := filter.FilterAndRank(candidates, opts.TopK*2)

	dedup := discovery.NewDeduplicator()
	unique := make([]models.Article, 0, len(ranked))
	for i := range ranked {
		if !dedup.Seen(&ranked[i]) {
			unique = append(unique, ranked[i])
		}
	}
	if len(unique) > opts.TopK {
		unique = unique[:opts.TopK]
	}

	metrics.Discovery(len(candidates), len(candidates)-len(ranked),
		dedup.URLDuplicates(), dedup.TitleDuplicates(), len(unique))
	p.logger.Info("selection complete",
		"ranked", len(ranked),
		"url_duplicates", dedup.URLDuplicates(),
		"title_duplicates", dedup.TitleDuplicates(),
		"selected", len(unique))
	return unique
}

type fetchedArticle struct {
	article models.Article
	html    string
}

func (p *Pipeline) fetchAll(ctx context.Context, opts Options, articles []models.Article, metrics *Metrics) []fetchedArticle {
	start := time.Now()
	defer func() { metrics.Phase("fetch", time.Since(start)) }()
	if len(articles) == 0 {
		return nil
	}

	// Results land at their input index so rank order survives the
	// nondeterministic worker completion order.
	results := make([]*fetchedArticle, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, a := range articles {
		i, a := i, a
		g.Go(func() error {
			html, err := p.fetcher.Fetch(gctx, a.URL)
			if err != nil {
				skipped := errors.Is(err, fetch.ErrRobotsDisallowed)
				metrics.FetchResult(false, skipped)
				metrics.Error(err.Error())
				p.logger.Warn("fetch failed", "url", a.URL, "skipped", skipped, "error", err)
				return nil
			}
			metrics.FetchResult(true, false)
			if p.artifacts != nil {
				if _, err := p.artifacts.SaveRaw(opts.Ticker, a.URL, html, time.Now()); err != nil {
					p.logger.Warn("saving raw html failed", "url", a.URL, "error", err)
				}
			}
			results[i] = &fetchedArticle{article: a, html: html}
			return nil
		})
	}
	g.Wait()

	fetched := make([]fetchedArticle, 0, len(articles))
	for _, r := range results {
		if r != nil {
			fetched = append(fetched, *r)
		}
	}
	return fetched
}

type extractedArticle struct {
	article models.Article
	content *models.Content
}

func (p *Pipeline) extractAll(opts Options, fetched []fetchedArticle, metrics *Metrics) []extractedArticle {
	start := time.Now()
	defer func() { metrics.Phase("extract", time.Since(start)) }()
	if len(fetched) == 0 {
		return nil
	}

	contentDedup := discovery.NewContentDeduplicator()
	extracted := make([]extractedArticle, 0, len(fetched))
	for _, f := range fetched {
		content, err := p.extractor.Parse(f.article.URL, f.html)
		if err != nil {
			metrics.ExtractResult(false, false, false)
			metrics.Error(err.Error())
			p.logger.Warn("extraction failed", "url", f.article.URL, "error", err)
			continue
		}
		if content.TooShort {
			metrics.ExtractResult(false, true, false)
			p.logger.Debug("article text too short", "url", f.article.URL, "chars", len(content.Text))
			continue
		}
		if first, dup := contentDedup.Seen(f.article.URL, content.Text); dup {
			metrics.ExtractResult(false, false, false)
			p.logger.Debug("duplicate content dropped", "url", f.article.URL, "duplicate_of", first)
			continue
		}
		metrics.ExtractResult(true, false, content.TooLong)
		if p.artifacts != nil {
			if _, err := p.artifacts.SaveParsed(opts.Ticker, content, time.Now()); err != nil {
				p.logger.Warn("saving parsed content failed", "url", f.article.URL, "error", err)
			}
		}
		extracted = append(extracted, extractedArticle{article: f.article, content: content})
	}
	return extracted
}

func (p *Pipeline) analyzeAll(ctx context.Context, opts Options, extracted []extractedArticle, metrics *Metrics) []models.AnalyzedArticle {
	start := time.Now()
	defer func() { metrics.Phase("analyze", time.Since(start)) }()
	if len(extracted) == 0 {
		return nil
	}

	results := make([]*models.AnalyzedArticle, len(extracted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, e := range extracted {
		i, e := i, e
		g.Go(func() error {
			s, err := p.analyzer.Analyze(gctx, e.content.Text)
			if err != nil {
				metrics.AnalyzeResult(false)
				metrics.Error(err.Error())
				p.logger.Warn("analysis failed", "url", e.article.URL, "error", err)
				return nil
			}
			metrics.AnalyzeResult(true)
			results[i] = &models.AnalyzedArticle{
				Article:   e.article,
				Content:   e.content,
				Sentiment: s,
			}
			return nil
		})
	}
	g.Wait()

	analyzed := make([]models.AnalyzedArticle, 0, len(extracted))
	for _, r := range results {
		if r != nil {
			analyzed = append(analyzed, *r)
		}
	}
	return analyzed
}

func overallLabel(s models.AggregatedSentiment) string {
	if s.Overall == nil {
		return string(models.LabelNeutral)
	}
	return string(s.Overall.Label)
}
