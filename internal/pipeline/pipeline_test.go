package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/earnscope/internal/discovery"
	"github.com/seenimoa/earnscope/internal/fetch"
	"github.com/seenimoa/earnscope/pkg/models"
)

type stubDiscoverer struct {
	articles []models.Article
	err      error
}

func (s *stubDiscoverer) Discover(context.Context, []discovery.Source, string) ([]models.Article, error) {
	return s.articles, s.err
}

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if err, ok := s.fail[url]; ok {
		return "", err
	}
	if html, ok := s.pages[url]; ok {
		return html, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}

type stubExtractor struct{}

func (stubExtractor) Parse(url, html string) (*models.Content, error) {
	text := strings.TrimPrefix(html, "HTML:")
	if text == "" {
		return nil, errors.New("no content")
	}
	c := &models.Content{URL: url, Text: text, WordCount: len(strings.Fields(text))}
	if len(text) < 10 {
		c.TooShort = true
	}
	return c, nil
}

type stubAnalyzer struct {
	compounds map[string]float64 // keyed by text
}

func (stubAnalyzer) Name() string { return "vader" }

func (s stubAnalyzer) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	compound, ok := s.compounds[text]
	if !ok {
		return models.Sentiment{}, errors.New("model unavailable")
	}
	r := models.SentimentResult{
		Model:      models.ModelVADER,
		Compound:   compound,
		Label:      models.DeriveVADERLabel(compound),
		Confidence: 0.5,
	}
	return models.Sentiment{VADER: &r}, nil
}

type memoryArtifacts struct {
	mu      sync.Mutex
	raw     int
	parsed  int
	reports []*models.Report
}

func (m *memoryArtifacts) SaveRaw(string, string, string, time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw++
	return "raw", nil
}

func (m *memoryArtifacts) SaveParsed(string, *models.Content, time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsed++
	return "parsed", nil
}

func (m *memoryArtifacts) SaveReport(r *models.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return "/reports/run.json", nil
}

type memoryHistory struct {
	saved int
}

func (m *memoryHistory) SaveRun(context.Context, *models.Report, string) (int64, error) {
	m.saved++
	return int64(m.saved), nil
}

func testPipeline(d Discoverer, f Fetcher) (*Pipeline, *memoryArtifacts, *memoryHistory) {
	art := &memoryArtifacts{}
	hist := &memoryHistory{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analyzer := stubAnalyzer{compounds: map[string]float64{
		"positive earnings story with plenty of words": 0.8,
		"negative earnings story with plenty of words": -0.6,
	}}
	p := New(d, f, stubExtractor{}, analyzer, art, hist, logger)
	return p, art, hist
}

func testOptions() Options {
	now := time.Now()
	return Options{
		Ticker:      "ACME",
		Company:     "Acme",
		Window:      models.DateRange{Start: now.AddDate(0, 0, -7), End: now},
		TopK:        10,
		Concurrency: 2,
	}
}

func TestRunHappyPath(t *testing.T) {
	now := time.Now()
	d := &stubDiscoverer{articles: []models.Article{
		{URL: "https://a.com/pos", Title: "ACME earnings beat", Published: now},
		{URL: "https://a.com/neg", Title: "ACME earnings miss", Published: now},
	}}
	f := &stubFetcher{pages: map[string]string{
		"https://a.com/pos": "HTML:positive earnings story with plenty of words",
		"https://a.com/neg": "HTML:negative earnings story with plenty of words",
	}}
	p, art, hist := testPipeline(d, f)

	res, err := p.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	report := res.Report
	if report.SentimentSummary.Statistics.TotalArticles != 2 {
		t.Errorf("TotalArticles = %d, want 2", report.SentimentSummary.Statistics.TotalArticles)
	}
	if report.SentimentSummary.Overall == nil {
		t.Fatal("Overall missing")
	}
	if report.Metrics.Fetching.Success != 2 || report.Metrics.Sentiment.Analyzed != 2 {
		t.Errorf("metrics = %+v", report.Metrics)
	}
	if len(art.reports) != 1 || art.raw != 2 || art.parsed != 2 {
		t.Errorf("artifacts: reports=%d raw=%d parsed=%d", len(art.reports), art.raw, art.parsed)
	}
	if hist.saved != 1 || res.RunID != 1 {
		t.Errorf("history: saved=%d id=%d", hist.saved, res.RunID)
	}
	if res.ReportPath == "" {
		t.Error("ReportPath empty")
	}
}

func TestRunDiscoveryFailureAborts(t *testing.T) {
	d := &stubDiscoverer{err: errors.New("all feeds down")}
	p, art, _ := testPipeline(d, &stubFetcher{})

	if _, err := p.Run(context.Background(), testOptions()); err == nil {
		t.Fatal("Run() = nil error, want discovery failure")
	}
	if len(art.reports) != 0 {
		t.Error("report persisted despite aborted run")
	}
}

func TestRunDropsFailingArticles(t *testing.T) {
	now := time.Now()
	d := &stubDiscoverer{articles: []models.Article{
		{URL: "https://a.com/good", Title: "ACME earnings beat", Published: now},
		{URL: "https://a.com/blocked", Title: "ACME results update", Published: now},
		{URL: "https://a.com/broken", Title: "ACME revenue outlook", Published: now},
	}}
	f := &stubFetcher{
		pages: map[string]string{
			"https://a.com/good": "HTML:positive earnings story with plenty of words",
		},
		fail: map[string]error{
			"https://a.com/blocked": fmt.Errorf("fetching: %w", fetch.ErrRobotsDisallowed),
			"https://a.com/broken":  errors.New("connection reset"),
		},
	}
	p, _, _ := testPipeline(d, f)

	res, err := p.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	m := res.Report.Metrics
	if m.Fetching.Success != 1 || m.Fetching.Skipped != 1 || m.Fetching.Failed != 1 {
		t.Errorf("fetch metrics = %+v", m.Fetching)
	}
	if res.Report.SentimentSummary.Statistics.TotalArticles != 1 {
		t.Errorf("TotalArticles = %d, want 1", res.Report.SentimentSummary.Statistics.TotalArticles)
	}
	if m.Errors.Count != 2 {
		t.Errorf("Errors.Count = %d, want 2", m.Errors.Count)
	}
}

func TestRunShortCircuitsOnEmptyDiscovery(t *testing.T) {
	d := &stubDiscoverer{}
	f := &stubFetcher{}
	p, art, hist := testPipeline(d, f)

	res, err := p.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("fetcher called %d times on empty discovery", len(f.calls))
	}
	stats := res.Report.SentimentSummary.Statistics
	if stats.TotalArticles != 0 {
		t.Errorf("TotalArticles = %d, want 0", stats.TotalArticles)
	}
	if res.Report.SentimentSummary.Overall != nil {
		t.Error("Overall present for empty run")
	}
	// The empty report is still persisted and recorded.
	if len(art.reports) != 1 || hist.saved != 1 {
		t.Errorf("empty run not persisted: reports=%d history=%d", len(art.reports), hist.saved)
	}
}

func TestRunDeduplicatesBeforeFetch(t *testing.T) {
	now := time.Now()
	d := &stubDiscoverer{articles: []models.Article{
		{URL: "https://www.a.com/story?utm_source=feed", Title: "ACME earnings beat", Published: now},
		{URL: "https://a.com/story/", Title: "ACME earnings beat again", Published: now},
	}}
	f := &stubFetcher{pages: map[string]string{
		"https://www.a.com/story?utm_source=feed": "HTML:positive earnings story with plenty of words",
	}}
	p, _, _ := testPipeline(d, f)

	res, err := p.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(f.calls) != 1 {
		t.Errorf("fetcher called %d times, want 1 after dedup", len(f.calls))
	}
	if res.Report.Metrics.Discovery.URLDuplicates != 1 {
		t.Errorf("URLDuplicates = %d, want 1", res.Report.Metrics.Discovery.URLDuplicates)
	}
	if res.Report.Metrics.Discovery.TitleDuplicates != 0 {
		t.Errorf("TitleDuplicates = %d, want 0", res.Report.Metrics.Discovery.TitleDuplicates)
	}
}

func TestRunRespectsTopK(t *testing.T) {
	now := time.Now()
	var articles []models.Article
	pages := map[string]string{}
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("https://a.com/story-%d", i)
		articles = append(articles, models.Article{URL: url, Title: fmt.Sprintf("ACME earnings update %d", i), Published: now})
		pages[url] = "HTML:positive earnings story with plenty of words"
	}
	d := &stubDiscoverer{articles: articles}
	f := &stubFetcher{pages: pages}
	p, _, _ := testPipeline(d, f)

	opts := testOptions()
	opts.TopK = 3
	res, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := res.Report.Metrics.Discovery.URLsToFetch; got != 3 {
		t.Errorf("URLsToFetch = %d, want 3", got)
	}
	if len(f.calls) != 3 {
		t.Errorf("fetcher called %d times, want 3", len(f.calls))
	}
}
