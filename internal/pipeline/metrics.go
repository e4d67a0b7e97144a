package pipeline

import (
	"sync"
	"time"

	"github.com/seenimoa/earnscope/pkg/models"
)

// maxErrorMessages bounds how many error strings the summary carries.
const maxErrorMessages = 20

// Metrics accumulates counters across pipeline phases. Safe for
// concurrent use; fetch and analysis update it from worker goroutines.
type Metrics struct {
	mu sync.Mutex

	discovered int
	filtered   int
	urlDups    int
	titleDups  int
	toFetch    int

	fetchOK      int
	fetchFailed  int
	fetchSkipped int

	extractOK     int
	extractFailed int
	tooShort      int
	tooLong       int

	analyzed      int
	analyzeFailed int

	started time.Time
	phases  map[string]time.Duration
	errors  []string
}

// NewMetrics starts a metrics collection clocked from now.
func NewMetrics() *Metrics {
	return &Metrics{
		started: time.Now(),
		phases:  make(map[string]time.Duration),
	}
}

// Phase records the duration of one named phase.
func (m *Metrics) Phase(name string, d time.Duration) {
	m.mu.Lock()
	m.phases[name] = d
	m.mu.Unlock()
}

// Discovery records the discovery funnel counts, with URL and title
// duplicates tallied separately.
func (m *Metrics) Discovery(discovered, filtered, urlDups, titleDups, toFetch int) {
	m.mu.Lock()
	m.discovered = discovered
	m.filtered = filtered
	m.urlDups = urlDups
	m.titleDups = titleDups
	m.toFetch = toFetch
	m.mu.Unlock()
}

// FetchResult tallies one fetch outcome.
func (m *Metrics) FetchResult(ok, skipped bool) {
	m.mu.Lock()
	switch {
	case ok:
		m.fetchOK++
	case skipped:
		m.fetchSkipped++
	default:
		m.fetchFailed++
	}
	m.mu.Unlock()
}

// ExtractResult tallies one extraction outcome.
func (m *Metrics) ExtractResult(ok, tooShort, tooLong bool) {
	m.mu.Lock()
	switch {
	case tooShort:
		m.tooShort++
		m.extractFailed++
	case ok:
		m.extractOK++
		if tooLong {
			m.tooLong++
		}
	default:
		m.extractFailed++
	}
	m.mu.Unlock()
}

// AnalyzeResult tallies one sentiment analysis outcome.
func (m *Metrics) AnalyzeResult(ok bool) {
	m.mu.Lock()
	if ok {
		m.analyzed++
	} else {
		m.analyzeFailed++
	}
	m.mu.Unlock()
}

// Error records a non-fatal error message, keeping only the first few.
func (m *Metrics) Error(msg string) {
	m.mu.Lock()
	if len(m.errors) < maxErrorMessages {
		m.errors = append(m.errors, msg)
	}
	m.mu.Unlock()
}

// Summary snapshots the counters into the report shape.
func (m *Metrics) Summary() models.MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	phases := make(map[string]float64, len(m.phases))
	for name, d := range m.phases {
		phases[name] = d.Seconds()
	}
	errs := make([]string, len(m.errors))
	copy(errs, m.errors)

	return models.MetricsSummary{
		Discovery: models.DiscoveryMetrics{
			URLsDiscovered:  m.discovered,
			URLsFiltered:    m.filtered,
			URLDuplicates:   m.urlDups,
			TitleDuplicates: m.titleDups,
			URLsToFetch:     m.toFetch,
		},
		Fetching: models.FetchMetrics{
			Success:        m.fetchOK,
			Failed:         m.fetchFailed,
			Skipped:        m.fetchSkipped,
			SuccessRatePct: pct(m.fetchOK, m.fetchOK+m.fetchFailed+m.fetchSkipped),
		},
		Extraction: models.ExtractionMetrics{
			Success:        m.extractOK,
			Failed:         m.extractFailed,
			TooShort:       m.tooShort,
			TooLong:        m.tooLong,
			SuccessRatePct: pct(m.extractOK, m.extractOK+m.extractFailed),
		},
		Sentiment: models.SentimentMetrics{
			Analyzed:       m.analyzed,
			Failed:         m.analyzeFailed,
			SuccessRatePct: pct(m.analyzed, m.analyzed+m.analyzeFailed),
		},
		Performance: models.PerformanceMetrics{
			TotalDurationSeconds: time.Since(m.started).Seconds(),
			PhaseDurations:       phases,
		},
		Errors: models.ErrorMetrics{
			Count:    len(errs),
			Messages: errs,
		},
	}
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
