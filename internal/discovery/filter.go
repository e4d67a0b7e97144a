package discovery

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/earnscope/pkg/models"
)

// earningsKeywords drive the keyword component of the relevance score.
// Matching is case-insensitive substring; each distinct keyword adds 0.1
// up to the cap.
var earningsKeywords = []string{
	"earnings",
	"quarterly results",
	"reports earnings",
	"q1", "q2", "q3", "q4",
	"revenue",
	"profit",
	"eps",
	"guidance",
	"outlook",
	"conference call",
	"results",
}

// Scoring weights.
const (
	tickerWeight   = 0.5
	companyWeight  = 0.3
	keywordWeight  = 0.1
	keywordCap     = 0.5
	qualityWeight  = 0.3
	defaultQuality = 0.5
	recencyBonus   = 0.1
	recencyWindow  = 24 * time.Hour
	maxScore       = 2.0
	scorePrecision = 1000 // round to 3 decimal places
)

// Filter drops out-of-window and blocklisted articles, then scores and
// ranks the survivors by relevance to one ticker.
type Filter struct {
	ticker         string
	company        string
	start, end     time.Time
	excludeDomains []string

	tickerRe *regexp.Regexp
	now      func() time.Time
}

// NewFilter builds a filter for one ticker and date window. Company may be
// empty; excludeDomains entries match as case-insensitive substrings of
// the article domain.
func NewFilter(ticker, company string, start, end time.Time, excludeDomains []string) *Filter {
	lowered := make([]string, len(excludeDomains))
	for i, d := range excludeDomains {
		lowered[i] = strings.ToLower(d)
	}
	return &Filter{
		ticker:         strings.ToUpper(strings.TrimSpace(ticker)),
		company:        strings.ToLower(strings.TrimSpace(company)),
		start:          start,
		end:            end,
		excludeDomains: lowered,
		tickerRe:       regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(ticker)) + `\b`),
		now:            time.Now,
	}
}

// FilterArticles drops articles published outside the window and articles
// from excluded domains. Articles with no published timestamp pass the
// date check.
func (f *Filter) FilterArticles(articles []models.Article) []models.Article {
	kept := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if !a.Published.IsZero() {
			if a.Published.Before(f.start) || a.Published.After(f.end) {
				continue
			}
		}
		if f.domainExcluded(a.Domain) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func (f *Filter) domainExcluded(domain string) bool {
	d := strings.ToLower(domain)
	if d == "" {
		return false
	}
	for _, ex := range f.excludeDomains {
		if ex != "" && strings.Contains(d, ex) {
			return true
		}
	}
	return false
}

// ScoreRelevance assigns each article a relevance score and returns the
// list sorted by score descending. Equal scores keep their original order.
func (f *Filter) ScoreRelevance(articles []models.Article) []models.Article {
	scored := make([]models.Article, len(articles))
	copy(scored, articles)
	for i := range scored {
		scored[i].RelevanceScore = f.Score(scored[i])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// Score computes the relevance score of a single article.
func (f *Filter) Score(a models.Article) float64 {
	text := strings.ToLower(a.Title + " " + a.Summary)

	var score float64
	if f.ticker != "" && f.tickerRe.MatchString(text) {
		score += tickerWeight
	}
	if f.company != "" && strings.Contains(text, f.company) {
		score += companyWeight
	}

	var kw float64
	for _, k := range earningsKeywords {
		if strings.Contains(text, k) {
			kw += keywordWeight
		}
	}
	if kw > keywordCap {
		kw = keywordCap
	}
	score += kw

	quality := a.QualityScore
	if quality == 0 {
		quality = defaultQuality
	}
	score += quality * qualityWeight

	if !a.Published.IsZero() && f.now().Sub(a.Published) < recencyWindow {
		score += recencyBonus
	}

	if score > maxScore {
		score = maxScore
	}
	return math.Round(score*scorePrecision) / scorePrecision
}

// FilterAndRank filters, scores, and returns at most topK articles.
func (f *Filter) FilterAndRank(articles []models.Article, topK int) []models.Article {
	ranked := f.ScoreRelevance(f.FilterArticles(articles))
	if topK >= 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
