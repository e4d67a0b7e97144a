package models

import "time"

// ModelAggregate is the combined score for one model across articles.
// Distribution counts raw per-article labels and is never weighted.
type ModelAggregate struct {
	Compound     float64       `json:"compound,omitempty"`
	Positive     float64       `json:"positive,omitempty"`
	Negative     float64       `json:"negative,omitempty"`
	Neutral      float64       `json:"neutral,omitempty"`
	Label        Label         `json:"label"`
	Confidence   float64       `json:"confidence"`
	Distribution map[Label]int `json:"distribution,omitempty"`
}

// Statistics counts the labels actually assigned per article. It is an
// independent cross-check and may disagree with Overall.Label when models
// disagree.
type Statistics struct {
	TotalArticles int     `json:"total_articles"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
	NeutralRatio  float64 `json:"neutral_ratio"`
}

// ArticleSummary is the lightweight per-article record carried in the
// aggregated report. Title is truncated to 100 characters.
type ArticleSummary struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Sentiment      Sentiment `json:"sentiment"`
	RelevanceScore float64   `json:"relevance_score,omitempty"`
	QualityScore   float64   `json:"quality_score,omitempty"`
	Source         string    `json:"source,omitempty"`
}

// AggregatedSentiment is the combined sentiment across all analyzed
// articles. Model aggregates are nil when no article carried that model's
// result; Overall mirrors the single model's aggregate when exactly one
// model was in play.
type AggregatedSentiment struct {
	VADER      *ModelAggregate  `json:"vader,omitempty"`
	FinBERT    *ModelAggregate  `json:"finbert,omitempty"`
	Overall    *ModelAggregate  `json:"overall,omitempty"`
	Statistics Statistics       `json:"statistics"`
	Articles   []ArticleSummary `json:"articles"`
}

// DateRange is the inclusive article-search window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RunConfig records the configuration knobs that shaped a run.
type RunConfig struct {
	SentimentModel string `json:"sentiment_model"`
	TopK           int    `json:"top_k"`
}

// Report is the persisted result of one pipeline run.
type Report struct {
	Ticker           string              `json:"ticker"`
	Timestamp        time.Time           `json:"timestamp"`
	DateRange        DateRange           `json:"date_range"`
	SentimentSummary AggregatedSentiment `json:"sentiment_summary"`
	Articles         []AnalyzedArticle   `json:"articles"`
	Metrics          MetricsSummary      `json:"metrics"`
	Configuration    RunConfig           `json:"configuration"`
}
