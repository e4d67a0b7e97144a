// Package models defines the shared data types that flow through the
// earnings sentiment pipeline: discovered article candidates, extracted
// content, per-article sentiment, and the aggregated report.
package models

import "time"

// Article is a candidate article produced by discovery. RelevanceScore is
// only meaningful after the filter stage has scored the article, and
// NormalizedURL is only set once the deduplicator has seen it.
type Article struct {
	URL           string    `json:"url"`
	NormalizedURL string    `json:"normalized_url,omitempty"`
	Title         string    `json:"title,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	Published     time.Time `json:"published,omitempty"` // zero value means unknown
	Source        string    `json:"source,omitempty"`
	Domain        string    `json:"domain,omitempty"`

	// QualityScore is the static per-source trust weight from the sources
	// config, in [0, 1]. The zero value is treated as "not set" and scored
	// as the 0.5 default.
	QualityScore float64 `json:"quality_score,omitempty"`

	RelevanceScore float64   `json:"relevance_score,omitempty"`
	DiscoveredAt   time.Time `json:"discovered_at,omitempty"`
}

// Content is the extracted and cleaned article body.
type Content struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Author    string    `json:"author,omitempty"`
	Published time.Time `json:"published,omitempty"`
	Text      string    `json:"text"`
	WordCount int       `json:"word_count"`

	TooShort  bool `json:"too_short,omitempty"`
	TooLong   bool `json:"too_long,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
}

// AnalyzedArticle couples a discovered article with its extracted content
// and sentiment. This is the shape the aggregator consumes.
type AnalyzedArticle struct {
	Article   Article   `json:"article"`
	Content   *Content  `json:"content,omitempty"`
	Sentiment Sentiment `json:"sentiment"`
}
