package models

// MetricsSummary is the serializable snapshot of pipeline counters that is
// embedded in the persisted report.
type MetricsSummary struct {
	Discovery   DiscoveryMetrics   `json:"discovery"`
	Fetching    FetchMetrics       `json:"fetching"`
	Extraction  ExtractionMetrics  `json:"extraction"`
	Sentiment   SentimentMetrics   `json:"sentiment"`
	Performance PerformanceMetrics `json:"performance"`
	Errors      ErrorMetrics       `json:"errors"`
}

// DiscoveryMetrics counts the discovery phase funnel. URL and title
// duplicates are reported separately.
type DiscoveryMetrics struct {
	URLsDiscovered  int `json:"urls_discovered"`
	URLsFiltered    int `json:"urls_filtered"`
	URLDuplicates   int `json:"url_duplicates"`
	TitleDuplicates int `json:"title_duplicates"`
	URLsToFetch     int `json:"urls_to_fetch"`
}

// FetchMetrics counts download outcomes. Skipped covers robots.txt blocks.
type FetchMetrics struct {
	Success        int     `json:"success"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	SuccessRatePct float64 `json:"success_rate_pct"`
}

// ExtractionMetrics counts text extraction outcomes.
type ExtractionMetrics struct {
	Success        int     `json:"success"`
	Failed         int     `json:"failed"`
	TooShort       int     `json:"too_short"`
	TooLong        int     `json:"too_long"`
	SuccessRatePct float64 `json:"success_rate_pct"`
}

// SentimentMetrics counts analysis outcomes.
type SentimentMetrics struct {
	Analyzed       int     `json:"analyzed"`
	Failed         int     `json:"failed"`
	SuccessRatePct float64 `json:"success_rate_pct"`
}

// PerformanceMetrics records timing per phase and overall.
type PerformanceMetrics struct {
	TotalDurationSeconds float64            `json:"total_duration_seconds"`
	PhaseDurations       map[string]float64 `json:"phase_durations,omitempty"`
}

// ErrorMetrics carries the first recorded error messages.
type ErrorMetrics struct {
	Count    int      `json:"count"`
	Messages []string `json:"messages,omitempty"`
}
