// Package sentiment scores article text with one or more models and
// aggregates per-article results into an overall reading.
package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/seenimoa/earnscope/internal/config"
	"github.com/seenimoa/earnscope/pkg/models"
)

// Analyzer scores one text. Implementations must return a canonical
// neutral result for empty text instead of failing.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, text string) (models.Sentiment, error)
}

// New builds the analyzer selected by cfg.Model: "vader", "finbert", or
// "multi" for both plus a consensus vote.
func New(cfg config.SentimentConfig) (Analyzer, error) {
	switch cfg.Model {
	case "vader":
		return NewVADER(), nil
	case "finbert":
		return NewFinBERT(cfg.FinBERTURL, nil), nil
	case "multi":
		return NewMulti(NewVADER(), NewFinBERT(cfg.FinBERTURL, nil)), nil
	default:
		return nil, fmt.Errorf("unknown sentiment model %q", cfg.Model)
	}
}

// defaultHTTPClient is used by the FinBERT client when none is supplied.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
