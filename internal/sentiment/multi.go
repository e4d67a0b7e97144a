package sentiment

import (
	"context"
	"fmt"

	"github.com/seenimoa/earnscope/pkg/models"
)

// Multi runs several analyzers on the same text and attaches a consensus
// vote. All analyzers must succeed; a failing model fails the article.
type Multi struct {
	analyzers []Analyzer
}

// NewMulti combines analyzers. Order does not affect the vote.
func NewMulti(analyzers ...Analyzer) *Multi {
	return &Multi{analyzers: analyzers}
}

// Name implements Analyzer.
func (m *Multi) Name() string { return "multi" }

// Analyze runs every model and merges their results into one Sentiment
// with a consensus label.
func (m *Multi) Analyze(ctx context.Context, text string) (models.Sentiment, error) {
	var merged models.Sentiment
	for _, a := range m.analyzers {
		s, err := a.Analyze(ctx, text)
		if err != nil {
			return models.Sentiment{}, fmt.Errorf("model %s: %w", a.Name(), err)
		}
		if s.VADER != nil {
			merged.VADER = s.VADER
		}
		if s.FinBERT != nil {
			merged.FinBERT = s.FinBERT
		}
	}
	merged.Consensus = vote(merged)
	return merged, nil
}

// vote majority-votes the per-model labels. A tie yields neutral with the
// tied models' mean confidence and the plurality share as agreement.
func vote(s models.Sentiment) *models.Consensus {
	var results []*models.SentimentResult
	for _, r := range []*models.SentimentResult{s.VADER, s.FinBERT} {
		if r != nil {
			results = append(results, r)
		}
	}
	if len(results) == 0 {
		return nil
	}

	counts := make(map[models.Label]int)
	for _, r := range results {
		counts[r.Label]++
	}

	winner := models.LabelNeutral
	best := 0
	tied := false
	for _, label := range []models.Label{models.LabelPositive, models.LabelNegative, models.LabelNeutral} {
		switch {
		case counts[label] > best:
			winner, best, tied = label, counts[label], false
		case counts[label] == best && counts[label] > 0 && label != winner:
			tied = true
		}
	}
	if tied {
		winner = models.LabelNeutral
	}

	var confSum float64
	agreeing := 0
	for _, r := range results {
		if tied || r.Label == winner {
			confSum += r.Confidence
			agreeing++
		}
	}

	c := &models.Consensus{
		Label:     winner,
		Agreement: float64(best) / float64(len(results)),
	}
	if agreeing > 0 {
		c.Confidence = confSum / float64(agreeing)
	}
	return c
}
