package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/seenimoa/earnscope/pkg/models"
)

// VADER scores text with the VADER lexicon. The underlying analyzer is
// stateless per call, so one instance serves concurrent goroutines.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVADER builds a VADER analyzer with the stock lexicon.
func NewVADER() *VADER {
	return &VADER{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Name implements Analyzer.
func (v *VADER) Name() string { return string(models.ModelVADER) }

// Analyze scores text. Empty or whitespace-only text yields the canonical
// neutral result. Confidence is the magnitude of the compound score.
func (v *VADER) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		res := models.NeutralVADERResult()
		return models.Sentiment{VADER: &res}, nil
	}

	scores := v.analyzer.PolarityScores(text)
	res := models.SentimentResult{
		Model:      models.ModelVADER,
		Compound:   scores.Compound,
		Positive:   scores.Positive,
		Negative:   scores.Negative,
		Neutral:    scores.Neutral,
		Label:      models.DeriveVADERLabel(scores.Compound),
		Confidence: math.Abs(scores.Compound),
	}
	return models.Sentiment{VADER: &res}, nil
}
