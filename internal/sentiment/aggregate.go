package sentiment

import (
	"github.com/seenimoa/earnscope/pkg/models"
	"github.com/seenimoa/earnscope/pkg/utils"
)

// Weight mix for WeightsFor: relevance dominates, source quality refines.
const (
	relevanceWeight = 0.6
	qualityWeight   = 0.4
)

const titleSummaryLimit = 100

// Aggregate combines per-article sentiment with equal weight per article.
// An empty input yields zeroed statistics, an empty article list, and no
// model aggregates.
func Aggregate(articles []models.AnalyzedArticle) models.AggregatedSentiment {
	return AggregateWeighted(articles, nil)
}

// AggregateWeighted combines per-article sentiment with one weight per
// article. Articles carrying no model result at all are excluded before
// anything is counted. A nil weight slice, a slice of the wrong length,
// or weights that sum to zero all fall back to uniform weighting.
func AggregateWeighted(articles []models.AnalyzedArticle, weights []float64) models.AggregatedSentiment {
	articles, weights = withSentiment(articles, weights)

	agg := models.AggregatedSentiment{
		Articles: make([]models.ArticleSummary, 0, len(articles)),
	}
	if len(articles) == 0 {
		return agg
	}

	weights = normalizeWeights(articles, weights)

	agg.VADER = aggregateModel(articles, weights, func(s models.Sentiment) *models.SentimentResult { return s.VADER })
	agg.FinBERT = aggregateModel(articles, weights, func(s models.Sentiment) *models.SentimentResult { return s.FinBERT })
	agg.Overall = overall(agg.VADER, agg.FinBERT, articles)
	agg.Statistics = statistics(articles)

	for _, a := range articles {
		agg.Articles = append(agg.Articles, models.ArticleSummary{
			URL:            a.Article.URL,
			Title:          utils.TruncateRunes(a.Article.Title, titleSummaryLimit),
			Sentiment:      a.Sentiment,
			RelevanceScore: a.Article.RelevanceScore,
			QualityScore:   a.Article.QualityScore,
			Source:         a.Article.Source,
		})
	}
	return agg
}

// WeightsFor derives per-article aggregation weights from relevance and
// source quality.
func WeightsFor(articles []models.AnalyzedArticle) []float64 {
	weights := make([]float64, len(articles))
	for i, a := range articles {
		quality := a.Article.QualityScore
		if quality == 0 {
			quality = 0.5
		}
		weights[i] = relevanceWeight*a.Article.RelevanceScore + qualityWeight*quality
	}
	return weights
}

// withSentiment drops articles that carry no model result, keeping any
// caller-supplied weights aligned with the survivors. Weights of the
// wrong length are discarded so that uniform weighting applies.
func withSentiment(articles []models.AnalyzedArticle, weights []float64) ([]models.AnalyzedArticle, []float64) {
	aligned := len(weights) == len(articles)
	kept := make([]models.AnalyzedArticle, 0, len(articles))
	var keptWeights []float64
	for i, a := range articles {
		if a.Sentiment.Empty() {
			continue
		}
		kept = append(kept, a)
		if aligned {
			keptWeights = append(keptWeights, weights[i])
		}
	}
	if !aligned {
		return kept, nil
	}
	return kept, keptWeights
}

// normalizeWeights returns per-article weights summing to 1, degrading to
// uniform whenever the input is unusable.
func normalizeWeights(articles []models.AnalyzedArticle, weights []float64) []float64 {
	n := len(articles)
	uniform := func() []float64 {
		w := make([]float64, n)
		for i := range w {
			w[i] = 1.0 / float64(n)
		}
		return w
	}

	if len(weights) != n {
		return uniform()
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return uniform()
		}
		sum += w
	}
	if sum == 0 {
		return uniform()
	}
	out := make([]float64, n)
	for i, w := range weights {
		out[i] = w / sum
	}
	return out
}

// aggregateModel folds one model's results across articles. Articles that
// lack this model's result are excluded and the surviving weights are
// renormalized. Returns nil when no article carries the model.
func aggregateModel(articles []models.AnalyzedArticle, weights []float64, pick func(models.Sentiment) *models.SentimentResult) *models.ModelAggregate {
	var (
		results   []*models.SentimentResult
		picked    []float64
		weightSum float64
	)
	for i, a := range articles {
		if r := pick(a.Sentiment); r != nil {
			results = append(results, r)
			picked = append(picked, weights[i])
			weightSum += weights[i]
		}
	}
	if len(results) == 0 {
		return nil
	}
	if weightSum == 0 {
		for i := range picked {
			picked[i] = 1.0 / float64(len(picked))
		}
		weightSum = 1
	}

	agg := &models.ModelAggregate{Distribution: make(map[models.Label]int)}
	var model models.ModelName
	for i, r := range results {
		w := picked[i] / weightSum
		agg.Compound += w * r.Compound
		agg.Positive += w * r.Positive
		agg.Negative += w * r.Negative
		agg.Neutral += w * r.Neutral
		agg.Confidence += w * r.Confidence
		agg.Distribution[r.Label]++
		model = r.Model
	}

	switch model {
	case models.ModelVADER:
		agg.Label = models.DeriveVADERLabel(agg.Compound)
	case models.ModelFinBERT:
		agg.Label = models.DeriveFinBERTLabel(agg.Positive, agg.Negative, agg.Neutral)
	}
	return agg
}

// overall picks the run-level aggregate: the single model's when only one
// ran, otherwise a vote over the per-article assigned labels.
func overall(vader, finbert *models.ModelAggregate, articles []models.AnalyzedArticle) *models.ModelAggregate {
	switch {
	case vader != nil && finbert == nil:
		cp := *vader
		return &cp
	case finbert != nil && vader == nil:
		cp := *finbert
		return &cp
	case vader == nil && finbert == nil:
		return nil
	}

	dist := make(map[models.Label]int)
	for _, a := range articles {
		if !a.Sentiment.Empty() {
			dist[a.Sentiment.AssignedLabel()]++
		}
	}
	winner := models.LabelNeutral
	best := 0
	for _, label := range []models.Label{models.LabelPositive, models.LabelNegative, models.LabelNeutral} {
		if dist[label] > best {
			winner, best = label, dist[label]
		}
	}

	agg := &models.ModelAggregate{
		Label:        winner,
		Confidence:   (vader.Confidence + finbert.Confidence) / 2,
		Distribution: dist,
	}
	return agg
}

// statistics counts the label each article was assigned.
func statistics(articles []models.AnalyzedArticle) models.Statistics {
	stats := models.Statistics{TotalArticles: len(articles)}
	for _, a := range articles {
		switch a.Sentiment.AssignedLabel() {
		case models.LabelPositive:
			stats.PositiveCount++
		case models.LabelNegative:
			stats.NegativeCount++
		default:
			stats.NeutralCount++
		}
	}
	if stats.TotalArticles > 0 {
		n := float64(stats.TotalArticles)
		stats.PositiveRatio = float64(stats.PositiveCount) / n
		stats.NegativeRatio = float64(stats.NegativeCount) / n
		stats.NeutralRatio = float64(stats.NeutralCount) / n
	}
	return stats
}
