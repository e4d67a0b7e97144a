package sentiment

import (
	"math"
	"strings"
	"testing"

	"github.com/seenimoa/earnscope/pkg/models"
)

func vaderArticle(url string, compound float64) models.AnalyzedArticle {
	res := models.SentimentResult{
		Model:      models.ModelVADER,
		Compound:   compound,
		Label:      models.DeriveVADERLabel(compound),
		Confidence: math.Abs(compound),
	}
	return models.AnalyzedArticle{
		Article:   models.Article{URL: url, Title: "title for " + url},
		Sentiment: models.Sentiment{VADER: &res},
	}
}

func TestAggregateVADER(t *testing.T) {
	articles := []models.AnalyzedArticle{
		vaderArticle("a", 0.8),
		vaderArticle("b", 0.6),
		vaderArticle("c", -0.3),
	}
	agg := Aggregate(articles)

	if agg.VADER == nil || agg.Overall == nil {
		t.Fatal("VADER and Overall aggregates should be present")
	}
	if math.Abs(agg.Overall.Compound-0.3667) > 0.001 {
		t.Errorf("Overall.Compound = %v, want ~0.367", agg.Overall.Compound)
	}
	if agg.Overall.Label != models.LabelPositive {
		t.Errorf("Overall.Label = %q, want positive", agg.Overall.Label)
	}
	if agg.Statistics.PositiveCount != 2 || agg.Statistics.NegativeCount != 1 || agg.Statistics.NeutralCount != 0 {
		t.Errorf("counts = +%d/-%d/0:%d, want +2/-1/0:0",
			agg.Statistics.PositiveCount, agg.Statistics.NegativeCount, agg.Statistics.NeutralCount)
	}
	if agg.VADER.Distribution[models.LabelPositive] != 2 || agg.VADER.Distribution[models.LabelNegative] != 1 {
		t.Errorf("Distribution = %v", agg.VADER.Distribution)
	}
	if agg.FinBERT != nil {
		t.Error("FinBERT aggregate present without FinBERT results")
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)

	if agg.Overall != nil || agg.VADER != nil || agg.FinBERT != nil {
		t.Error("empty input produced model aggregates")
	}
	if agg.Statistics.TotalArticles != 0 {
		t.Errorf("TotalArticles = %d, want 0", agg.Statistics.TotalArticles)
	}
	if agg.Articles == nil || len(agg.Articles) != 0 {
		t.Errorf("Articles = %v, want empty non-nil slice", agg.Articles)
	}
}

func TestAggregateSkipsArticlesWithoutSentiment(t *testing.T) {
	blank := func(url string) models.AnalyzedArticle {
		return models.AnalyzedArticle{Article: models.Article{URL: url}}
	}

	agg := Aggregate([]models.AnalyzedArticle{blank("a"), blank("b")})
	if agg.Statistics.TotalArticles != 0 {
		t.Errorf("TotalArticles = %d, want 0", agg.Statistics.TotalArticles)
	}
	if agg.Articles == nil || len(agg.Articles) != 0 {
		t.Errorf("Articles = %v, want empty non-nil slice", agg.Articles)
	}
	if agg.Overall != nil || agg.VADER != nil || agg.FinBERT != nil {
		t.Error("articles without sentiment produced model aggregates")
	}

	// A blank article mixed in neither counts nor shifts the result, and
	// its weight is dropped along with it.
	mixed := AggregateWeighted(
		[]models.AnalyzedArticle{blank("a"), vaderArticle("b", 0.8)},
		[]float64{0.9, 0.1},
	)
	if mixed.Statistics.TotalArticles != 1 {
		t.Errorf("TotalArticles = %d, want 1", mixed.Statistics.TotalArticles)
	}
	if len(mixed.Articles) != 1 || mixed.Articles[0].URL != "b" {
		t.Errorf("Articles = %+v, want only %q", mixed.Articles, "b")
	}
	if mixed.Overall == nil || math.Abs(mixed.Overall.Compound-0.8) > 1e-9 {
		t.Errorf("Overall = %+v, want compound 0.8", mixed.Overall)
	}
}

func TestAggregateRatiosSumToOne(t *testing.T) {
	articles := []models.AnalyzedArticle{
		vaderArticle("a", 0.9),
		vaderArticle("b", -0.9),
		vaderArticle("c", 0.0),
		vaderArticle("d", 0.2),
	}
	stats := Aggregate(articles).Statistics
	sum := stats.PositiveRatio + stats.NegativeRatio + stats.NeutralRatio
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("ratio sum = %v, want 1.0", sum)
	}
}

func TestAggregateWeightedReducesToUniform(t *testing.T) {
	articles := []models.AnalyzedArticle{
		vaderArticle("a", 0.8),
		vaderArticle("b", 0.6),
		vaderArticle("c", -0.3),
	}
	plain := Aggregate(articles)
	nilWeights := AggregateWeighted(articles, nil)
	zeroWeights := AggregateWeighted(articles, []float64{0, 0, 0})

	for name, agg := range map[string]models.AggregatedSentiment{"nil": nilWeights, "zero": zeroWeights} {
		if agg.Overall.Label != plain.Overall.Label {
			t.Errorf("%s weights: Overall.Label = %q, want %q", name, agg.Overall.Label, plain.Overall.Label)
		}
		if math.Abs(agg.Overall.Compound-plain.Overall.Compound) > 1e-9 {
			t.Errorf("%s weights: Compound = %v, want %v", name, agg.Overall.Compound, plain.Overall.Compound)
		}
	}
}

func TestAggregateWeightedShiftsResult(t *testing.T) {
	articles := []models.AnalyzedArticle{
		vaderArticle("neg", -0.6),
		vaderArticle("pos", 0.4),
	}
	// Uniform mean is -0.1 (negative); weighting the positive article
	// heavily flips the label.
	agg := AggregateWeighted(articles, []float64{0.1, 0.9})
	if agg.Overall.Label != models.LabelPositive {
		t.Errorf("Overall.Label = %q, want positive under skewed weights", agg.Overall.Label)
	}

	uniform := Aggregate(articles)
	if uniform.Overall.Label != models.LabelNegative {
		t.Errorf("uniform Overall.Label = %q, want negative", uniform.Overall.Label)
	}
	// Weighting never changes the raw counts.
	if agg.Statistics != uniform.Statistics {
		t.Errorf("Statistics changed under weighting: %+v vs %+v", agg.Statistics, uniform.Statistics)
	}
}

func TestAggregateTruncatesTitles(t *testing.T) {
	long := strings.Repeat("t", 150)
	a := vaderArticle("a", 0.5)
	a.Article.Title = long

	agg := Aggregate([]models.AnalyzedArticle{a})
	if got := len([]rune(agg.Articles[0].Title)); got != 100 {
		t.Errorf("summary title length = %d runes, want 100", got)
	}
}

func TestWeightsFor(t *testing.T) {
	articles := []models.AnalyzedArticle{
		{Article: models.Article{RelevanceScore: 1.0, QualityScore: 0.5}},
		{Article: models.Article{RelevanceScore: 0.5}}, // quality unset -> 0.5
	}
	w := WeightsFor(articles)
	if math.Abs(w[0]-0.8) > 1e-9 {
		t.Errorf("w[0] = %v, want 0.8", w[0])
	}
	if math.Abs(w[1]-0.5) > 1e-9 {
		t.Errorf("w[1] = %v, want 0.5", w[1])
	}
}

func TestAggregateMultiModelOverall(t *testing.T) {
	mk := func(url string, vc float64, fpos, fneg, fneu float64) models.AnalyzedArticle {
		v := models.SentimentResult{
			Model: models.ModelVADER, Compound: vc,
			Label: models.DeriveVADERLabel(vc), Confidence: math.Abs(vc),
		}
		f := models.SentimentResult{
			Model: models.ModelFinBERT, Positive: fpos, Negative: fneg, Neutral: fneu,
			Label: models.DeriveFinBERTLabel(fpos, fneg, fneu), Confidence: max3(fpos, fneg, fneu),
		}
		s := models.Sentiment{VADER: &v, FinBERT: &f}
		s.Consensus = vote(s)
		return models.AnalyzedArticle{Article: models.Article{URL: url}, Sentiment: s}
	}

	articles := []models.AnalyzedArticle{
		mk("a", 0.7, 0.8, 0.1, 0.1), // both positive
		mk("b", 0.5, 0.6, 0.2, 0.2), // both positive
		mk("c", -0.4, 0.1, 0.7, 0.2), // both negative
	}
	agg := Aggregate(articles)

	if agg.VADER == nil || agg.FinBERT == nil || agg.Overall == nil {
		t.Fatal("expected all three aggregates")
	}
	if agg.Overall.Label != models.LabelPositive {
		t.Errorf("Overall.Label = %q, want positive", agg.Overall.Label)
	}
	if agg.Overall.Distribution[models.LabelPositive] != 2 || agg.Overall.Distribution[models.LabelNegative] != 1 {
		t.Errorf("Overall.Distribution = %v", agg.Overall.Distribution)
	}
	if agg.Statistics.PositiveCount != 2 || agg.Statistics.NegativeCount != 1 {
		t.Errorf("statistics = %+v", agg.Statistics)
	}
}
