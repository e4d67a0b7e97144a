package models

// Label is a categorical sentiment classification.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// ModelName identifies a sentiment model.
type ModelName string

const (
	ModelVADER   ModelName = "vader"
	ModelFinBERT ModelName = "finbert"
)

// VADER compound thresholds for deriving a label.
const (
	VADERPositiveThreshold = 0.05
	VADERNegativeThreshold = -0.05
)

// SentimentResult is the output of one sentiment model for one text.
//
// For VADER, Compound is the signed scalar in [-1, 1] and the three
// component scores sum to roughly 1. For FinBERT, Compound is unused and
// Positive/Negative/Neutral are class probabilities summing to 1.
type SentimentResult struct {
	Model      ModelName `json:"model"`
	Compound   float64   `json:"compound,omitempty"`
	Positive   float64   `json:"positive"`
	Negative   float64   `json:"negative"`
	Neutral    float64   `json:"neutral"`
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
}

// Consensus is a majority vote across multiple model results. It is an
// aggregation policy layered on per-model output, not a model of its own.
type Consensus struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"` // mean confidence of agreeing models
	Agreement  float64 `json:"agreement"`  // fraction of models that agree
}

// Sentiment holds the per-model results attached to one article. In
// single-model runs exactly one field is set; in multi-model runs both
// model fields plus Consensus are set.
type Sentiment struct {
	VADER     *SentimentResult `json:"vader,omitempty"`
	FinBERT   *SentimentResult `json:"finbert,omitempty"`
	Consensus *Consensus       `json:"consensus,omitempty"`
}

// Empty reports whether no model produced a result.
func (s Sentiment) Empty() bool {
	return s.VADER == nil && s.FinBERT == nil
}

// AssignedLabel returns the label assigned to the article: the single
// model's label when one model ran, the consensus label when several did.
func (s Sentiment) AssignedLabel() Label {
	switch {
	case s.Consensus != nil:
		return s.Consensus.Label
	case s.VADER != nil && s.FinBERT == nil:
		return s.VADER.Label
	case s.FinBERT != nil && s.VADER == nil:
		return s.FinBERT.Label
	default:
		return LabelNeutral
	}
}

// DeriveVADERLabel maps a compound score onto a label using the fixed
// thresholds.
func DeriveVADERLabel(compound float64) Label {
	switch {
	case compound >= VADERPositiveThreshold:
		return LabelPositive
	case compound <= VADERNegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// DeriveFinBERTLabel picks the arg-max class. Exact ties resolve in
// positive, negative, neutral order.
func DeriveFinBERTLabel(positive, negative, neutral float64) Label {
	max := positive
	if negative > max {
		max = negative
	}
	if neutral > max {
		max = neutral
	}
	switch max {
	case positive:
		return LabelPositive
	case negative:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// NeutralVADERResult is the canonical zero-confidence result returned for
// empty or unanalyzable text.
func NeutralVADERResult() SentimentResult {
	return SentimentResult{Model: ModelVADER, Neutral: 1, Label: LabelNeutral}
}

// NeutralFinBERTResult is the FinBERT counterpart of NeutralVADERResult.
func NeutralFinBERTResult() SentimentResult {
	return SentimentResult{Model: ModelFinBERT, Neutral: 1, Label: LabelNeutral}
}
