package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/seenimoa/earnscope/pkg/models"
)

// FinBERT calls a transformer inference service over HTTP. The service
// accepts {"text": ...} and returns class probabilities for positive,
// negative, and neutral.
type FinBERT struct {
	baseURL string
	client  *http.Client
}

// NewFinBERT builds a client for the inference service at baseURL. A nil
// httpClient gets a default with a 30s timeout.
func NewFinBERT(baseURL string, httpClient *http.Client) *FinBERT {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &FinBERT{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Name implements Analyzer.
func (f *FinBERT) Name() string { return string(models.ModelFinBERT) }

type finbertRequest struct {
	Text string `json:"text"`
}

type finbertResponse struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Analyze scores text via the inference service. Empty text short-circuits
// to the canonical neutral result without a network call. An unreachable
// service is a real error; the caller decides whether to drop the article
// or abort the run.
func (f *FinBERT) Analyze(ctx context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		res := models.NeutralFinBERTResult()
		return models.Sentiment{FinBERT: &res}, nil
	}

	payload, err := json.Marshal(finbertRequest{Text: text})
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("finbert: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("finbert: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("finbert: calling service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.Sentiment{}, fmt.Errorf("finbert: service returned HTTP %d", resp.StatusCode)
	}

	var out finbertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Sentiment{}, fmt.Errorf("finbert: decoding response: %w", err)
	}

	res := models.SentimentResult{
		Model:      models.ModelFinBERT,
		Positive:   out.Positive,
		Negative:   out.Negative,
		Neutral:    out.Neutral,
		Label:      models.DeriveFinBERTLabel(out.Positive, out.Negative, out.Neutral),
		Confidence: max3(out.Positive, out.Negative, out.Neutral),
	}
	return models.Sentiment{FinBERT: &res}, nil
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
