package sentiment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seenimoa/earnscope/internal/config"
	"github.com/seenimoa/earnscope/pkg/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		model    string
		wantName string
		wantErr  bool
	}{
		{"vader", "vader", false},
		{"finbert", "finbert", false},
		{"multi", "multi", false},
		{"bert", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			a, err := New(config.SentimentConfig{Model: tt.model, FinBERTURL: "http://localhost:8501"})
			if tt.wantErr {
				if err == nil {
					t.Error("New() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if a.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", a.Name(), tt.wantName)
			}
		})
	}
}

func TestVADERAnalyze(t *testing.T) {
	v := NewVADER()
	ctx := context.Background()

	pos, err := v.Analyze(ctx, "The company reported excellent record profits and fantastic growth.")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if pos.VADER == nil {
		t.Fatal("VADER result missing")
	}
	if pos.VADER.Label != models.LabelPositive {
		t.Errorf("positive text labeled %q (compound %v)", pos.VADER.Label, pos.VADER.Compound)
	}

	neg, err := v.Analyze(ctx, "The company reported terrible losses and a disastrous awful decline.")
	if err != nil {
		t.Fatal(err)
	}
	if neg.VADER.Label != models.LabelNegative {
		t.Errorf("negative text labeled %q (compound %v)", neg.VADER.Label, neg.VADER.Compound)
	}
}

func TestVADERAnalyzeEmptyText(t *testing.T) {
	v := NewVADER()
	for _, text := range []string{"", "   \n\t "} {
		s, err := v.Analyze(context.Background(), text)
		if err != nil {
			t.Fatalf("Analyze(%q) error: %v", text, err)
		}
		r := s.VADER
		if r.Label != models.LabelNeutral || r.Confidence != 0 || r.Neutral != 1 {
			t.Errorf("Analyze(%q) = %+v, want canonical neutral", text, *r)
		}
	}
}

func TestFinBERTAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %q, want /analyze", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("empty request body")
		}
		io.WriteString(w, `{"positive": 0.7, "negative": 0.1, "neutral": 0.2}`)
	}))
	defer srv.Close()

	f := NewFinBERT(srv.URL, srv.Client())
	s, err := f.Analyze(context.Background(), "Revenue grew strongly this quarter.")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	r := s.FinBERT
	if r == nil {
		t.Fatal("FinBERT result missing")
	}
	if r.Label != models.LabelPositive {
		t.Errorf("Label = %q, want positive", r.Label)
	}
	if r.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", r.Confidence)
	}
}

func TestFinBERTAnalyzeEmptySkipsNetwork(t *testing.T) {
	f := NewFinBERT("http://127.0.0.1:1", nil) // nothing listens here
	s, err := f.Analyze(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if s.FinBERT.Label != models.LabelNeutral {
		t.Errorf("Label = %q, want neutral", s.FinBERT.Label)
	}
}

func TestFinBERTAnalyzeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFinBERT(srv.URL, srv.Client())
	if _, err := f.Analyze(context.Background(), "text"); err == nil {
		t.Error("Analyze() = nil error on HTTP 500, want error")
	}
}

type stubAnalyzer struct {
	name   string
	result models.Sentiment
}

func (s stubAnalyzer) Name() string { return s.name }
func (s stubAnalyzer) Analyze(context.Context, string) (models.Sentiment, error) {
	return s.result, nil
}

func stubResult(model models.ModelName, label models.Label, conf float64) models.Sentiment {
	r := models.SentimentResult{Model: model, Label: label, Confidence: conf}
	if model == models.ModelVADER {
		return models.Sentiment{VADER: &r}
	}
	return models.Sentiment{FinBERT: &r}
}

func TestMultiConsensusAgreement(t *testing.T) {
	m := NewMulti(
		stubAnalyzer{"vader", stubResult(models.ModelVADER, models.LabelPositive, 0.8)},
		stubAnalyzer{"finbert", stubResult(models.ModelFinBERT, models.LabelPositive, 0.6)},
	)
	s, err := m.Analyze(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	c := s.Consensus
	if c == nil {
		t.Fatal("Consensus missing")
	}
	if c.Label != models.LabelPositive {
		t.Errorf("Label = %q, want positive", c.Label)
	}
	if c.Agreement != 1.0 {
		t.Errorf("Agreement = %v, want 1.0", c.Agreement)
	}
	if c.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want mean 0.7", c.Confidence)
	}
}

func TestMultiConsensusDisagreement(t *testing.T) {
	m := NewMulti(
		stubAnalyzer{"vader", stubResult(models.ModelVADER, models.LabelPositive, 0.8)},
		stubAnalyzer{"finbert", stubResult(models.ModelFinBERT, models.LabelNegative, 0.6)},
	)
	s, err := m.Analyze(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	c := s.Consensus
	if c.Label != models.LabelNeutral {
		t.Errorf("Label = %q, want neutral on a split vote", c.Label)
	}
	if c.Agreement != 0.5 {
		t.Errorf("Agreement = %v, want 0.5", c.Agreement)
	}
	if s.AssignedLabel() != models.LabelNeutral {
		t.Errorf("AssignedLabel() = %q, want consensus label", s.AssignedLabel())
	}
}
