package discovery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is one RSS feed. URL may contain a {ticker} placeholder that is
// substituted per run.
type Source struct {
	Name         string  `yaml:"name"`
	URL          string  `yaml:"rss_url"`
	QualityScore float64 `yaml:"quality_score,omitempty"`
}

// Tier groups sources that share a trust level.
type Tier struct {
	QualityScore float64  `yaml:"quality_score"`
	Sources      []Source `yaml:"sources"`
}

// SourcesConfig is the parsed sources file: tiered feeds plus an optional
// ticker-to-company-name map used by the relevance scorer.
type SourcesConfig struct {
	Tiers     map[string]Tier   `yaml:"tiers"`
	Companies map[string]string `yaml:"companies,omitempty"`
}

// LoadSources reads and validates a sources YAML file.
func LoadSources(path string) (*SourcesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	var cfg SourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}
	if len(cfg.Tiers) == 0 {
		return nil, fmt.Errorf("sources file %s defines no tiers", path)
	}
	for name, tier := range cfg.Tiers {
		if tier.QualityScore < 0 || tier.QualityScore > 1 {
			return nil, fmt.Errorf("tier %s: quality_score %v outside [0, 1]", name, tier.QualityScore)
		}
		for _, s := range tier.Sources {
			if s.Name == "" || s.URL == "" {
				return nil, fmt.Errorf("tier %s: source needs both name and rss_url", name)
			}
			if s.QualityScore < 0 || s.QualityScore > 1 {
				return nil, fmt.Errorf("source %s: quality_score %v outside [0, 1]", s.Name, s.QualityScore)
			}
		}
	}
	return &cfg, nil
}

// AllSources flattens the tiers into a deterministic list. Sources without
// their own quality score inherit the tier's. Order is by tier name, then
// source position within the tier.
func (c *SourcesConfig) AllSources() []Source {
	names := make([]string, 0, len(c.Tiers))
	for name := range c.Tiers {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Source
	for _, name := range names {
		tier := c.Tiers[name]
		for _, s := range tier.Sources {
			if s.QualityScore == 0 {
				s.QualityScore = tier.QualityScore
			}
			out = append(out, s)
		}
	}
	return out
}

// CompanyName resolves the display name for a ticker, falling back to the
// ticker itself when the sources file has no mapping.
func (c *SourcesConfig) CompanyName(ticker string) string {
	if name, ok := c.Companies[strings.ToUpper(ticker)]; ok && name != "" {
		return name
	}
	return ticker
}

// ExpandURL substitutes the {ticker} placeholder in a feed URL.
func ExpandURL(templateURL, ticker string) string {
	return strings.ReplaceAll(templateURL, "{ticker}", strings.ToUpper(ticker))
}
