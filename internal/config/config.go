// Package config loads and validates earnscope configuration from YAML
// files and EARNSCOPE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Discovery  DiscoveryConfig  `mapstructure:"discovery" yaml:"discovery"`
	Fetch      FetchConfig      `mapstructure:"fetch" yaml:"fetch"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Sentiment  SentimentConfig  `mapstructure:"sentiment" yaml:"sentiment"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// DiscoveryConfig controls RSS discovery, relevance filtering, and
// deduplication.
type DiscoveryConfig struct {
	SourcesPath          string   `mapstructure:"sources_path" yaml:"sources_path"`
	WindowDays           int      `mapstructure:"window_days" yaml:"window_days"`
	TopK                 int      `mapstructure:"top_k" yaml:"top_k"`
	MaxArticlesPerSource int      `mapstructure:"max_articles_per_source" yaml:"max_articles_per_source"`
	ExcludeDomains       []string `mapstructure:"exclude_domains" yaml:"exclude_domains"`
	FeedCacheTTLSec      int      `mapstructure:"feed_cache_ttl_sec" yaml:"feed_cache_ttl_sec"`
}

// FetchConfig controls the article downloader.
type FetchConfig struct {
	UserAgent      string  `mapstructure:"user_agent" yaml:"user_agent"`
	TimeoutSec     int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Retries        int     `mapstructure:"retries" yaml:"retries"`
	RetryDelaySec  float64 `mapstructure:"retry_delay_sec" yaml:"retry_delay_sec"`
	RateLimitDelay float64 `mapstructure:"rate_limit_delay_sec" yaml:"rate_limit_delay_sec"`
	RespectRobots  bool    `mapstructure:"respect_robots" yaml:"respect_robots"`
	Concurrency    int     `mapstructure:"concurrency" yaml:"concurrency"`
}

// ExtractionConfig bounds the extracted article text.
type ExtractionConfig struct {
	MinTextLength int `mapstructure:"min_text_length" yaml:"min_text_length"`
	MaxTextLength int `mapstructure:"max_text_length" yaml:"max_text_length"`
}

// SentimentConfig selects the sentiment model.
type SentimentConfig struct {
	Model      string `mapstructure:"model" yaml:"model"`
	FinBERTURL string `mapstructure:"finbert_url" yaml:"finbert_url"`
}

// StorageConfig controls where artifacts and run history land.
type StorageConfig struct {
	RawDir     string `mapstructure:"raw_dir" yaml:"raw_dir"`
	ParsedDir  string `mapstructure:"parsed_dir" yaml:"parsed_dir"`
	ResultsDir string `mapstructure:"results_dir" yaml:"results_dir"`
	HistoryDB  string `mapstructure:"history_db" yaml:"history_db"`
	KeepRaw    bool   `mapstructure:"keep_raw" yaml:"keep_raw"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads configuration from the standard search paths and the
// environment. A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if home := homeDir(); home != "" {
		v.AddConfigPath(filepath.Join(home, ".earnscope"))
	}
	v.AddConfigPath("/etc/earnscope")

	v.SetEnvPrefix("EARNSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from an explicit path, still layering
// environment variables on top.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	v.SetEnvPrefix("EARNSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discovery.sources_path", "config/sources.yaml")
	v.SetDefault("discovery.window_days", 7)
	v.SetDefault("discovery.top_k", 20)
	v.SetDefault("discovery.max_articles_per_source", 10)
	v.SetDefault("discovery.exclude_domains", []string{
		"twitter.com", "x.com", "facebook.com", "reddit.com", "youtube.com",
	})
	v.SetDefault("discovery.feed_cache_ttl_sec", 600)

	v.SetDefault("fetch.user_agent", "earnscope/0.1 (+https://github.com/seenimoa/earnscope)")
	v.SetDefault("fetch.timeout_sec", 30)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.retry_delay_sec", 1.0)
	v.SetDefault("fetch.rate_limit_delay_sec", 1.0)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.concurrency", 4)

	v.SetDefault("extraction.min_text_length", 100)
	v.SetDefault("extraction.max_text_length", 50000)

	v.SetDefault("sentiment.model", "vader")
	v.SetDefault("sentiment.finbert_url", "http://localhost:8501")

	v.SetDefault("storage.raw_dir", "data/raw")
	v.SetDefault("storage.parsed_dir", "data/parsed")
	v.SetDefault("storage.results_dir", "data/results")
	v.SetDefault("storage.history_db", "data/earnscope.db")
	v.SetDefault("storage.keep_raw", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Sentiment.Model {
	case "vader", "finbert", "multi":
	default:
		return fmt.Errorf("sentiment.model must be vader, finbert, or multi, got %q", c.Sentiment.Model)
	}
	if c.Discovery.TopK <= 0 {
		return fmt.Errorf("discovery.top_k must be positive, got %d", c.Discovery.TopK)
	}
	if c.Discovery.WindowDays <= 0 {
		return fmt.Errorf("discovery.window_days must be positive, got %d", c.Discovery.WindowDays)
	}
	if c.Extraction.MinTextLength < 0 || c.Extraction.MaxTextLength < c.Extraction.MinTextLength {
		return fmt.Errorf("extraction text length bounds invalid: min=%d max=%d",
			c.Extraction.MinTextLength, c.Extraction.MaxTextLength)
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
