// Command earnscope analyzes recent earnings news sentiment for a stock
// ticker: it discovers articles from configured RSS feeds, downloads and
// extracts their text, scores sentiment, and writes an aggregated report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/earnscope/internal/config"
	"github.com/seenimoa/earnscope/internal/discovery"
	"github.com/seenimoa/earnscope/internal/extract"
	"github.com/seenimoa/earnscope/internal/fetch"
	"github.com/seenimoa/earnscope/internal/pipeline"
	"github.com/seenimoa/earnscope/internal/sentiment"
	"github.com/seenimoa/earnscope/internal/storage"
	"github.com/seenimoa/earnscope/pkg/models"
	"github.com/seenimoa/earnscope/pkg/utils"
)

var version = "0.1.0"

var (
	cfg    *config.Config
	logger *slog.Logger

	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "earnscope",
	Short:         "Earnings news sentiment analysis",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		logger = newLogger(cfg.Logging)
		slog.SetDefault(logger)
		return nil
	},
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

var (
	runTicker string
	runWindow string
	runStart  string
	runEnd    string
	runTopK   int
	runModel  string
	runOutDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full sentiment pipeline for a ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		applyRunFlags()

		window, err := resolveWindow()
		if err != nil {
			return err
		}

		sources, err := discovery.LoadSources(cfg.Discovery.SourcesPath)
		if err != nil {
			return err
		}

		p, history, err := buildPipeline()
		if err != nil {
			return err
		}
		if history != nil {
			defer history.Close()
		}

		ticker := utils.NormalizeTicker(runTicker)
		result, err := p.Run(ctx, pipeline.Options{
			Ticker:      ticker,
			Company:     sources.CompanyName(ticker),
			Window:      window,
			TopK:        cfg.Discovery.TopK,
			Concurrency: cfg.Fetch.Concurrency,
			Sources:     sources.AllSources(),
			Exclude:     cfg.Discovery.ExcludeDomains,
		})
		if err != nil {
			return err
		}

		printSummary(result)
		return nil
	},
}

func applyRunFlags() {
	if runTopK > 0 {
		cfg.Discovery.TopK = runTopK
	}
	if runModel != "" {
		cfg.Sentiment.Model = runModel
	}
	if runOutDir != "" {
		cfg.Storage.ResultsDir = runOutDir
	}
}

func resolveWindow() (models.DateRange, error) {
	now := time.Now().UTC()

	if runStart != "" || runEnd != "" {
		if runStart == "" || runEnd == "" {
			return models.DateRange{}, fmt.Errorf("--start-date and --end-date must be given together")
		}
		start, err := time.Parse("2006-01-02", runStart)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("parsing --start-date: %w", err)
		}
		end, err := time.Parse("2006-01-02", runEnd)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("parsing --end-date: %w", err)
		}
		end = end.Add(24*time.Hour - time.Second)
		if end.Before(start) {
			return models.DateRange{}, fmt.Errorf("--end-date is before --start-date")
		}
		return models.DateRange{Start: start, End: end}, nil
	}

	windowSpec := runWindow
	if windowSpec == "" {
		windowSpec = fmt.Sprintf("%dd", cfg.Discovery.WindowDays)
	}
	d, err := utils.ParseWindow(windowSpec)
	if err != nil {
		return models.DateRange{}, err
	}
	start, end := utils.WindowRange(now, d)
	return models.DateRange{Start: start, End: end}, nil
}

func buildPipeline() (*pipeline.Pipeline, *storage.Store, error) {
	analyzer, err := sentiment.New(cfg.Sentiment)
	if err != nil {
		return nil, nil, err
	}

	discoverer := discovery.NewDiscoverer(
		cfg.Fetch.UserAgent,
		time.Duration(cfg.Fetch.TimeoutSec)*time.Second,
		time.Duration(cfg.Discovery.FeedCacheTTLSec)*time.Second,
		cfg.Discovery.MaxArticlesPerSource,
		logger,
	)

	fetcher := fetch.NewFetcher(fetch.Options{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		Retries:       cfg.Fetch.Retries,
		RetryDelay:    time.Duration(cfg.Fetch.RetryDelaySec * float64(time.Second)),
		RateDelay:     time.Duration(cfg.Fetch.RateLimitDelay * float64(time.Second)),
		RespectRobots: cfg.Fetch.RespectRobots,
	}, logger)

	parser := extract.NewParser(cfg.Extraction.MinTextLength, cfg.Extraction.MaxTextLength)
	artifacts := storage.NewFiles(cfg.Storage.RawDir, cfg.Storage.ParsedDir, cfg.Storage.ResultsDir, cfg.Storage.KeepRaw)

	history, err := storage.Open(cfg.Storage.HistoryDB)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		history = nil
	}

	var h pipeline.History
	if history != nil {
		h = history
	}
	return pipeline.New(discoverer, fetcher, parser, analyzer, artifacts, h, logger), history, nil
}

func printSummary(result *pipeline.Result) {
	report := result.Report
	stats := report.SentimentSummary.Statistics

	fmt.Printf("Ticker:    %s\n", report.Ticker)
	fmt.Printf("Window:    %s to %s\n",
		report.DateRange.Start.Format("2006-01-02"), report.DateRange.End.Format("2006-01-02"))
	fmt.Printf("Articles:  %d (%d positive, %d negative, %d neutral)\n",
		stats.TotalArticles, stats.PositiveCount, stats.NegativeCount, stats.NeutralCount)
	if o := report.SentimentSummary.Overall; o != nil {
		fmt.Printf("Overall:   %s (compound %.3f)\n", o.Label, o.Compound)
	} else {
		fmt.Println("Overall:   no articles analyzed")
	}
	if result.ReportPath != "" {
		fmt.Printf("Report:    %s\n", result.ReportPath)
	}
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and rank candidate articles without fetching them",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags()

		window, err := resolveWindow()
		if err != nil {
			return err
		}
		sources, err := discovery.LoadSources(cfg.Discovery.SourcesPath)
		if err != nil {
			return err
		}

		discoverer := discovery.NewDiscoverer(
			cfg.Fetch.UserAgent,
			time.Duration(cfg.Fetch.TimeoutSec)*time.Second,
			time.Duration(cfg.Discovery.FeedCacheTTLSec)*time.Second,
			cfg.Discovery.MaxArticlesPerSource,
			logger,
		)

		ticker := utils.NormalizeTicker(runTicker)
		candidates, err := discoverer.Discover(cmd.Context(), sources.AllSources(), ticker)
		if err != nil {
			return err
		}

		filter := discovery.NewFilter(ticker, sources.CompanyName(ticker), window.Start, window.End, cfg.Discovery.ExcludeDomains)
		ranked := filter.FilterAndRank(candidates, cfg.Discovery.TopK*2)

		dedup := discovery.NewDeduplicator()
		shown := 0
		for i := range ranked {
			if dedup.Seen(&ranked[i]) || shown >= cfg.Discovery.TopK {
				continue
			}
			shown++
			fmt.Printf("%5.3f  %-20s  %s\n", ranked[i].RelevanceScore, ranked[i].Source, ranked[i].Title)
			fmt.Printf("       %s\n", ranked[i].URL)
		}
		if shown == 0 {
			fmt.Println("no candidate articles found")
		}
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured news sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := discovery.LoadSources(cfg.Discovery.SourcesPath)
		if err != nil {
			return err
		}
		for _, s := range sources.AllSources() {
			fmt.Printf("%.2f  %-24s  %s\n", s.QualityScore, s.Name, s.URL)
		}
		return nil
	},
}

var (
	historyLimit    int
	historyArticles bool
)

var historyCmd = &cobra.Command{
	Use:   "history [ticker]",
	Short: "Show recent pipeline runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg.Storage.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		ticker := ""
		if len(args) == 1 {
			ticker = utils.NormalizeTicker(args[0])
		}
		runs, err := store.RecentRuns(cmd.Context(), ticker, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s  %-6s  %-8s  %3d articles  %s (%.3f)\n",
				r.RanAt.Format("2006-01-02 15:04"), r.Ticker, r.Model,
				r.TotalArticles, r.OverallLabel, r.OverallScore)
			if !historyArticles {
				continue
			}
			articles, err := store.RunArticles(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			for _, a := range articles {
				fmt.Printf("    %-8s  %5.3f  %s\n", a.Label, a.RelevanceScore, a.Title)
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the earnscope version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("earnscope " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	for _, cmd := range []*cobra.Command{runCmd, discoverCmd} {
		cmd.Flags().StringVarP(&runTicker, "ticker", "t", "", "stock ticker symbol (required)")
		cmd.Flags().StringVarP(&runWindow, "window", "w", "", "lookback window, e.g. 7d or 2w")
		cmd.Flags().StringVar(&runStart, "start-date", "", "window start (YYYY-MM-DD)")
		cmd.Flags().StringVar(&runEnd, "end-date", "", "window end (YYYY-MM-DD)")
		cmd.Flags().IntVarP(&runTopK, "top-k", "k", 0, "number of articles to analyze")
		cmd.MarkFlagRequired("ticker")
	}
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "sentiment model (vader, finbert, multi)")
	runCmd.Flags().StringVarP(&runOutDir, "output-dir", "o", "", "directory for result reports")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum runs to show")
	historyCmd.Flags().BoolVarP(&historyArticles, "articles", "a", false, "show per-article rows for each run")

	rootCmd.AddCommand(runCmd, discoverCmd, sourcesCmd, historyCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
