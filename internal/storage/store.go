package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seenimoa/earnscope/pkg/models"
)

// Store keeps a queryable history of runs in SQLite.
type Store struct {
	db *sql.DB
}

// RunRecord is one row of run history.
type RunRecord struct {
	ID            int64
	Ticker        string
	RanAt         time.Time
	WindowStart   time.Time
	WindowEnd     time.Time
	Model         string
	TotalArticles int
	OverallLabel  string
	OverallScore  float64
	ReportPath    string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker          TEXT NOT NULL,
	ran_at          TEXT NOT NULL,
	window_start    TEXT NOT NULL,
	window_end      TEXT NOT NULL,
	model           TEXT NOT NULL,
	top_k           INTEGER NOT NULL,
	total_articles  INTEGER NOT NULL,
	overall_label   TEXT NOT NULL,
	overall_score   REAL NOT NULL,
	report_path     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_ticker ON runs(ticker, ran_at DESC);
CREATE TABLE IF NOT EXISTS run_articles (
	run_id           INTEGER NOT NULL REFERENCES runs(id),
	url              TEXT NOT NULL,
	title            TEXT NOT NULL,
	source           TEXT NOT NULL,
	label            TEXT NOT NULL,
	relevance_score  REAL NOT NULL,
	quality_score    REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_articles_run ON run_articles(run_id);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a completed run, its per-article rows, and where the
// report was written.
func (s *Store) SaveRun(ctx context.Context, report *models.Report, reportPath string) (int64, error) {
	label := string(models.LabelNeutral)
	score := 0.0
	if o := report.SentimentSummary.Overall; o != nil {
		label = string(o.Label)
		score = o.Compound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (ticker, ran_at, window_start, window_end, model, top_k,
			total_articles, overall_label, overall_score, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Ticker,
		report.Timestamp.UTC().Format(time.RFC3339),
		report.DateRange.Start.UTC().Format(time.RFC3339),
		report.DateRange.End.UTC().Format(time.RFC3339),
		report.Configuration.SentimentModel,
		report.Configuration.TopK,
		report.SentimentSummary.Statistics.TotalArticles,
		label,
		score,
		reportPath,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, a := range report.SentimentSummary.Articles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_articles (run_id, url, title, source, label, relevance_score, quality_score)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, a.URL, a.Title, a.Source, string(a.Sentiment.AssignedLabel()),
			a.RelevanceScore, a.QualityScore,
		); err != nil {
			return 0, fmt.Errorf("inserting run article: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ArticleRecord is one article row of a recorded run.
type ArticleRecord struct {
	URL            string
	Title          string
	Source         string
	Label          string
	RelevanceScore float64
	QualityScore   float64
}

// RunArticles returns the articles recorded for one run, in rank order.
func (s *Store) RunArticles(ctx context.Context, runID int64) ([]ArticleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, source, label, relevance_score, quality_score
		FROM run_articles WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run articles: %w", err)
	}
	defer rows.Close()

	var out []ArticleRecord
	for rows.Next() {
		var a ArticleRecord
		if err := rows.Scan(&a.URL, &a.Title, &a.Source, &a.Label, &a.RelevanceScore, &a.QualityScore); err != nil {
			return nil, fmt.Errorf("scanning run article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecentRuns returns the newest runs for a ticker, most recent first. An
// empty ticker returns runs across all tickers.
func (s *Store) RecentRuns(ctx context.Context, ticker string, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, ticker, ran_at, window_start, window_end, model,
			total_articles, overall_label, overall_score, report_path
		FROM runs`
	args := []any{}
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY ran_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r                   RunRecord
			ranAt, wStart, wEnd string
		)
		if err := rows.Scan(&r.ID, &r.Ticker, &ranAt, &wStart, &wEnd, &r.Model,
			&r.TotalArticles, &r.OverallLabel, &r.OverallScore, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.RanAt, _ = time.Parse(time.RFC3339, ranAt)
		r.WindowStart, _ = time.Parse(time.RFC3339, wStart)
		r.WindowEnd, _ = time.Parse(time.RFC3339, wEnd)
		out = append(out, r)
	}
	return out, rows.Err()
}
