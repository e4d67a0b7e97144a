// Package storage persists pipeline artifacts: raw HTML, parsed content,
// final reports as JSON, and a SQLite history of runs.
package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seenimoa/earnscope/pkg/models"
)

const timestampLayout = "20060102_150405"

// Files writes run artifacts under the configured directories, creating
// them on demand.
type Files struct {
	rawDir     string
	parsedDir  string
	resultsDir string
	keepRaw    bool
}

// NewFiles builds an artifact writer. With keepRaw false, SaveRaw is a
// no-op that returns an empty path.
func NewFiles(rawDir, parsedDir, resultsDir string, keepRaw bool) *Files {
	return &Files{
		rawDir:     rawDir,
		parsedDir:  parsedDir,
		resultsDir: resultsDir,
		keepRaw:    keepRaw,
	}
}

// SaveRaw stores the fetched HTML for one URL.
func (f *Files) SaveRaw(ticker, url, html string, now time.Time) (string, error) {
	if !f.keepRaw {
		return "", nil
	}
	name := fmt.Sprintf("%s_%s_%s.html", ticker, urlSlug(url), now.UTC().Format(timestampLayout))
	return writeFile(f.rawDir, name, []byte(html))
}

// SaveParsed stores extracted content as JSON.
func (f *Files) SaveParsed(ticker string, content *models.Content, now time.Time) (string, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding parsed content: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.json", ticker, urlSlug(content.URL), now.UTC().Format(timestampLayout))
	return writeFile(f.parsedDir, name, data)
}

// SaveReport stores the final run report and returns its path.
func (f *Files) SaveReport(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	name := fmt.Sprintf("%s_sentiment_%s.json", report.Ticker, report.Timestamp.UTC().Format(timestampLayout))
	return writeFile(f.resultsDir, name, data)
}

// LoadReport reads a previously saved report.
func LoadReport(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &report, nil
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// urlSlug produces a short stable filename fragment for a URL.
func urlSlug(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:6])
}
