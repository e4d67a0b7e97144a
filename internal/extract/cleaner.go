package extract

import (
	"regexp"
	"strings"
)

// mojibake maps the most common UTF-8-read-as-Latin-1 sequences seen in
// syndicated article bodies back to their intended characters.
var mojibake = strings.NewReplacer(
	"â€™", "'",
	"â€˜", "'",
	"â€œ", "\"",
	"â€", "\"",
	"â€“", "-",
	"â€”", "-",
	"â€¦", "...",
	"Â ", " ",
)

// typographic normalizes smart quotes and dashes so downstream sentiment
// lexicon lookups see plain ASCII punctuation.
var typographic = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", "\"", "”", "\"",
	"–", "-", "—", "-",
	"…", "...",
	" ", " ",
)

var (
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
	multiNLRe    = regexp.MustCompile(`\n{3,}`)
	multiBangRe  = regexp.MustCompile(`(!)!+|(\?)\?+`)
	multiDotRe   = regexp.MustCompile(`\.{4,}`)
)

// boilerplatePrefixes mark lines that are site chrome rather than article
// prose; matching lines are dropped.
var boilerplatePrefixes = []string{
	"sign up for",
	"subscribe to",
	"read more:",
	"related:",
	"advertisement",
	"follow us",
	"click here",
	"all rights reserved",
}

// Cleaner normalizes extracted article text.
type Cleaner struct{}

// NewCleaner returns a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean repairs encoding damage, normalizes punctuation and whitespace,
// strips contact emails, and drops boilerplate lines.
func (c *Cleaner) Clean(text string) string {
	text = mojibake.Replace(text)
	text = typographic.Replace(text)
	text = emailRe.ReplaceAllString(text, "")
	text = multiBangRe.ReplaceAllString(text, "$1$2")
	text = multiDotRe.ReplaceAllString(text, "...")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
		if trimmed != "" && isBoilerplate(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	text = strings.Join(kept, "\n")
	text = multiNLRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
