package discovery

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/seenimoa/earnscope/pkg/models"
	"github.com/seenimoa/earnscope/pkg/utils"
)

// Deduplicator tracks article identity across a run using normalized URLs
// and title fingerprints. Not safe for concurrent use; discovery is
// single-goroutine.
type Deduplicator struct {
	seenURLs   map[string]struct{}
	seenTitles map[string]struct{}
	urlDups    int
	titleDups  int
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	d := &Deduplicator{}
	d.Reset()
	return d
}

// Reset clears all recorded identities and duplicate counts.
func (d *Deduplicator) Reset() {
	d.seenURLs = make(map[string]struct{})
	d.seenTitles = make(map[string]struct{})
	d.urlDups = 0
	d.titleDups = 0
}

// Seen reports whether the article duplicates one already observed, and
// records it either way. The article's NormalizedURL field is filled in as
// a side effect. Articles whose URL cannot be normalized are never treated
// as duplicates of each other; the raw URL is used as the key instead.
func (d *Deduplicator) Seen(a *models.Article) bool {
	key, err := NormalizeURL(a.URL)
	if err != nil {
		key = a.URL
	} else {
		a.NormalizedURL = key
	}

	if _, ok := d.seenURLs[key]; ok {
		d.urlDups++
		return true
	}
	d.seenURLs[key] = struct{}{}

	if th := titleHash(a.Title); th != "" {
		if _, ok := d.seenTitles[th]; ok {
			d.titleDups++
			return true
		}
		d.seenTitles[th] = struct{}{}
	}
	return false
}

// Len returns how many distinct URLs have been recorded.
func (d *Deduplicator) Len() int {
	return len(d.seenURLs)
}

// URLDuplicates returns how many articles matched an already-seen URL.
func (d *Deduplicator) URLDuplicates() int {
	return d.urlDups
}

// TitleDuplicates returns how many articles matched an already-seen title
// under a distinct URL.
func (d *Deduplicator) TitleDuplicates() int {
	return d.titleDups
}

// titlePunctRe matches everything that is not a letter, digit, or
// whitespace.
var titlePunctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// titleHash fingerprints a title after case folding, punctuation removal,
// and whitespace collapsing, so trivially reformatted syndicated copies
// match.
func titleHash(title string) string {
	norm := titlePunctRe.ReplaceAllString(strings.ToLower(title), "")
	norm = utils.CollapseWhitespace(norm)
	if norm == "" {
		return ""
	}
	sum := md5.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// ContentDeduplicator detects articles whose extracted text is identical
// after normalization, which catches wire-service stories republished
// under different URLs.
//
// TODO: near-duplicate detection (shingling or simhash) would also catch
// copies with minor edits; exact hashing misses those.
type ContentDeduplicator struct {
	seen map[string]string // content hash -> first URL
}

// NewContentDeduplicator returns an empty content deduplicator.
func NewContentDeduplicator() *ContentDeduplicator {
	return &ContentDeduplicator{seen: make(map[string]string)}
}

// Seen reports whether equivalent text was already recorded, returning
// the URL of the first article that carried it. Text is case-folded and
// whitespace-collapsed before hashing so that reflowed copies of the same
// wire story still match.
func (d *ContentDeduplicator) Seen(url, text string) (string, bool) {
	sum := sha256.Sum256([]byte(strings.ToLower(utils.CollapseWhitespace(text))))
	key := hex.EncodeToString(sum[:])
	if first, ok := d.seen[key]; ok {
		return first, true
	}
	d.seen[key] = url
	return "", false
}
