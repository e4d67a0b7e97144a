// Package discovery finds candidate earnings articles from configured RSS
// feeds, scores their relevance to a ticker, and removes duplicates.
package discovery

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization.
// They carry campaign attribution, not content identity.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
	"_ga":          {},
	"ref":          {},
	"source":       {},
}

// NormalizeURL reduces a URL to a canonical identity key so that links to
// the same article compare equal. The scheme is dropped, the host is
// lower-cased with any "www." prefix removed, tracking parameters are
// stripped, remaining query parameters are sorted, and trailing slashes
// are trimmed. Scheme-less input is accepted, so normalizing is
// idempotent: feeding a normalized key back in returns it unchanged.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("normalize: empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("normalize %q: missing host", raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(u.EscapedPath(), "/")

	query := ""
	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			keys := make([]string, 0, len(values))
			for k := range values {
				if _, tracked := trackingParams[strings.ToLower(k)]; tracked {
					continue
				}
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var parts []string
			for _, k := range keys {
				vs := values[k]
				sort.Strings(vs)
				for _, v := range vs {
					parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
				}
			}
			query = strings.Join(parts, "&")
		}
	}

	normalized := host + path
	if query != "" {
		normalized += "?" + query
	}
	return normalized, nil
}

// DomainOf extracts the registrable host of a URL, lower-cased and with
// any "www." prefix removed. Used for per-domain rate limiting and domain
// exclusion lists.
func DomainOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
