package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/earnscope/internal/discovery"
)

// ErrRobotsDisallowed marks a URL the site's robots.txt forbids. Callers
// count these as skipped, not failed.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// HTTPError is a non-2xx response that exhausted retries.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
}

// maxBodySize caps how much of a response we read. Article pages beyond
// this are truncated, not rejected.
const maxBodySize = 5 << 20

// Options configures a Fetcher.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RetryDelay    time.Duration
	RateDelay     time.Duration
	RespectRobots bool
}

// Fetcher downloads article pages. All requests for one domain go through
// a shared rate limiter, and robots.txt is consulted before each URL when
// enabled.
type Fetcher struct {
	client  *http.Client
	opts    Options
	limiter *DomainLimiter
	robots  *Robots
	logger  *slog.Logger
}

// NewFetcher builds a fetcher from options.
func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	client := &http.Client{Timeout: opts.Timeout}
	f := &Fetcher{
		client:  client,
		opts:    opts,
		limiter: NewDomainLimiter(opts.RateDelay),
		logger:  logger,
	}
	if opts.RespectRobots {
		f.robots = NewRobots(client, opts.UserAgent)
	}
	return f
}

// Fetch downloads one URL and returns the page HTML. It retries transient
// failures (network errors, HTTP 429 and 5xx) with linear backoff, and
// returns ErrRobotsDisallowed without retrying when robots.txt forbids
// the URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	domain := discovery.DomainOf(rawURL)
	if domain == "" {
		return "", fmt.Errorf("fetching %q: invalid url", rawURL)
	}

	crawlDelay := time.Duration(0)
	if f.robots != nil {
		allowed, delay, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("fetching %s: %w", rawURL, ErrRobotsDisallowed)
		}
		crawlDelay = delay
	}

	var lastErr error
	attempts := f.opts.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * f.opts.RetryDelay
			f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := f.limiter.WaitWithDelay(ctx, domain, crawlDelay); err != nil {
			return "", err
		}

		body, err := f.do(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text") {
		return "", fmt.Errorf("fetching %s: unsupported content type %q", rawURL, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return string(body), nil
}

// retryable reports whether an error is worth another attempt. Client
// errors other than 429 are final; network and server errors are not.
func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
