package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Robots caches parsed robots.txt files per host and answers whether a
// URL may be fetched. Hosts whose robots.txt cannot be fetched at all are
// treated as allow-all; HTTP statuses follow the usual crawler convention
// (4xx allows everything, 5xx disallows everything).
type Robots struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

// NewRobots builds a robots.txt checker that identifies as userAgent.
func NewRobots(client *http.Client, userAgent string) *Robots {
	return &Robots{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched, plus any crawl delay the
// host requests for our agent.
func (r *Robots) Allowed(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("robots: parsing %q: %w", rawURL, err)
	}

	group, err := r.groupFor(ctx, u)
	if err != nil {
		return false, 0, err
	}
	if group == nil {
		return true, 0, nil
	}
	return group.Test(u.RequestURI()), group.CrawlDelay, nil
}

func (r *Robots) groupFor(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	group, cached := r.hosts[key]
	r.mu.Unlock()
	if cached {
		return group, nil
	}

	group = r.fetchGroup(ctx, key+"/robots.txt")

	r.mu.Lock()
	r.hosts[key] = group
	r.mu.Unlock()
	return group, nil
}

// fetchGroup returns nil when robots.txt is unavailable or unparseable,
// which callers treat as allow-all.
func (r *Robots) fetchGroup(ctx context.Context, robotsURL string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.userAgent)
}
