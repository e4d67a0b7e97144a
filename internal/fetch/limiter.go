// Package fetch downloads article HTML politely: per-domain rate limits,
// robots.txt compliance, and bounded retries with backoff.
package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter enforces a minimum delay between requests to the same
// domain. Each domain gets its own token bucket; unrelated domains never
// block each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delay    time.Duration
}

// NewDomainLimiter creates a limiter with the given per-domain delay. A
// non-positive delay disables limiting.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

// Wait blocks until a request to domain is allowed or ctx is done.
func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if l.delay <= 0 {
		return nil
	}
	return l.limiterFor(domain, l.delay).Wait(ctx)
}

// WaitWithDelay is Wait with an overriding delay, used when robots.txt
// declares a crawl delay longer than the configured default.
func (l *DomainLimiter) WaitWithDelay(ctx context.Context, domain string, delay time.Duration) error {
	if delay < l.delay {
		delay = l.delay
	}
	if delay <= 0 {
		return nil
	}
	return l.limiterFor(domain, delay).Wait(ctx)
}

func (l *DomainLimiter) limiterFor(domain string, delay time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[domain]
	if !ok {
		lim = rate.NewLimiter(rate.Every(delay), 1)
		l.limiters[domain] = lim
	} else if lim.Limit() != rate.Every(delay) {
		lim.SetLimit(rate.Every(delay))
	}
	return lim
}
