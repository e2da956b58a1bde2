// Package ratelimit provides token-bucket pacing for outbound provider calls.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// SourceLimiter maintains one token bucket per source so providers are paced
// independently. All components calling the same provider share one instance.
type SourceLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	defaultRate rate.Limit
	burst       int
	overrides   map[string]float64
}

// NewSourceLimiter creates a limiter with the given default refill rate
// (requests per second) and bucket size. overrides supplies per-source rates.
func NewSourceLimiter(requestsPerSecond float64, burst int, overrides map[string]float64) *SourceLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &SourceLimiter{
		limiters:    make(map[string]*rate.Limiter),
		defaultRate: rate.Limit(requestsPerSecond),
		burst:       burst,
		overrides:   overrides,
	}
}

func (l *SourceLimiter) limiterFor(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[source]; ok {
		return lim
	}
	r := l.defaultRate
	if v, ok := l.overrides[source]; ok && v > 0 {
		r = rate.Limit(v)
	}
	lim := rate.NewLimiter(r, l.burst)
	l.limiters[source] = lim
	return lim
}

// Wait blocks until the source's bucket yields a token or ctx is cancelled.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	if err := l.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedAdapter is a decorator that waits for the source's token bucket
// before delegating to the wrapped SourceAdapter.
type RateLimitedAdapter struct {
	inner   model.SourceAdapter
	limiter *SourceLimiter
	source  string
}

// NewRateLimitedAdapter wraps a SourceAdapter with token-bucket pacing.
func NewRateLimitedAdapter(inner model.SourceAdapter, limiter *SourceLimiter, source string) *RateLimitedAdapter {
	return &RateLimitedAdapter{
		inner:   inner,
		limiter: limiter,
		source:  source,
	}
}

// Name identifies the wrapped source.
func (a *RateLimitedAdapter) Name() string { return a.inner.Name() }

// Fetch waits for the limiter to allow a request, then delegates to the
// wrapped adapter.
func (a *RateLimitedAdapter) Fetch(ctx context.Context, keywords, locations []string) ([]model.JobPosting, error) {
	if err := a.limiter.Wait(ctx, a.source); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx, keywords, locations)
}
