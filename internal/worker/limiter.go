package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// PerHostLimiter throttles outbound requests per target host so that
// probing many origins never hammers a single site. Limiters are
// created lazily, one per host, all sharing the default rate.
type PerHostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewPerHostLimiter creates a limiter with the given per-host rate
func NewPerHostLimiter(requestsPerSecond float64, burst int) *PerHostLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &PerHostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the host of rawURL has budget, or ctx is done
func (l *PerHostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(parsed.Host).Wait(ctx)
}

// Allow reports whether a request to the host would currently be admitted
func (l *PerHostLimiter) Allow(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return l.forHost(parsed.Host).Allow()
}

func (l *PerHostLimiter) forHost(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok = l.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[host] = limiter
	return limiter
}
