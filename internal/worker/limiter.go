package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles remote bookmark sources per host. References that are
// not http(s) URLs are never throttled.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter; a non-positive rate disables throttling
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until the host of ref may be fetched
func (l *Limiter) Wait(ctx context.Context, ref string) error {
	host, ok := remoteHost(ref)
	if !ok {
		return ctx.Err()
	}
	return l.getLimiter(host).Wait(ctx)
}

// Allow reports whether ref may be fetched now, consuming a token if so
func (l *Limiter) Allow(ref string) bool {
	host, ok := remoteHost(ref)
	if !ok {
		return true
	}
	return l.getLimiter(host).Allow()
}

// SetHostRate overrides the rate for one host; a non-positive rate lifts
// throttling for it
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	l.limiters[strings.ToLower(host)] = rate.NewLimiter(limit, burst)
}

func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// remoteHost returns the lowercased host of an http(s) reference
func remoteHost(ref string) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Host), true
}
