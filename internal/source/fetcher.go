package source

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/tabrules/internal/cache"
	"github.com/ppiankov/tabrules/internal/logging"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/util"
	"github.com/rs/zerolog"
)

const (
	maxRedirects  = 3
	maxAttempts   = 3
	retryBaseWait = 500 * time.Millisecond
)

// fetchSleepFunc is swapped out by tests
var fetchSleepFunc = time.Sleep

// Throttle delays a request until the host's rate limit allows it
type Throttle interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher downloads bookmark exports over HTTP(S)
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	throttle   Throttle
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher from the http config. c may be nil.
func NewFetcher(cfg model.HTTPConfig, c cache.Cache) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	if c == nil {
		c = cache.Noop{}
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		cache:     c,
		logger:    logging.GetLogger("fetcher"),
	}
}

// WithThrottle sets the per-host limiter consulted before each request
func (f *Fetcher) WithThrottle(t Throttle) *Fetcher {
	f.throttle = t
	return f
}

// WithCacheTTL overrides the cache's default entry lifetime
func (f *Fetcher) WithCacheTTL(ttl time.Duration) *Fetcher {
	f.cacheTTL = ttl
	return f
}

// FetchResult contains the fetched export and response metadata
type FetchResult struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
	FromCache   bool
}

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Fetch performs a single request
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.throttle != nil {
		if err := f.throttle.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/json,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body []byte
	if f.maxBytes > 0 {
		body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err == nil && int64(len(body)) > f.maxBytes {
			return nil, fmt.Errorf("read body: exceeds %d bytes", f.maxBytes)
		}
	} else {
		body, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry serves from cache when possible, otherwise fetches with up
// to three attempts on transient failures and caches the body
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.CacheKey(rawURL)
	if body, ok := f.cache.Get(key); ok {
		f.logger.Debug().Str("url", rawURL).Msg("Cache hit")
		return &FetchResult{Body: body, StatusCode: http.StatusOK, FinalURL: rawURL, FromCache: true}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := f.Fetch(ctx, rawURL)
		if err == nil {
			if cerr := f.cache.Set(key, res.Body, f.cacheTTL); cerr != nil {
				f.logger.Warn().Err(cerr).Str("url", rawURL).Msg("Failed to cache source")
			}
			return res, nil
		}

		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		wait := retryBaseWait * time.Duration(1<<(attempt-1))
		f.logger.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("url", rawURL).Msg("Retrying fetch")
		fetchSleepFunc(wait)
	}

	return nil, lastErr
}

// isRetryableFetchError reports whether err is a server-side or transport failure
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	return strings.HasPrefix(err.Error(), "fetch: ")
}
