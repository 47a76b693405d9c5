// pkg/fetcher/fetcher.go
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// StatusError is returned when the server answers with a status code that
// is not retried or when retries are exhausted.
type StatusError struct {
	Code     int
	Attempts int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d after %d attempts", e.Code, e.Attempts)
}

type Fetcher struct {
	client         *http.Client
	limiter        *rate.Limiter
	config         FetcherConfig
	mu             sync.Mutex
	userAgents     []string
	currentUAIndex int
}

type FetcherConfig struct {
	RequestsPerSecond int
	Burst             int
	Timeout           time.Duration
	UserAgent         string
	// MaxRetries is the number of attempts after the first; zero disables retries.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	Logger            *slog.Logger
}

var defaultUserAgents = []string{
	"wordfreq/1.0 (+https://github.com/NivBraz/wordfreq)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
}

func New(config FetcherConfig) *Fetcher {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 1 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	userAgents := defaultUserAgents
	if config.UserAgent != "" {
		// A configured agent is sent on every request.
		userAgents = []string{config.UserAgent}
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		config:     config,
		userAgents: userAgents,
	}
}

func (f *Fetcher) rotateUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentUAIndex = (f.currentUAIndex + 1) % len(f.userAgents)
	return f.userAgents[f.currentUAIndex]
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	backoff := float64(f.config.InitialBackoff)
	max := float64(f.config.MaxBackoff)
	calculated := math.Min(backoff*math.Pow(2, float64(attempt)), max)

	// Add jitter (+/-20%)
	jitter := calculated * (0.8 + rand.Float64()*0.4)
	return time.Duration(jitter)
}

// Fetch downloads urlStr, retrying rate-limited, server-side and transport
// failures with exponential backoff. 404 and 410 are returned immediately.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt - 1)
			f.config.Logger.Debug("retrying fetch", "url", urlStr, "attempt", attempt+1, "backoff", backoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Wait for rate limiter
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("User-Agent", f.rotateUserAgent())
		req.Header.Set("Accept", "text/plain,text/html;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request error (attempt %d): %w", attempt+1, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("error reading response body: %w", err)
				continue
			}
			return body, nil

		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Attempts: attempt + 1}

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Attempts: attempt + 1}
			continue

		default:
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Attempts: attempt + 1}
		}
	}

	return nil, lastErr
}
