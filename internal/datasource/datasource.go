// Package datasource provides the external market data and news providers used
// by the pipeline: Yahoo Finance for quotes and history, and Finnhub or a Yahoo
// headline RSS feed for company news.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/seenimoa/tickerlens/internal/logging"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// QuoteSource supplies fast quotes and daily price history.
type QuoteSource interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// Quote returns the last price, previous close and currency for symbol.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// History returns chronological daily bars covering rng (e.g. "3mo").
	History(ctx context.Context, symbol string, rng string) ([]models.OHLCV, error)
}

// NewsSource supplies company news for a symbol within a date window.
type NewsSource interface {
	Name() string
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a provider has no data for a symbol.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrNoAPIKey is returned when a keyed provider is used without a key.
var ErrNoAPIKey = errors.New("data source API key not configured")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Is lets errors.Is match rate limiting on a 429 response.
func (e *ErrHTTP) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds every provider call made with the default client.
const DefaultTimeout = 30 * time.Second

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: DefaultTimeout,
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	if client == nil {
		client = HTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	logger := logging.FromContext(ctx)
	resp, err := client.Do(req)
	if err != nil {
		logging.LogAPICall(logger, req.URL.Host, req.URL.Path, time.Since(start), err)
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", req.URL.Redacted(), err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		httpErr := &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
		logging.LogAPICall(logger, req.URL.Host, req.URL.Path, time.Since(start), httpErr)
		return nil, resp.StatusCode, httpErr
	}

	logging.LogAPICall(logger, req.URL.Host, req.URL.Path, time.Since(start), nil)
	return resp.Body, resp.StatusCode, nil
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
