package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// DefaultFinnhubBaseURL is the Finnhub REST API root.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub implements NewsSource using the Finnhub company-news endpoint.
type Finnhub struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *RateLimiter
}

// FinnhubOption configures a Finnhub source.
type FinnhubOption func(*Finnhub)

// WithFinnhubBaseURL overrides the API root (used in tests).
func WithFinnhubBaseURL(u string) FinnhubOption {
	return func(f *Finnhub) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithFinnhubHTTPClient sets a custom HTTP client.
func WithFinnhubHTTPClient(c *http.Client) FinnhubOption {
	return func(f *Finnhub) { f.client = c }
}

// NewFinnhub creates a Finnhub news source.
func NewFinnhub(apiKey string, opts ...FinnhubOption) (*Finnhub, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub: %w", ErrNoAPIKey)
	}
	f := &Finnhub{
		apiKey:  apiKey,
		baseURL: DefaultFinnhubBaseURL,
		client:  HTTPClient,
		limiter: NewRateLimiter(1, time.Second), // free tier: 60 calls/min
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Name returns the data source name.
func (f *Finnhub) Name() string { return "Finnhub" }

type finnhubArticle struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNews returns articles for symbol published between from and to, newest first.
func (f *Finnhub) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"symbol": {symbol},
		"from":   {utils.FormatDate(from)},
		"to":     {utils.FormatDate(to)},
	}
	endpoint := f.baseURL + "/company-news?" + params.Encode()

	body, _, err := doGet(ctx, f.client, endpoint, map[string]string{
		"Accept":          "application/json",
		"X-Finnhub-Token": f.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("finnhub company-news %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var raw []finnhubArticle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse finnhub company-news: %w", err)
	}

	articles := make([]models.NewsArticle, 0, len(raw))
	for _, r := range raw {
		headline := strings.TrimSpace(r.Headline)
		if headline == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       headline,
			URL:         r.URL,
			Source:      r.Source,
			Summary:     r.Summary,
			PublishedAt: time.Unix(r.Datetime, 0),
		})
	}
	sortArticlesByDate(articles)
	return articles, nil
}
