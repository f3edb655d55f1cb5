package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/tickerlens/internal/logging"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// DefaultHeadlineFeed is the Yahoo Finance per-symbol headline feed; %s is the symbol.
const DefaultHeadlineFeed = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// HeadlineFeed implements NewsSource over a per-symbol RSS feed.
// It needs no API key and backs up Finnhub when no key is configured.
type HeadlineFeed struct {
	urlTemplate string
	limiter     *RateLimiter
	parser      *gofeed.Parser
}

// NewHeadlineFeed creates an RSS news source. An empty template uses DefaultHeadlineFeed.
func NewHeadlineFeed(urlTemplate string) *HeadlineFeed {
	if urlTemplate == "" {
		urlTemplate = DefaultHeadlineFeed
	}
	return &HeadlineFeed{
		urlTemplate: urlTemplate,
		limiter:     NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:      gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (h *HeadlineFeed) Name() string { return "Yahoo Finance RSS" }

// CompanyNews returns feed items for symbol published in [from, to+1d), newest first.
// Items without a publish date are kept.
func (h *HeadlineFeed) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error) {
	articles, err := h.fetchRSS(ctx, fmt.Sprintf(h.urlTemplate, symbol))
	if err != nil {
		return nil, err
	}

	end := to.AddDate(0, 0, 1)
	filtered := articles[:0]
	for _, a := range articles {
		if !a.PublishedAt.IsZero() && (a.PublishedAt.Before(from) || !a.PublishedAt.Before(end)) {
			continue
		}
		filtered = append(filtered, a)
	}
	sortArticlesByDate(filtered)
	return filtered, nil
}

// --- Internal helpers ---

// fetchRSS parses an RSS feed and returns articles.
func (h *HeadlineFeed) fetchRSS(ctx context.Context, feedURL string) ([]models.NewsArticle, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	feed, err := h.parser.ParseURLWithContext(feedURL, ctx)
	logging.LogAPICall(logging.FromContext(ctx), "rss", feedURL, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feedURL, err)
	}

	source := strings.TrimSpace(feed.Title)
	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := cleanHTML(item.Title)
		if title == "" {
			continue
		}
		a := models.NewsArticle{
			Title:   title,
			URL:     item.Link,
			Source:  source,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortArticlesByDate sorts articles by published date (newest first).
// Simple insertion sort, stable for equal dates; fine for small slices.
func sortArticlesByDate(articles []models.NewsArticle) {
	for i := 1; i < len(articles); i++ {
		key := articles[i]
		j := i - 1
		for j >= 0 && articles[j].PublishedAt.Before(key.PublishedAt) {
			articles[j+1] = articles[j]
			j--
		}
		articles[j+1] = key
	}
}
