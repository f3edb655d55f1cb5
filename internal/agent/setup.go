package agent

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/analysis/technical"
	"github.com/seenimoa/tickerlens/internal/config"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/internal/llm"
	"github.com/seenimoa/tickerlens/internal/logging"
	"github.com/seenimoa/tickerlens/internal/market"
	"github.com/seenimoa/tickerlens/internal/news"
)

// NewFromConfig wires the production pipeline: Yahoo Finance quotes, the
// configured news source, and the model fallback chain.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	smoothing, err := technical.ParseSmoothing(cfg.Analysis.RSISmoothing)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Data.Timeout}
	if cfg.Data.Timeout <= 0 {
		client = datasource.HTTPClient
	}

	yfOpts := []datasource.YFinanceOption{datasource.WithYFinanceHTTPClient(client)}
	if cfg.Data.YahooBaseURL != "" {
		yfOpts = append(yfOpts, datasource.WithYFinanceBaseURL(cfg.Data.YahooBaseURL))
	}
	quotes := datasource.NewYFinance(yfOpts...)
	fetcher := market.NewFetcher(quotes,
		market.WithHistoryRange(cfg.Data.HistoryRange),
		market.WithRSI(cfg.Analysis.RSIPeriod, smoothing),
		market.WithLogger(logging.WithComponent(log, "market")),
	)

	retriever := news.NewRetriever(NewsSourceFromConfig(cfg, client, log),
		news.WithLookbackDays(cfg.News.LookbackDays),
		news.WithMaxItems(cfg.News.MaxItems),
		news.WithLogger(logging.WithComponent(log, "news")),
	)

	composer := NewComposer(llm.NewChainFromConfig(cfg, log),
		WithLanguage(cfg.Analysis.Language),
		WithComposerLogger(logging.WithComponent(log, "composer")),
	)

	return NewOrchestrator(OrchestratorConfig{
		Market:          fetcher,
		News:            retriever,
		Composer:        composer,
		ShareBaseURL:    cfg.Share.BaseURL,
		ConcurrentFetch: cfg.Analysis.ConcurrentFetch,
		Logger:          &log,
	}), nil
}

// NewsSourceFromConfig selects the news provider. Finnhub without a key falls
// back to the RSS headline feed; "none" returns nil.
func NewsSourceFromConfig(cfg *config.Config, client *http.Client, log zerolog.Logger) datasource.NewsSource {
	switch cfg.News.Provider {
	case "none":
		return nil
	case "rss":
		return datasource.NewHeadlineFeed(cfg.News.RSSURL)
	}

	var opts []datasource.FinnhubOption
	if cfg.News.FinnhubBaseURL != "" {
		opts = append(opts, datasource.WithFinnhubBaseURL(cfg.News.FinnhubBaseURL))
	}
	if client != nil {
		opts = append(opts, datasource.WithFinnhubHTTPClient(client))
	}
	fh, err := datasource.NewFinnhub(cfg.News.FinnhubKey, opts...)
	if err != nil {
		log.Warn().
			Str("event", "news_source_fallback").
			Err(err).
			Msg("finnhub unavailable, using RSS headlines")
		return datasource.NewHeadlineFeed(cfg.News.RSSURL)
	}
	return fh
}
