package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tickerlens/internal/logging"
	"github.com/seenimoa/tickerlens/internal/news"
	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// ErrEmptyTicker is returned when the input normalizes to an empty symbol.
var ErrEmptyTicker = errors.New("ticker is empty")

// MarketFetcher loads the quote snapshot and RSI for a symbol.
// *market.Fetcher implements it.
type MarketFetcher interface {
	Fetch(ctx context.Context, symbol string) (*models.MarketData, error)
}

// NewsFetcher returns the news digest for a symbol. It must not fail.
// *news.Retriever implements it.
type NewsFetcher interface {
	Fetch(ctx context.Context, symbol string, class models.AssetClass) models.NewsDigest
}

// ── Stage events ──

// Stage names reported to an Observer, in pipeline order.
const (
	StageClassified = "classified"
	StageMarketData = "market_data"
	StageNews       = "news"
	StageAdvisory   = "advisory"
)

// Event is a progress notification for one pipeline stage.
type Event struct {
	Stage     string    `json:"stage"`
	RequestID string    `json:"request_id"`
	Symbol    string    `json:"symbol"`
	Data      any       `json:"data,omitempty"`
	Time      time.Time `json:"time"`
}

// Observer receives stage events. It is called synchronously from the pipeline.
type Observer func(Event)

// OrchestratorConfig holds the pipeline dependencies.
type OrchestratorConfig struct {
	Market          MarketFetcher
	News            NewsFetcher
	Composer        *Composer
	ShareBaseURL    string
	ConcurrentFetch bool
	Logger          *zerolog.Logger
	Now             func() time.Time
}

// Orchestrator runs one analysis per call. It holds no per-request state.
type Orchestrator struct {
	market     MarketFetcher
	news       NewsFetcher
	composer   *Composer
	shareBase  string
	concurrent bool
	log        zerolog.Logger
	now        func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		market:     cfg.Market,
		news:       cfg.News,
		composer:   cfg.Composer,
		shareBase:  cfg.ShareBaseURL,
		concurrent: cfg.ConcurrentFetch,
		log:        zerolog.Nop(),
		now:        cfg.Now,
	}
	if cfg.Logger != nil {
		o.log = *cfg.Logger
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Analyze runs the full pipeline for a raw ticker.
func (o *Orchestrator) Analyze(ctx context.Context, raw string) (*models.Analysis, error) {
	return o.AnalyzeWithObserver(ctx, raw, nil)
}

// AnalyzeWithObserver runs the pipeline and reports each completed stage to obs.
// Market data errors abort before any news or model call.
func (o *Orchestrator) AnalyzeWithObserver(ctx context.Context, raw string, obs Observer) (*models.Analysis, error) {
	symbol := utils.NormalizeTicker(raw)
	if symbol == "" {
		return nil, ErrEmptyTicker
	}

	reqID := uuid.NewString()
	log := logging.WithRequest(o.log, reqID, symbol)
	ctx = logging.WithLogger(ctx, log)
	start := time.Now()

	emit := func(stage string, data any) {
		if obs != nil {
			obs(Event{Stage: stage, RequestID: reqID, Symbol: symbol, Data: data, Time: o.now()})
		}
	}

	class := utils.ClassifyTicker(symbol)
	log.Info().Str("event", "analysis_start").Str("asset_class", class.String()).Msg("analysis started")
	emit(StageClassified, class)

	md, digest, err := o.fetch(ctx, symbol, class)
	if err != nil {
		log.Error().Str("event", "analysis_aborted").Err(err).Msg("market data unavailable")
		return nil, err
	}
	emit(StageMarketData, md)
	emit(StageNews, digest)

	req := models.AnalysisRequest{
		Symbol:     symbol,
		AssetClass: class,
		Snapshot:   md.Snapshot,
		Indicator:  md.Indicator,
		News:       digest,
	}
	adv := o.composer.Compose(ctx, req)
	emit(StageAdvisory, adv)

	log.Info().
		Str("event", "analysis_done").
		Str("model", adv.Model).
		Bool("exhausted", adv.Exhausted).
		Dur("duration", time.Since(start)).
		Msg("analysis completed")

	return &models.Analysis{
		RequestID:   reqID,
		Symbol:      symbol,
		AssetClass:  class,
		Snapshot:    md.Snapshot,
		Indicator:   md.Indicator,
		News:        digest,
		Advisory:    adv,
		ShareURL:    utils.ShareURL(o.shareBase, symbol),
		GeneratedAt: o.now(),
	}, nil
}

// fetch loads market data then news, or both at once when concurrent fetch
// is enabled. News is discarded when market data fails.
func (o *Orchestrator) fetch(ctx context.Context, symbol string, class models.AssetClass) (*models.MarketData, models.NewsDigest, error) {
	if !o.concurrent {
		md, err := o.market.Fetch(ctx, symbol)
		if err != nil {
			return nil, models.NewsDigest{}, err
		}
		return md, o.news.Fetch(ctx, symbol, class), nil
	}

	var (
		md     *models.MarketData
		digest models.NewsDigest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		md, err = o.market.Fetch(gctx, symbol)
		return err
	})
	g.Go(func() error {
		digest = o.news.Fetch(gctx, symbol, class)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, models.NewsDigest{}, err
	}
	return md, digest, nil
}

// QuoteResult is the market-data-only view used by the quote command and endpoint.
type QuoteResult struct {
	Symbol     string            `json:"symbol"`
	AssetClass models.AssetClass `json:"asset_class"`
	Market     models.MarketData `json:"market"`
	ShareURL   string            `json:"share_url,omitempty"`
}

// Quote classifies the ticker and fetches its snapshot and RSI without news
// or a model call.
func (o *Orchestrator) Quote(ctx context.Context, raw string) (*QuoteResult, error) {
	symbol := utils.NormalizeTicker(raw)
	if symbol == "" {
		return nil, ErrEmptyTicker
	}
	md, err := o.market.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		Symbol:     symbol,
		AssetClass: utils.ClassifyTicker(symbol),
		Market:     *md,
		ShareURL:   utils.ShareURL(o.shareBase, symbol),
	}, nil
}

// Classification is the pure classification result for a ticker.
type Classification struct {
	Symbol     string            `json:"symbol"`
	AssetClass models.AssetClass `json:"asset_class"`
	SkipsNews  bool              `json:"skips_news"`
}

// Classify normalizes and classifies raw without any I/O.
func Classify(raw string) (Classification, error) {
	symbol := utils.NormalizeTicker(raw)
	if symbol == "" {
		return Classification{}, ErrEmptyTicker
	}
	class := utils.ClassifyTicker(symbol)
	return Classification{
		Symbol:     symbol,
		AssetClass: class,
		SkipsNews:  news.SkipsLookup(symbol, class),
	}, nil
}
