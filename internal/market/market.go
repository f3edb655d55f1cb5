// Package market fetches a symbol's quote and price history and derives the
// snapshot and RSI reading the advisory is built from.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/analysis/technical"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// ErrNoData is returned when the provider has no price history for a symbol.
// It aborts the analysis before any news or model call.
var ErrNoData = errors.New("no data found")

// FetchError is any other failure while loading quote or history.
type FetchError struct {
	Symbol string
	Op     string // "quote", "history" or "snapshot"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher loads market data from a QuoteSource.
type Fetcher struct {
	source       datasource.QuoteSource
	historyRange string
	rsiPeriod    int
	smoothing    technical.Smoothing
	log          zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHistoryRange sets the history look-back, e.g. "3mo".
func WithHistoryRange(rng string) Option {
	return func(f *Fetcher) {
		if rng != "" {
			f.historyRange = rng
		}
	}
}

// WithRSI sets the RSI period and smoothing.
func WithRSI(period int, smoothing technical.Smoothing) Option {
	return func(f *Fetcher) {
		if period > 0 {
			f.rsiPeriod = period
		}
		if smoothing != "" {
			f.smoothing = smoothing
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher creates a Fetcher over source.
func NewFetcher(source datasource.QuoteSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:       source,
		historyRange: "3mo",
		rsiPeriod:    technical.DefaultRSIPeriod,
		smoothing:    technical.SmoothingSMA,
		log:          zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch returns the quote snapshot and latest RSI for symbol.
// Provider failures, an unknown symbol included, are returned as *FetchError
// carrying the provider's message; only an empty history is reported as
// ErrNoData. Nothing is retried or cached.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) (*models.MarketData, error) {
	start := time.Now()

	quote, err := f.source.Quote(ctx, symbol)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "quote", Err: err}
	}

	candles, err := f.source.History(ctx, symbol, f.historyRange)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "history", Err: err}
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	snapshot, err := models.SnapshotFromQuote(*quote)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "snapshot", Err: err}
	}

	rsi := technical.RSILatest(technical.Closes(candles), f.rsiPeriod, f.smoothing)

	f.log.Debug().
		Str("event", "market_data").
		Str("symbol", symbol).
		Str("source", f.source.Name()).
		Int("bars", len(candles)).
		Str("rsi", rsi.Format()).
		Dur("duration", time.Since(start)).
		Msg("market data fetched")

	return &models.MarketData{
		Symbol:    symbol,
		Snapshot:  snapshot,
		Indicator: rsi,
		Bars:      len(candles),
	}, nil
}
