// Package news turns provider headlines into the digest embedded in the advisory prompt.
package news

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/analysis/sentiment"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// Fixed digest messages.
const (
	MsgMacroFocus  = "No specific international news for this asset; focus on technicals and macro conditions."
	MsgNoNews      = "No material recent news."
	MsgUnavailable = "News temporarily unavailable."
)

// Retriever applies the news policy over a NewsSource.
type Retriever struct {
	source   datasource.NewsSource
	lookback int
	maxItems int
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLookbackDays sets the trailing window size.
func WithLookbackDays(days int) Option {
	return func(r *Retriever) {
		if days > 0 {
			r.lookback = days
		}
	}
}

// WithMaxItems caps the number of headlines kept.
func WithMaxItems(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxItems = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Retriever) { r.log = l }
}

// NewRetriever creates a Retriever. A nil source always yields MsgUnavailable
// for symbols that would need a lookup.
func NewRetriever(source datasource.NewsSource, opts ...Option) *Retriever {
	r := &Retriever{
		source:   source,
		lookback: 5,
		maxItems: 3,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SkipsLookup reports whether symbol is answered with the macro-focus message.
func SkipsLookup(symbol string, class models.AssetClass) bool {
	return class == models.AssetTaiwanEquity || symbol == utils.GoldFuturesTicker
}

// Fetch returns the news digest for symbol. It never fails: provider errors
// and empty results map to fixed messages.
func (r *Retriever) Fetch(ctx context.Context, symbol string, class models.AssetClass) models.NewsDigest {
	if SkipsLookup(symbol, class) {
		return models.NewsDigest{Fallback: MsgMacroFocus}
	}
	if r.source == nil {
		return models.NewsDigest{Fallback: MsgUnavailable}
	}

	from, to := utils.NewsWindow(r.now(), r.lookback)
	articles, err := r.source.CompanyNews(ctx, symbol, from, to)
	if err != nil {
		r.log.Warn().
			Str("event", "news_unavailable").
			Str("symbol", symbol).
			Str("source", r.source.Name()).
			Err(err).
			Msg("news lookup failed")
		return models.NewsDigest{Fallback: MsgUnavailable}
	}
	if len(articles) == 0 {
		return models.NewsDigest{Fallback: MsgNoNews}
	}

	kept := articles[:min(len(articles), r.maxItems)]
	headlines := make([]string, 0, len(kept))
	for _, a := range kept {
		headlines = append(headlines, a.Title)
	}
	return models.NewsDigest{
		Headlines: headlines,
		Tone:      sentiment.Tone(kept, r.now()),
	}
}
