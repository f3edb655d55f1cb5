package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/tickerlens/internal/analysis/technical"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// fakeSource is a scripted QuoteSource.
type fakeSource struct {
	quote      *models.Quote
	quoteErr   error
	candles    []models.OHLCV
	historyErr error

	historyCalls int
	lastRange    string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Quote(_ context.Context, _ string) (*models.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeSource) History(_ context.Context, _ string, rng string) ([]models.OHLCV, error) {
	f.historyCalls++
	f.lastRange = rng
	return f.candles, f.historyErr
}

func risingCandles(n int) []models.OHLCV {
	out := make([]models.OHLCV, n)
	for i := range out {
		out[i] = models.OHLCV{Timestamp: time.Unix(int64(i)*86400, 0), Close: 100 + float64(i)}
	}
	return out
}

func TestFetchSnapshotAndRSI(t *testing.T) {
	src := &fakeSource{
		quote:   &models.Quote{Symbol: "AAPL", LastPrice: 153, PrevClose: 150, Currency: "USD"},
		candles: risingCandles(60),
	}
	md, err := NewFetcher(src).Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if got := md.Snapshot.ChangeText(); got != "3.00 (2.00%)" {
		t.Errorf("ChangeText = %q, want 3.00 (2.00%%)", got)
	}
	if md.Snapshot.PriceText() != "153.00 USD" {
		t.Errorf("PriceText = %q", md.Snapshot.PriceText())
	}
	if md.Indicator.State != models.IndicatorSaturated {
		t.Errorf("rising history should saturate RSI, got %+v", md.Indicator)
	}
	if src.lastRange != "3mo" {
		t.Errorf("history range = %q, want 3mo", src.lastRange)
	}
	if md.Bars != 60 {
		t.Errorf("Bars = %d", md.Bars)
	}
}

func TestFetchEmptyHistoryIsNoData(t *testing.T) {
	src := &fakeSource{
		quote: &models.Quote{LastPrice: 10, PrevClose: 10},
	}
	_, err := NewFetcher(src).Fetch(context.Background(), "FAKE.TW")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		t.Error("empty history must not be a FetchError")
	}
	if !strings.Contains(err.Error(), "FAKE.TW") {
		t.Errorf("message should name the symbol: %v", err)
	}
}

func TestFetchUnknownTickerIsFetchError(t *testing.T) {
	src := &fakeSource{quoteErr: fmt.Errorf("%w: ZZZZQ (yahoo: No data found, symbol may be delisted)", datasource.ErrTickerNotFound)}
	_, err := NewFetcher(src).Fetch(context.Background(), "ZZZZQ")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T %v", err, err)
	}
	if fe.Op != "quote" || fe.Symbol != "ZZZZQ" {
		t.Errorf("unexpected FetchError: %+v", fe)
	}
	if errors.Is(err, ErrNoData) {
		t.Error("unknown symbol must not be ErrNoData")
	}
	if !errors.Is(err, datasource.ErrTickerNotFound) {
		t.Error("cause should stay reachable with errors.Is")
	}
	if !strings.Contains(err.Error(), "No data found, symbol may be delisted") {
		t.Errorf("message should carry the provider text: %v", err)
	}
	if src.historyCalls != 0 {
		t.Error("history should not be requested after the quote failed")
	}
}

func TestFetchProviderErrorIsFetchError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	src := &fakeSource{
		quote:      &models.Quote{LastPrice: 10, PrevClose: 9},
		historyErr: cause,
	}
	_, err := NewFetcher(src).Fetch(context.Background(), "AAPL")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T %v", err, err)
	}
	if fe.Op != "history" || fe.Symbol != "AAPL" || !errors.Is(err, cause) {
		t.Errorf("unexpected FetchError: %+v", fe)
	}
	if !strings.Contains(err.Error(), "connection reset by peer") {
		t.Errorf("message should carry the cause: %v", err)
	}
	if errors.Is(err, ErrNoData) {
		t.Error("provider failure must not be ErrNoData")
	}
}

func TestFetchZeroPreviousClose(t *testing.T) {
	src := &fakeSource{
		quote:   &models.Quote{LastPrice: 10, PrevClose: 0},
		candles: risingCandles(20),
	}
	_, err := NewFetcher(src).Fetch(context.Background(), "NEW")
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, models.ErrZeroPreviousClose) {
		t.Fatalf("expected FetchError wrapping ErrZeroPreviousClose, got %v", err)
	}
}

func TestFetchShortHistoryIsInsufficient(t *testing.T) {
	src := &fakeSource{
		quote:   &models.Quote{LastPrice: 10, PrevClose: 9},
		candles: risingCandles(5),
	}
	md, err := NewFetcher(src, WithRSI(14, technical.SmoothingWilder), WithHistoryRange("1mo")).Fetch(context.Background(), "IPO")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if md.Indicator.State != models.IndicatorInsufficient {
		t.Errorf("expected insufficient RSI, got %+v", md.Indicator)
	}
	if src.lastRange != "1mo" {
		t.Errorf("history range = %q", src.lastRange)
	}
}
