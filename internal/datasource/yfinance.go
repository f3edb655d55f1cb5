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
)

// DefaultYahooBaseURL is the Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YFinance implements QuoteSource using the Yahoo Finance v8 chart API.
type YFinance struct {
	baseURL string
	client  *http.Client
	limiter *RateLimiter
}

// YFinanceOption configures a YFinance source.
type YFinanceOption func(*YFinance)

// WithYFinanceBaseURL overrides the API host (used in tests).
func WithYFinanceBaseURL(u string) YFinanceOption {
	return func(y *YFinance) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithYFinanceHTTPClient sets a custom HTTP client.
func WithYFinanceHTTPClient(c *http.Client) YFinanceOption {
	return func(y *YFinance) { y.client = c }
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance(opts ...YFinanceOption) *YFinance {
	y := &YFinance{
		baseURL: DefaultYahooBaseURL,
		client:  HTTPClient,
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
	for _, o := range opts {
		o(y)
	}
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 chart API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
	PreviousClose      float64 `json:"previousClose"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
}

type yfIndicators struct {
	Quote    []yfOHLCV    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// Quote returns the fast quote from the one-day chart metadata.
func (y *YFinance) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	result, err := y.chart(ctx, symbol, url.Values{
		"range":    {"1d"},
		"interval": {"1d"},
	})
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("%w: %s has no market price", ErrTickerNotFound, symbol)
	}
	prev := meta.PreviousClose
	if prev == 0 {
		prev = meta.ChartPreviousClose
	}

	q := &models.Quote{
		Symbol:    coalesce(meta.Symbol, symbol),
		LastPrice: meta.RegularMarketPrice,
		PrevClose: prev,
		Currency:  coalesce(meta.Currency, models.DefaultCurrency),
	}
	if meta.RegularMarketTime > 0 {
		q.Timestamp = time.Unix(meta.RegularMarketTime, 0)
	}
	return q, nil
}

// History returns split- and dividend-adjusted daily bars for the range.
func (y *YFinance) History(ctx context.Context, symbol string, rng string) ([]models.OHLCV, error) {
	if rng == "" {
		rng = "3mo"
	}
	result, err := y.chart(ctx, symbol, url.Values{
		"range":                {rng},
		"interval":             {"1d"},
		"includeAdjustedClose": {"true"},
		"events":               {"div,splits"},
	})
	if err != nil {
		return nil, err
	}
	return parseYFCandles(*result), nil
}

// --- Internal helpers ---

func (y *YFinance) chart(ctx context.Context, symbol string, params url.Values) (*yfChartResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), params.Encode())
	body, status, err := doGet(ctx, y.client, endpoint, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s (%v)", ErrTickerNotFound, symbol, err)
		}
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}

	if resp.Chart.Error != nil {
		if strings.EqualFold(resp.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s (yahoo: %s)", ErrTickerNotFound, symbol, resp.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s (yahoo: empty chart result)", ErrTickerNotFound, symbol)
	}
	return &resp.Chart.Result[0], nil
}

// parseYFCandles converts the columnar chart payload into bars, skipping
// sessions without a close.
func parseYFCandles(result yfChartResult) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	candles := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			c.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			c.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			c.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			c.AdjClose = *adjCloses[i]
		}
		candles = append(candles, c)
	}
	return candles
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
