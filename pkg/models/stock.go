// Package models defines the core data structures used throughout TickerLens.
package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a provider omits the quote currency.
const DefaultCurrency = "USD"

// ErrZeroPreviousClose is returned when a change percentage cannot be derived.
var ErrZeroPreviousClose = errors.New("models: previous close is zero")

// OHLCV represents a single daily bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	AdjClose  float64   `json:"adj_close,omitempty"`
}

// Quote is the raw fast quote as reported by a market data provider.
type Quote struct {
	Symbol    string    `json:"symbol"`
	LastPrice float64   `json:"last_price"`
	PrevClose float64   `json:"prev_close"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteSnapshot is the derived price view shown to the user.
type QuoteSnapshot struct {
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Currency      string          `json:"currency"`
}

var hundred = decimal.NewFromInt(100)

// NewQuoteSnapshot derives change amount and percent from price and previous close.
func NewQuoteSnapshot(price, prevClose decimal.Decimal, currency string) (QuoteSnapshot, error) {
	if prevClose.IsZero() {
		return QuoteSnapshot{}, ErrZeroPreviousClose
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	change := price.Sub(prevClose)
	return QuoteSnapshot{
		Price:         price,
		PreviousClose: prevClose,
		ChangeAmount:  change,
		ChangePercent: change.Div(prevClose).Mul(hundred),
		Currency:      currency,
	}, nil
}

// SnapshotFromQuote converts a provider quote into a QuoteSnapshot.
func SnapshotFromQuote(q Quote) (QuoteSnapshot, error) {
	return NewQuoteSnapshot(decimal.NewFromFloat(q.LastPrice), decimal.NewFromFloat(q.PrevClose), q.Currency)
}

// PriceText renders the price with its currency, e.g. "153.00 USD".
func (s QuoteSnapshot) PriceText() string {
	return s.Price.StringFixed(2) + " " + s.Currency
}

// ChangeText renders the change as "3.00 (2.00%)".
func (s QuoteSnapshot) ChangeText() string {
	return s.ChangeAmount.StringFixed(2) + " (" + s.ChangePercent.StringFixed(2) + "%)"
}

// MarketData is the output of the quote and indicator stage.
type MarketData struct {
	Symbol    string        `json:"symbol"`
	Snapshot  QuoteSnapshot `json:"snapshot"`
	Indicator Indicator     `json:"rsi"`
	Bars      int           `json:"bars"`
}
