// Package technical implements the technical indicators used by the advisory
// pipeline. Functions operate on close series extracted from []models.OHLCV.
package technical

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// DefaultRSIPeriod is the conventional RSI look-back.
const DefaultRSIPeriod = 14

// Smoothing selects how average gains and losses are computed.
type Smoothing string

const (
	// SmoothingSMA averages the last period diffs with equal weight (rolling mean).
	SmoothingSMA Smoothing = "sma"
	// SmoothingWilder seeds with a simple mean and then applies Wilder's recursive average.
	SmoothingWilder Smoothing = "wilder"
)

// ParseSmoothing parses a smoothing name; empty means SMA.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(strings.ToLower(strings.TrimSpace(s))) {
	case "", SmoothingSMA:
		return SmoothingSMA, nil
	case SmoothingWilder:
		return SmoothingWilder, nil
	}
	return "", fmt.Errorf("technical: unknown RSI smoothing %q", s)
}

// Closes extracts the close series from candles. Adjusted closes are used
// only when every bar carries one, so the series never mixes the two.
func Closes(candles []models.OHLCV) []float64 {
	adjusted := len(candles) > 0
	for _, c := range candles {
		if c.AdjClose <= 0 {
			adjusted = false
			break
		}
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		if adjusted {
			closes[i] = c.AdjClose
		} else {
			closes[i] = c.Close
		}
	}
	return closes
}

// RSI calculates the Relative Strength Index for every close.
//
// With SMA smoothing the first reading is at index period-1: the first
// close has no predecessor and contributes a zero change to the window.
// Wilder smoothing seeds from period real changes, so its first reading is
// at index period. Earlier readings are marked insufficient; the rest are
// defined, saturated (no losses in the window) or indeterminate (flat window).
func RSI(closes []float64, period int, smoothing Smoothing) []models.Indicator {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	n := len(closes)
	out := make([]models.Indicator, n)
	for i := range out {
		out[i] = models.Indicator{Name: "RSI", Period: period, State: models.IndicatorInsufficient}
	}
	if n < period || (smoothing == SmoothingWilder && n < period+1) {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	switch smoothing {
	case SmoothingWilder:
		avgGain := windowMean(gains, 1, period)
		avgLoss := windowMean(losses, 1, period)
		out[period] = rsiReading(period, avgGain, avgLoss)
		for i := period + 1; i < n; i++ {
			avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
			out[i] = rsiReading(period, avgGain, avgLoss)
		}
	default:
		// Each window is summed afresh so an all-zero window is exactly zero.
		for i := period - 1; i < n; i++ {
			out[i] = rsiReading(period, windowMean(gains, i-period+1, period), windowMean(losses, i-period+1, period))
		}
	}
	return out
}

// RSILatest returns only the most recent RSI reading.
func RSILatest(closes []float64, period int, smoothing Smoothing) models.Indicator {
	vals := RSI(closes, period, smoothing)
	if len(vals) == 0 {
		if period <= 0 {
			period = DefaultRSIPeriod
		}
		return models.Indicator{Name: "RSI", Period: period, State: models.IndicatorInsufficient}
	}
	return vals[len(vals)-1]
}

func rsiReading(period int, avgGain, avgLoss float64) models.Indicator {
	r := models.Indicator{Name: "RSI", Period: period}
	switch {
	case avgLoss == 0 && avgGain == 0:
		r.State = models.IndicatorIndeterminate
	case avgLoss == 0:
		r.State = models.IndicatorSaturated
		r.Value = 100
	default:
		rs := avgGain / avgLoss
		r.Value = 100 - 100/(1+rs)
		r.State = models.IndicatorDefined
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			r.Value = 0
			r.State = models.IndicatorIndeterminate
		}
	}
	return r
}

// windowMean averages data[start : start+period].
func windowMean(data []float64, start, period int) float64 {
	sum := 0.0
	for _, v := range data[start : start+period] {
		sum += v
	}
	return sum / float64(period)
}
