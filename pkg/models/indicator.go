package models

import "strconv"

// IndicatorState describes how an indicator value should be read.
type IndicatorState string

const (
	// IndicatorDefined is an ordinary finite reading.
	IndicatorDefined IndicatorState = "defined"
	// IndicatorSaturated means the window had gains and no losses (RSI pinned at 100).
	IndicatorSaturated IndicatorState = "saturated"
	// IndicatorIndeterminate means the window was perfectly flat.
	IndicatorIndeterminate IndicatorState = "indeterminate"
	// IndicatorInsufficient means the history was shorter than the period.
	IndicatorInsufficient IndicatorState = "insufficient"
)

// Indicator is a single latest indicator reading. Value is always finite.
type Indicator struct {
	Name   string         `json:"name"`
	Period int            `json:"period"`
	Value  float64        `json:"value"`
	State  IndicatorState `json:"state"`
}

// Numeric reports whether Value carries a meaningful number.
func (i Indicator) Numeric() bool {
	return i.State == IndicatorDefined || i.State == IndicatorSaturated
}

// Format renders the value with two decimals, or a placeholder when undefined.
func (i Indicator) Format() string {
	switch i.State {
	case IndicatorDefined, IndicatorSaturated:
		return strconv.FormatFloat(i.Value, 'f', 2, 64)
	case IndicatorInsufficient:
		return "indeterminate (insufficient history)"
	default:
		return "indeterminate"
	}
}
