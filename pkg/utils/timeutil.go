package utils

import (
	"time"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// DateLayout is the calendar date format used by news providers.
const DateLayout = "2006-01-02"

// Exchange time zones.
var (
	Taipei  *time.Location
	NewYork *time.Location
)

func init() {
	Taipei = loadLocation("Asia/Taipei", "CST", 8*60*60)
	NewYork = loadLocation("America/New_York", "ET", -5*60*60)
}

func loadLocation(name, abbr string, offset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback: fixed zone if tz database is not available
		return time.FixedZone(abbr, offset)
	}
	return loc
}

// MarketLocation returns the time zone a report for class is shown in.
// Commodities and crypto trade around the clock and are shown in UTC.
func MarketLocation(class models.AssetClass) *time.Location {
	switch class {
	case models.AssetTaiwanEquity:
		return Taipei
	case models.AssetCommodityOrCrypto:
		return time.UTC
	default:
		return NewYork
	}
}

// NewsWindow returns the [from, to] calendar window covering the trailing days up to now.
func NewsWindow(now time.Time, days int) (from, to time.Time) {
	to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return to.AddDate(0, 0, -days), to
}

// FormatDate formats t as "2006-01-02" in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatMarketTime formats t in the market time zone for class.
func FormatMarketTime(t time.Time, class models.AssetClass) string {
	return t.In(MarketLocation(class)).Format("2006-01-02 15:04 MST")
}
