package utils

import (
	"net/url"
	"strings"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// Taiwan listings carry an exchange suffix: .TW (TWSE) or .TWO (TPEx).
var taiwanSuffixes = []string{".TW", ".TWO"}

// Commodity futures, commodity ETFs, and crypto pairs handled by the commodity persona.
var commodityCryptoTickers = map[string]bool{
	"GC=F":    true,
	"GLD":     true,
	"SI=F":    true,
	"CL=F":    true,
	"BTC-USD": true,
}

// GoldFuturesTicker has no useful company news and is routed to the macro message.
const GoldFuturesTicker = "GC=F"

// NormalizeTicker trims whitespace, strips a leading "$" and upper-cases the symbol.
func NormalizeTicker(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsTaiwanTicker reports whether symbol is a Taiwan exchange listing.
func IsTaiwanTicker(symbol string) bool {
	for _, suffix := range taiwanSuffixes {
		if strings.HasSuffix(symbol, suffix) {
			return true
		}
	}
	return false
}

// IsCommodityOrCrypto reports whether symbol is in the commodity/crypto set.
func IsCommodityOrCrypto(symbol string) bool {
	return commodityCryptoTickers[symbol]
}

// ClassifyTicker maps a normalized symbol to its asset class. First match wins.
func ClassifyTicker(symbol string) models.AssetClass {
	switch {
	case IsTaiwanTicker(symbol):
		return models.AssetTaiwanEquity
	case IsCommodityOrCrypto(symbol):
		return models.AssetCommodityOrCrypto
	default:
		return models.AssetOther
	}
}

// ShareURL builds the shareable link for symbol, or "" when base is empty.
func ShareURL(base, symbol string) string {
	if base == "" || symbol == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/?ticker=" + url.QueryEscape(symbol)
}
