package utils

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/seenimoa/tickerlens/pkg/models"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" 2330.tw ", "2330.TW"},
		{"$TSLA", "TSLA"},
		{"gc=f", "GC=F"},
		{"btc-usd\n", "BTC-USD"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClassifyTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected models.AssetClass
	}{
		{"2330.TW", models.AssetTaiwanEquity},
		{"6488.TWO", models.AssetTaiwanEquity},
		{"FAKE.TW", models.AssetTaiwanEquity},
		{"GC=F", models.AssetCommodityOrCrypto},
		{"GLD", models.AssetCommodityOrCrypto},
		{"SI=F", models.AssetCommodityOrCrypto},
		{"CL=F", models.AssetCommodityOrCrypto},
		{"BTC-USD", models.AssetCommodityOrCrypto},
		{"ETH-USD", models.AssetOther},
		{"AAPL", models.AssetOther},
		{"TW", models.AssetOther},
		{"", models.AssetOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ClassifyTicker(tt.input); got != tt.expected {
				t.Errorf("ClassifyTicker(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassifyTickerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("any symbol ending in .TW is a Taiwan equity", prop.ForAll(
		func(prefix string) bool {
			return ClassifyTicker(NormalizeTicker(prefix+".tw")) == models.AssetTaiwanEquity
		},
		gen.AlphaString(),
	))

	properties.Property("classification is total and deterministic", prop.ForAll(
		func(s string) bool {
			sym := NormalizeTicker(s)
			a, b := ClassifyTicker(sym), ClassifyTicker(sym)
			return a == b && a.Valid()
		},
		gen.AnyString(),
	))

	properties.Property("normalization is idempotent", prop.ForAll(
		func(s string) bool {
			once := NormalizeTicker(s)
			return NormalizeTicker(once) == once || strings.HasPrefix(once, "$")
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestShareURL(t *testing.T) {
	if got := ShareURL("https://lens.example.com/", "AAPL"); got != "https://lens.example.com/?ticker=AAPL" {
		t.Errorf("ShareURL = %q", got)
	}
	if got := ShareURL("https://lens.example.com", "GC=F"); got != "https://lens.example.com/?ticker=GC%3DF" {
		t.Errorf("ShareURL = %q", got)
	}
	if got := ShareURL("", "AAPL"); got != "" {
		t.Errorf("ShareURL with empty base = %q, want empty", got)
	}
}
