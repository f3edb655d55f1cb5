package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleAnalysis() *models.Analysis {
	snap, _ := models.NewQuoteSnapshot(decimal.NewFromInt(153), decimal.NewFromInt(150), "USD")
	return &models.Analysis{
		RequestID:  "req-1",
		Symbol:     "AAPL",
		AssetClass: models.AssetOther,
		Snapshot:   snap,
		Indicator:  models.Indicator{Name: "RSI", Period: 14, Value: 72.5, State: models.IndicatorDefined},
		News:       models.NewsDigest{Headlines: []string{"Apple unveils new chip", "Services revenue hits record"}},
		Advisory: models.Advisory{
			Text:     "1. Trend is strong.\n2. RSI is overbought.\n3. Conservative traders wait.",
			Provider: "gemini", Model: "gemini-2.5-flash",
		},
		ShareURL:    "https://tickerlens.example.com/?ticker=AAPL",
		GeneratedAt: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
	}
}

// ── Format Tests ──

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): got %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

// ── Text Tests ──

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleAnalysis(), Options{Format: FormatText, NoColor: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"AAPL  [US Stock/Global]",
		"Price:  153.00 USD",
		"Change: 3.00 (2.00%)",
		"RSI(14): 72.50 (overbought)",
		"- Apple unveils new chip",
		"(gemini/gemini-2.5-flash)",
		"RSI is overbought",
		"Share: https://tickerlens.example.com/?ticker=AAPL",
		"Generated: 2026-03-02 09:30 EST",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output must not contain ANSI escapes")
	}
}

func TestRenderTextFallbacks(t *testing.T) {
	a := sampleAnalysis()
	a.Indicator = models.Indicator{Period: 14, State: models.IndicatorIndeterminate}
	a.News = models.NewsDigest{Fallback: "No material recent news."}
	a.Advisory = models.Advisory{Text: "busy", Exhausted: true}

	var buf bytes.Buffer
	if err := Render(&buf, a, Options{NoColor: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "RSI(14): indeterminate") || !strings.Contains(out, "No material recent news.") {
		t.Errorf("fallbacks missing:\n%s", out)
	}
}

// ── JSON / YAML Tests ──

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleAnalysis(), Options{Format: FormatJSON}); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["symbol"] != "AAPL" || got["asset_class"] != "US Stock/Global" {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleAnalysis(), Options{Format: FormatYAML}); err != nil {
		t.Fatal(err)
	}
	var v View
	if err := yaml.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if v.Price != "153.00" || v.ChangePercent != "2.00" || v.RSI != "72.50" || len(v.News) != 2 {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestRenderQuote(t *testing.T) {
	a := sampleAnalysis()
	md := models.MarketData{Symbol: a.Symbol, Snapshot: a.Snapshot, Indicator: a.Indicator, Bars: 63}

	var buf bytes.Buffer
	if err := RenderQuote(&buf, "AAPL", models.AssetOther, md, Options{NoColor: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "153.00 USD") {
		t.Errorf("unexpected quote output: %s", buf.String())
	}

	buf.Reset()
	if err := RenderQuote(&buf, "AAPL", models.AssetOther, md, Options{Format: FormatJSON}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"bars": 63`) {
		t.Errorf("unexpected quote JSON: %s", buf.String())
	}
}
