// Package report renders analyses for the terminal and for machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Options controls rendering.
type Options struct {
	Format  Format
	NoColor bool
}

// ════════════════════════════════════════════════════════════════════
// View: flattened, string-valued form of an Analysis
// ════════════════════════════════════════════════════════════════════

// View is the serializable form used for YAML output and the text renderer.
// Monetary values are pre-formatted with two decimals.
type View struct {
	RequestID     string   `json:"request_id"            yaml:"request_id"`
	Symbol        string   `json:"symbol"                yaml:"symbol"`
	AssetClass    string   `json:"asset_class"           yaml:"asset_class"`
	Price         string   `json:"price"                 yaml:"price"`
	Currency      string   `json:"currency"              yaml:"currency"`
	Change        string   `json:"change"                yaml:"change"`
	ChangePercent string   `json:"change_percent"        yaml:"change_percent"`
	RSI           string   `json:"rsi"                   yaml:"rsi"`
	RSIState      string   `json:"rsi_state"             yaml:"rsi_state"`
	News          []string `json:"news"                  yaml:"news"`
	NewsTone      string   `json:"news_tone,omitempty"   yaml:"news_tone,omitempty"`
	Advisory      string   `json:"advisory"              yaml:"advisory"`
	Model         string   `json:"model,omitempty"       yaml:"model,omitempty"`
	Exhausted     bool     `json:"exhausted"             yaml:"exhausted"`
	ShareURL      string   `json:"share_url,omitempty"   yaml:"share_url,omitempty"`
	GeneratedAt   string   `json:"generated_at"          yaml:"generated_at"`
}

// NewView flattens a into a View.
func NewView(a *models.Analysis) View {
	v := View{
		RequestID:     a.RequestID,
		Symbol:        a.Symbol,
		AssetClass:    a.AssetClass.String(),
		Price:         a.Snapshot.Price.StringFixed(2),
		Currency:      a.Snapshot.Currency,
		Change:        a.Snapshot.ChangeAmount.StringFixed(2),
		ChangePercent: a.Snapshot.ChangePercent.StringFixed(2),
		RSI:           a.Indicator.Format(),
		RSIState:      string(a.Indicator.State),
		Advisory:      a.Advisory.Text,
		Model:         a.Advisory.Model,
		Exhausted:     a.Advisory.Exhausted,
		ShareURL:      a.ShareURL,
		GeneratedAt:   a.GeneratedAt.Format(time.RFC3339),
	}
	if len(a.News.Headlines) > 0 {
		v.News = append(v.News, a.News.Headlines...)
	} else if a.News.Fallback != "" {
		v.News = []string{a.News.Fallback}
	}
	if t := a.News.Tone; t != nil {
		v.NewsTone = fmt.Sprintf("%s (%+.2f)", t.Label, t.Score)
	}
	return v
}

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

// Render writes a to w in the requested format.
func Render(w io.Writer, a *models.Analysis, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case FormatYAML:
		return writeYAML(w, NewView(a))
	default:
		_, err := io.WriteString(w, renderText(a, opts.NoColor))
		return err
	}
}

// RenderQuote writes the market-data-only view for symbol.
func RenderQuote(w io.Writer, symbol string, class models.AssetClass, md models.MarketData, opts Options) error {
	view := struct {
		Symbol        string `json:"symbol"         yaml:"symbol"`
		AssetClass    string `json:"asset_class"    yaml:"asset_class"`
		Price         string `json:"price"          yaml:"price"`
		Currency      string `json:"currency"       yaml:"currency"`
		Change        string `json:"change"         yaml:"change"`
		ChangePercent string `json:"change_percent" yaml:"change_percent"`
		RSI           string `json:"rsi"            yaml:"rsi"`
		Bars          int    `json:"bars"           yaml:"bars"`
	}{
		Symbol:        symbol,
		AssetClass:    class.String(),
		Price:         md.Snapshot.Price.StringFixed(2),
		Currency:      md.Snapshot.Currency,
		Change:        md.Snapshot.ChangeAmount.StringFixed(2),
		ChangePercent: md.Snapshot.ChangePercent.StringFixed(2),
		RSI:           md.Indicator.Format(),
		Bars:          md.Bars,
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case FormatYAML:
		return writeYAML(w, view)
	}

	p := newPalette(opts.NoColor)
	var sb strings.Builder
	sb.WriteString(p.title(fmt.Sprintf("%s  [%s]", symbol, class)) + "\n")
	sb.WriteString(fmt.Sprintf("  Price:  %s\n", md.Snapshot.PriceText()))
	sb.WriteString(fmt.Sprintf("  Change: %s\n", p.change(md.Snapshot.ChangeAmount.Sign(), md.Snapshot.ChangeText())))
	sb.WriteString(fmt.Sprintf("  RSI(%d): %s\n", md.Indicator.Period, p.rsi(md.Indicator)))
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

type palette struct {
	head  *color.Color
	up    *color.Color
	down  *color.Color
	warn  *color.Color
	faint *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		head:  color.New(color.FgCyan, color.Bold),
		up:    color.New(color.FgGreen),
		down:  color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		faint: color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.head, p.up, p.down, p.warn, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) title(s string) string { return p.head.Sprint(s) }

func (p palette) change(sign int, s string) string {
	switch {
	case sign > 0:
		return p.up.Sprint(s)
	case sign < 0:
		return p.down.Sprint(s)
	}
	return s
}

// rsi highlights overbought (>=70) and oversold (<=30) readings.
func (p palette) rsi(ind models.Indicator) string {
	s := ind.Format()
	if !ind.Numeric() {
		return p.faint.Sprint(s)
	}
	switch {
	case ind.Value >= 70:
		return p.down.Sprint(s + " (overbought)")
	case ind.Value <= 30:
		return p.up.Sprint(s + " (oversold)")
	}
	return s
}

func renderText(a *models.Analysis, noColor bool) string {
	p := newPalette(noColor)
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  " + p.title(fmt.Sprintf("%s  [%s]", a.Symbol, a.AssetClass)) + "\n")
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", utils.FormatMarketTime(a.GeneratedAt, a.AssetClass)))
	sb.WriteString(line + "\n\n")

	sb.WriteString(fmt.Sprintf("  Price:  %s\n", a.Snapshot.PriceText()))
	sb.WriteString(fmt.Sprintf("  Change: %s\n", p.change(a.Snapshot.ChangeAmount.Sign(), a.Snapshot.ChangeText())))
	sb.WriteString(fmt.Sprintf("  RSI(%d): %s\n", a.Indicator.Period, p.rsi(a.Indicator)))
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ RECENT NEWS\n")
	for _, l := range strings.Split(a.News.Text(), "\n") {
		sb.WriteString("  " + l + "\n")
	}
	if t := a.News.Tone; t != nil {
		sb.WriteString(p.faint.Sprintf("  Headline tone: %s (%+.2f)", t.Label, t.Score) + "\n")
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ ADVISORY")
	if a.Advisory.Model != "" {
		sb.WriteString(p.faint.Sprintf("  (%s/%s)", a.Advisory.Provider, a.Advisory.Model))
	}
	sb.WriteString("\n\n")
	text := a.Advisory.Text
	if a.Advisory.Exhausted {
		text = p.warn.Sprint(text)
	}
	sb.WriteString(text + "\n")

	sb.WriteString("\n" + line + "\n")
	if a.ShareURL != "" {
		sb.WriteString("  Share: " + a.ShareURL + "\n")
	}
	sb.WriteString("  Disclaimer: AI-generated commentary for educational purposes. Not financial advice.\n")
	sb.WriteString(line + "\n")
	return sb.String()
}
