package models

import (
	"strings"
	"time"
)

// NewsArticle is a single headline returned by a news provider.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsDigest is the rendered news context for one symbol.
// Exactly one of Headlines or Fallback is populated.
type NewsDigest struct {
	Headlines []string      `json:"headlines,omitempty"`
	Fallback  string        `json:"fallback,omitempty"`
	Tone      *HeadlineTone `json:"tone,omitempty"`
}

// HeadlineTone is an offline keyword read of the digest headlines.
// Score runs from -1 (bearish) to +1 (bullish).
type HeadlineTone struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Text renders the digest as "- headline" lines, or the fallback message.
func (d NewsDigest) Text() string {
	if len(d.Headlines) == 0 {
		return d.Fallback
	}
	var sb strings.Builder
	for i, h := range d.Headlines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(h)
	}
	return sb.String()
}

// AnalysisRequest carries everything the advisory composer needs.
type AnalysisRequest struct {
	Symbol     string        `json:"symbol"`
	AssetClass AssetClass    `json:"asset_class"`
	Snapshot   QuoteSnapshot `json:"snapshot"`
	Indicator  Indicator     `json:"rsi"`
	News       NewsDigest    `json:"news"`
}

// Attempt records the outcome of one model candidate.
type Attempt struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Err      string        `json:"error,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Latency  time.Duration `json:"latency"`
}

// Succeeded reports whether this candidate produced the advisory.
func (a Attempt) Succeeded() bool { return a.Err == "" && !a.Skipped }

// Advisory is the generated commentary. When every candidate failed,
// Exhausted is set and Text holds the fixed busy message.
type Advisory struct {
	Text      string    `json:"text"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Exhausted bool      `json:"exhausted"`
	Attempts  []Attempt `json:"attempts,omitempty"`
}

// Analysis is the full result of one pipeline run.
type Analysis struct {
	RequestID   string        `json:"request_id"`
	Symbol      string        `json:"symbol"`
	AssetClass  AssetClass    `json:"asset_class"`
	Snapshot    QuoteSnapshot `json:"snapshot"`
	Indicator   Indicator     `json:"rsi"`
	News        NewsDigest    `json:"news"`
	Advisory    Advisory      `json:"advisory"`
	ShareURL    string        `json:"share_url,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}
