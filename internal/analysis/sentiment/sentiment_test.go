package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/seenimoa/tickerlens/pkg/models"
)

func TestScoreHeadlineBullish(t *testing.T) {
	score, conf := ScoreHeadline("Apple shares rally 5% on strong growth and positive results")
	if score <= 0 {
		t.Errorf("expected positive score for bullish headline, got %.4f", score)
	}
	if conf <= 0.1 {
		t.Errorf("expected confidence above baseline, got %.4f", conf)
	}
}

func TestScoreHeadlineBearish(t *testing.T) {
	score, _ := ScoreHeadline("Market crash: stocks plunge amid fraud investigation concerns")
	if score >= 0 {
		t.Errorf("expected negative score for bearish headline, got %.4f", score)
	}
}

func TestScoreHeadlineNeutral(t *testing.T) {
	score, conf := ScoreHeadline("Company opens new office in Kaohsiung")
	if score != 0 {
		t.Errorf("expected zero score for neutral headline, got %.4f", score)
	}
	if conf != 0.1 {
		t.Errorf("expected baseline confidence, got %.4f", conf)
	}
}

func TestScoreHeadlineBounded(t *testing.T) {
	headlines := []string{
		"bullish rally surge soar record high all-time high breakout upgrade buy",
		"bearish crash plunge slump selloff fraud default lawsuit",
		"strong rally then crash",
	}
	for _, h := range headlines {
		score, conf := ScoreHeadline(h)
		if score < -1 || score > 1 {
			t.Errorf("score %.4f out of range for %q", score, h)
		}
		if conf > 0.85 {
			t.Errorf("confidence %.4f above cap for %q", conf, h)
		}
	}
}

func TestToneEmpty(t *testing.T) {
	if got := Tone(nil, time.Now()); got != nil {
		t.Errorf("expected nil tone, got %+v", got)
	}
}

func TestToneFavoursRecentArticles(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	articles := []models.NewsArticle{
		{Title: "Shares surge on record high results", PublishedAt: now.Add(-time.Hour)},
		{Title: "Stock plunge after downgrade", PublishedAt: now.Add(-96 * time.Hour)},
	}
	tone := Tone(articles, now)
	if tone == nil {
		t.Fatal("expected a tone")
	}
	if tone.Score <= 0 {
		t.Errorf("recent bullish article should dominate, got %.4f", tone.Score)
	}
	if tone.Label != Label(tone.Score) {
		t.Errorf("label %q does not match score %.4f", tone.Label, tone.Score)
	}
}

func TestToneUndatedArticles(t *testing.T) {
	articles := []models.NewsArticle{
		{Title: "Analysts warn of weak demand and margin concern"},
	}
	tone := Tone(articles, time.Now())
	if tone == nil || tone.Score >= 0 {
		t.Fatalf("expected bearish tone, got %+v", tone)
	}
	if math.IsNaN(tone.Score) {
		t.Error("score should be finite")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.5, LabelBullish},
		{0.2, LabelSlightlyBullish},
		{0, LabelNeutral},
		{-0.2, LabelSlightlyBearish},
		{-0.5, LabelBearish},
	}
	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%.1f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
