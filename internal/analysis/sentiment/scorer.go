// Package sentiment scores news headlines with a keyword dictionary.
// It runs offline and never calls a model.
package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// Tone labels.
const (
	LabelBullish         = "Bullish"
	LabelSlightlyBullish = "Slightly Bullish"
	LabelNeutral         = "Neutral"
	LabelSlightlyBearish = "Slightly Bearish"
	LabelBearish         = "Bearish"
)

// HalfLife is the age at which an article's weight halves.
const HalfLife = 24 * time.Hour

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "raises guidance": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "inflows": 0.4,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "sell-off": 0.7, "fall": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "lawsuit": 0.5, "investigation": 0.5,
	"cut": 0.3, "miss": 0.5, "warning": 0.5, "concern": 0.3, "outflows": 0.4,
}

// ScoreHeadline returns a score from -1.0 (very bearish) to +1.0 (very
// bullish) and a confidence that grows with the number of keyword hits.
func ScoreHeadline(headline string) (score float64, confidence float64) {
	lower := strings.ToLower(headline)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	total := bullScore + bearScore
	if matches == 0 || total == 0 {
		return 0, 0.1 // no signal
	}

	score = (bullScore - bearScore) / total
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// Tone aggregates article scores into one reading, weighting each article
// by its confidence and by age relative to now. Undated articles count as
// fresh. It returns nil when there are no articles.
func Tone(articles []models.NewsArticle, now time.Time) *models.HeadlineTone {
	if len(articles) == 0 {
		return nil
	}

	weightedSum := 0.0
	totalWeight := 0.0
	confSum := 0.0

	for _, a := range articles {
		text := a.Title
		if a.Summary != "" {
			text += " " + a.Summary
		}
		score, conf := ScoreHeadline(text)

		age := 0.0
		if !a.PublishedAt.IsZero() {
			age = max(now.Sub(a.PublishedAt).Hours(), 0)
		}
		w := math.Exp(-math.Ln2*age/HalfLife.Hours()) * conf

		weightedSum += score * w
		totalWeight += w
		confSum += conf
	}

	avg := 0.0
	if totalWeight > 0 {
		avg = weightedSum / totalWeight
	}
	return &models.HeadlineTone{
		Score:      avg,
		Confidence: confSum / float64(len(articles)),
		Label:      Label(avg),
	}
}

// Label maps an aggregate score to its tone label.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return LabelBullish
	case score > 0.1:
		return LabelSlightlyBullish
	case score < -0.3:
		return LabelBearish
	case score < -0.1:
		return LabelSlightlyBearish
	default:
		return LabelNeutral
	}
}
