package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Sentiment is the polarity label the classifier assigns to one feedback item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment normalizes model output; anything unrecognized is neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(s)
	}
	return SentimentNeutral
}

// Score maps a sentiment label to the numeric score stored alongside it.
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentNegative:
		return -1.0
	case SentimentPositive:
		return 1.0
	}
	return 0.0
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	}
	return ConfidenceLow
}

// Reserved theme names. Items classified under either are excluded from
// theme statistics and never treated as discovered themes.
const (
	ThemeUnknown = "Unknown"
	ThemeNoIssue = "No Issue"
)

func IsSentinelTheme(name string) bool {
	return name == ThemeUnknown || name == ThemeNoIssue
}

// FeedbackItem is one raw review/feedback row as stored upstream.
// Text is the raw user content and must pass through redact before any
// prompt is built from it.
type FeedbackItem struct {
	ID             int64
	Text           string
	Rating         int // 1-5, 0 when the source has no rating
	Date           time.Time
	Source         string
	ContentHash    string
	Theme          string // first element of stored topics, "" if unclassified
	SentimentLabel string
	CreatedAt      time.Time
}

// ContentHash derives the stable dedup/write-back key for a feedback item.
func ContentHash(text string, date time.Time, source string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", text, date.Format("2006-01-02"), source)))
	return hex.EncodeToString(sum[:])[:16]
}

// ThemeDefinition is one discovered complaint theme. Rank is the discovery
// order (0 = most significant) and breaks count ties during aggregation.
type ThemeDefinition struct {
	Name        string
	Description string
	Rank        int
}

// Classification is the per-item result of one classification run.
type Classification struct {
	GlobalIndex int
	Theme       string
	Sentiment   Sentiment
	Confidence  Confidence
	Degraded    bool // synthesized locally because the oracle path failed
}

// ThemeStat is the aggregated view of one non-sentinel theme.
// Field names are part of the downstream summary contract.
type ThemeStat struct {
	Name       string            `json:"name"`
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage_of_corpus"`
	AvgRating  *float64          `json:"avg_rating"`
	Sentiments map[Sentiment]int `json:"sentiment_histogram"`

	Rank int `json:"-"` // discovery rank, tie-break only
}

func (t ThemeStat) NegativeCount() int {
	return t.Sentiments[SentimentNegative]
}

type Quote struct {
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
	Rating    int       `json:"rating"`
	Date      string    `json:"date"`
	Source    string    `json:"source_tag"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Effort string

const (
	EffortQuickWin Effort = "quick-win"
	EffortMedium   Effort = "medium"
	EffortLarge    Effort = "large"
)

type ActionItem struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       Priority `json:"priority"`
	Effort         Effort   `json:"effort"`
	AddressesTheme string   `json:"addresses_theme"`
}

// PeriodSummary is the immutable output record for one analysis run.
// Its shape is the stable contract consumed by rendering and delivery.
type PeriodSummary struct {
	PeriodStart   time.Time          `json:"period_start"`
	PeriodEnd     time.Time          `json:"period_end"`
	TotalItems    int                `json:"total_items"`
	IssueItems    int                `json:"issue_items"`
	ThemeStats    []ThemeStat        `json:"theme_stats"`
	QuotesByTheme map[string][]Quote `json:"quotes_by_theme"`
	Actions       []ActionItem       `json:"actions"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// PeriodRange returns the analysis window ending at now and spanning the
// given number of whole weeks.
func PeriodRange(now time.Time, weeks int) (time.Time, time.Time) {
	if weeks < 1 {
		weeks = 1
	}
	end := now.UTC()
	return end.AddDate(0, 0, -7*weeks), end
}
