// Package pulse turns classified feedback into the period summary: quote
// selection, action synthesis, and final assembly.
package pulse

import (
	"sort"
	"unicode/utf8"

	"pulsebot/internal/domain"
	"pulsebot/internal/redact"
)

// All quote length bounds count runes, not bytes: reviews are frequently
// non-ASCII and byte slicing would split characters.
const (
	maxQuoteLen       = 200
	minQuoteLen       = 15
	candidateMinLen   = 20
	candidateMaxLen   = 500
	DefaultQuoteLimit = 3
)

// SelectQuotes picks up to n representative quotes for one theme. Sentiment
// buckets are walked negative first (most actionable); within a bucket,
// candidates closest to the bucket's median text length win, which avoids
// degenerate one-word or wall-of-text outliers. Selected texts are redacted
// and truncated; anything shorter than the floor after redaction is dropped
// without counting toward n.
func SelectQuotes(theme string, records []domain.Classification, items []domain.FeedbackItem, n int) []domain.Quote {
	if n < 1 {
		n = DefaultQuoteLimit
	}

	var quotes []domain.Quote
	for _, sentiment := range []domain.Sentiment{domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentPositive} {
		if len(quotes) >= n {
			break
		}

		var bucket []int
		for _, record := range records {
			if record.Theme != theme || record.Sentiment != sentiment {
				continue
			}
			if record.GlobalIndex < len(items) {
				bucket = append(bucket, record.GlobalIndex)
			}
		}
		if len(bucket) == 0 {
			continue
		}

		candidates := make([]int, 0, len(bucket))
		for _, idx := range bucket {
			if l := utf8.RuneCountInString(items[idx].Text); l >= candidateMinLen && l <= candidateMaxLen {
				candidates = append(candidates, idx)
			}
		}
		if len(candidates) == 0 {
			candidates = bucket
		}

		median := medianLength(candidates, items)
		sort.SliceStable(candidates, func(i, j int) bool {
			di := absDiff(float64(utf8.RuneCountInString(items[candidates[i]].Text)), median)
			dj := absDiff(float64(utf8.RuneCountInString(items[candidates[j]].Text)), median)
			return di < dj
		})

		for _, idx := range candidates {
			if len(quotes) >= n {
				break
			}
			item := items[idx]
			text := redact.Text(item.Text)
			if utf8.RuneCountInString(text) < minQuoteLen {
				continue
			}
			text = truncateQuote(text)
			quotes = append(quotes, domain.Quote{
				Text:      text,
				Sentiment: sentiment,
				Rating:    item.Rating,
				Date:      item.Date.Format("2006-01-02"),
				Source:    item.Source,
			})
		}
	}
	return quotes
}

// truncateQuote caps the text at maxQuoteLen runes, ellipsis included,
// cutting on a rune boundary so the result is always valid UTF-8.
func truncateQuote(text string) string {
	if utf8.RuneCountInString(text) <= maxQuoteLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxQuoteLen-3]) + "..."
}

func medianLength(indices []int, items []domain.FeedbackItem) float64 {
	lengths := make([]int, len(indices))
	for i, idx := range indices {
		lengths[i] = utf8.RuneCountInString(items[idx].Text)
	}
	sort.Ints(lengths)
	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		return float64(lengths[mid])
	}
	return float64(lengths[mid-1]+lengths[mid]) / 2
}

func absDiff(a, b float64) float64 {
	if a < b {
		return b - a
	}
	return a - b
}
