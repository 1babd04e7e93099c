package themer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pulsebot/internal/domain"
	"pulsebot/internal/llm"
)

// parseDegradedTheme is the neutral default assigned when a batch response
// cannot be parsed: the items were seen by the model, so they get a real
// (if low-confidence) theme rather than the Unknown sentinel.
const parseDegradedTheme = "User Experience"

const itemTruncateLen = 500

// ClassifyResult carries per-item records plus batch-level quality signals
// so the caller can log or alert without the run having failed.
type ClassifyResult struct {
	Records         []domain.Classification
	Batches         int
	DegradedBatches int // response present but unparseable
	FailedBatches   int // transport failure, no response at all
}

type batchRow struct {
	Index      int    `json:"index"`
	Theme      string `json:"theme"`
	Sentiment  string `json:"sentiment"`
	Confidence string `json:"confidence"`
}

// Classify partitions the redacted corpus into contiguous fixed-size batches
// and asks the oracle to assign each item a theme, sentiment, and confidence.
// Batch failures of either kind degrade to synthesized records instead of
// dropping items; the final set always holds exactly one record per item,
// ordered by global index.
func (t *Themer) Classify(ctx context.Context, texts []string, themes []domain.ThemeDefinition) ClassifyResult {
	result := ClassifyResult{}
	if len(texts) == 0 {
		return result
	}

	known := themeSet(themes)
	covered := make(map[int]domain.Classification, len(texts))

	for start := 0; start < len(texts); start += t.batchSize {
		end := start + t.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		result.Batches++

		response, err := t.oracle.Complete(ctx, t.buildClassifyPrompt(batch, themes), true)
		if err != nil {
			if errors.Is(err, llm.ErrNotConfigured) {
				// No backend at all: nothing later in the run will succeed
				// either, so leave the rest to the Unknown backfill.
				log.Printf("themer classify batch=%d: %v", result.Batches, err)
				result.FailedBatches++
				continue
			}
			log.Printf("themer classify batch=%d transport failure: %v", result.Batches, err)
			result.FailedBatches++
			for i := range batch {
				covered[start+i] = degradedRecord(start+i, domain.ThemeUnknown)
			}
			continue
		}

		var rows []batchRow
		if err := llm.ExtractJSON(response, &rows); err != nil {
			log.Printf("themer classify batch=%d parse failure: %v", result.Batches, err)
			result.DegradedBatches++
			for i := range batch {
				covered[start+i] = degradedRecord(start+i, parseDegradedTheme)
			}
			continue
		}

		for _, row := range rows {
			if row.Index < 1 || row.Index > len(batch) {
				continue
			}
			globalIndex := start + row.Index - 1
			if _, dup := covered[globalIndex]; dup {
				continue
			}
			theme := strings.TrimSpace(row.Theme)
			if _, ok := known[theme]; !ok && !domain.IsSentinelTheme(theme) {
				theme = domain.ThemeUnknown
			}
			covered[globalIndex] = domain.Classification{
				GlobalIndex: globalIndex,
				Theme:       theme,
				Sentiment:   domain.ParseSentiment(row.Sentiment),
				Confidence:  domain.ParseConfidence(row.Confidence),
			}
		}
		log.Printf("themer classified items %d-%d", start+1, end)
	}

	// Backfill: any index the oracle never covered gets an Unknown record so
	// the classified set is total over the corpus.
	result.Records = make([]domain.Classification, len(texts))
	for i := range texts {
		if record, ok := covered[i]; ok {
			result.Records[i] = record
		} else {
			result.Records[i] = degradedRecord(i, domain.ThemeUnknown)
		}
	}
	return result
}

func degradedRecord(globalIndex int, theme string) domain.Classification {
	return domain.Classification{
		GlobalIndex: globalIndex,
		Theme:       theme,
		Sentiment:   domain.SentimentNeutral,
		Confidence:  domain.ConfidenceLow,
		Degraded:    true,
	}
}

func (t *Themer) buildClassifyPrompt(batch []string, themes []domain.ThemeDefinition) string {
	var themeLines strings.Builder
	for _, theme := range themes {
		themeLines.WriteString(fmt.Sprintf("- **%s**: %s\n", theme.Name, theme.Description))
	}

	var itemLines strings.Builder
	for i, text := range batch {
		itemLines.WriteString(fmt.Sprintf("%d. %s\n", i+1, truncateRunes(text, itemTruncateLen)))
	}

	return fmt.Sprintf(`You are analyzing user reviews for %s to identify issues and problems.

## Problem Themes to classify into:
%s- **No Issue**: Positive reviews without specific complaints or problems

## Task:
Classify each review into ONE of the themes above:
- If review mentions a PROBLEM or COMPLAINT, assign to matching problem theme
- If review is POSITIVE with NO specific issue, assign to "No Issue"

## Reviews to classify:
%s
## Output Format:
Return a JSON array where each element has:
- "index": review number (1-based)
- "theme": exact theme name from above (including "No Issue" for positive reviews)
- "sentiment": "positive", "neutral", or "negative"
- "confidence": "high", "medium", or "low"

Example:
[
  {"index": 1, "theme": "App Crashes", "sentiment": "negative", "confidence": "high"},
  {"index": 2, "theme": "No Issue", "sentiment": "positive", "confidence": "high"}
]

Return ONLY the JSON array, no other text.`,
		t.product, themeLines.String(), itemLines.String())
}
