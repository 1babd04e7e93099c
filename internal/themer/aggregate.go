package themer

import (
	"math"
	"sort"

	"pulsebot/internal/domain"
)

// Aggregate computes per-theme statistics from the classified corpus,
// excluding sentinel-themed items. Percentages are over the full corpus
// size, not just issue items. The result is sorted descending by count with
// ties broken by discovery rank.
func Aggregate(records []domain.Classification, items []domain.FeedbackItem, themes []domain.ThemeDefinition) []domain.ThemeStat {
	total := len(records)
	if total == 0 {
		return nil
	}

	ranks := make(map[string]int, len(themes))
	for _, theme := range themes {
		ranks[theme.Name] = theme.Rank
	}

	type accumulator struct {
		stat        *domain.ThemeStat
		ratingSum   int
		ratingCount int
	}
	accs := make(map[string]*accumulator)
	var order []string

	for _, record := range records {
		if domain.IsSentinelTheme(record.Theme) {
			continue
		}
		acc, ok := accs[record.Theme]
		if !ok {
			rank, known := ranks[record.Theme]
			if !known {
				rank = len(themes)
			}
			acc = &accumulator{stat: &domain.ThemeStat{
				Name:       record.Theme,
				Sentiments: make(map[domain.Sentiment]int),
				Rank:       rank,
			}}
			accs[record.Theme] = acc
			order = append(order, record.Theme)
		}
		acc.stat.Count++
		acc.stat.Sentiments[record.Sentiment]++
		if record.GlobalIndex < len(items) {
			if rating := items[record.GlobalIndex].Rating; rating > 0 {
				acc.ratingSum += rating
				acc.ratingCount++
			}
		}
	}

	stats := make([]domain.ThemeStat, 0, len(order))
	for _, name := range order {
		acc := accs[name]
		acc.stat.Percentage = round1(float64(acc.stat.Count) / float64(total) * 100)
		if acc.ratingCount > 0 {
			avg := round2(float64(acc.ratingSum) / float64(acc.ratingCount))
			acc.stat.AvgRating = &avg
		}
		stats = append(stats, *acc.stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Rank < stats[j].Rank
	})
	return stats
}

// TopThemes truncates an already-sorted stat list to the top n entries.
func TopThemes(stats []domain.ThemeStat, n int) []domain.ThemeStat {
	if n < 1 {
		n = 3
	}
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// IssueItems counts records classified under a non-sentinel theme.
func IssueItems(records []domain.Classification) int {
	count := 0
	for _, record := range records {
		if !domain.IsSentinelTheme(record.Theme) {
			count++
		}
	}
	return count
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func round2(x float64) float64 { return math.Round(x*100) / 100 }
