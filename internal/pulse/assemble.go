package pulse

import (
	"time"

	"pulsebot/internal/domain"
)

// Assemble packages one run's outputs into the immutable period summary.
// issue_items is the corpus size minus sentinel-themed items. This is the
// terminal, side-effect-free step of the core; persistence and delivery
// happen elsewhere.
func Assemble(records []domain.Classification, stats []domain.ThemeStat, quotesByTheme map[string][]domain.Quote, actions []domain.ActionItem, periodStart, periodEnd time.Time) domain.PeriodSummary {
	issueItems := 0
	for _, record := range records {
		if !domain.IsSentinelTheme(record.Theme) {
			issueItems++
		}
	}
	if quotesByTheme == nil {
		quotesByTheme = map[string][]domain.Quote{}
	}
	return domain.PeriodSummary{
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalItems:    len(records),
		IssueItems:    issueItems,
		ThemeStats:    stats,
		QuotesByTheme: quotesByTheme,
		Actions:       actions,
		GeneratedAt:   time.Now().UTC(),
	}
}
