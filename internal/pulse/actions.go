package pulse

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pulsebot/internal/domain"
	"pulsebot/internal/llm"
)

const DefaultActionLimit = 3

// fallbackPriorityThreshold: a theme with more negative mentions than this
// gets a high-priority fallback action.
const fallbackPriorityThreshold = 10

// Oracle mirrors themer.Oracle; declared here so pulse carries no themer
// dependency beyond domain types.
type Oracle interface {
	Complete(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

type actionRow struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	Effort         string `json:"effort"`
	AddressesTheme string `json:"addresses_theme"`
}

// SynthesizeActions asks the oracle for n ranked recommendations grounded in
// the top themes and their quotes. Entries without a title are dropped, not
// repaired. Any failure falls back to the deterministic template set, so the
// call is total.
func SynthesizeActions(ctx context.Context, oracle Oracle, product string, themes []domain.ThemeStat, quotesByTheme map[string][]domain.Quote, n int) []domain.ActionItem {
	if len(themes) == 0 {
		return nil
	}
	if n < 1 {
		n = DefaultActionLimit
	}

	response, err := oracle.Complete(ctx, buildActionPrompt(product, themes, quotesByTheme, n), true)
	if err != nil {
		log.Printf("pulse actions oracle failed (%v), using template fallback", err)
		return FallbackActions(themes)
	}

	var rows []actionRow
	if err := llm.ExtractJSON(response, &rows); err != nil {
		log.Printf("pulse actions parse failed (%v), using template fallback", err)
		return FallbackActions(themes)
	}

	var actions []domain.ActionItem
	for _, row := range rows {
		if len(actions) >= n {
			break
		}
		if strings.TrimSpace(row.Title) == "" {
			continue
		}
		actions = append(actions, domain.ActionItem{
			Title:          strings.TrimSpace(row.Title),
			Description:    strings.TrimSpace(row.Description),
			Priority:       parsePriority(row.Priority),
			Effort:         parseEffort(row.Effort),
			AddressesTheme: strings.TrimSpace(row.AddressesTheme),
		})
	}
	if len(actions) == 0 {
		log.Printf("pulse actions: no valid entries in response, using template fallback")
		return FallbackActions(themes)
	}
	return actions
}

func parsePriority(s string) domain.Priority {
	switch domain.Priority(s) {
	case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
		return domain.Priority(s)
	}
	return domain.PriorityMedium
}

func parseEffort(s string) domain.Effort {
	switch domain.Effort(s) {
	case domain.EffortQuickWin, domain.EffortMedium, domain.EffortLarge:
		return domain.Effort(s)
	}
	return domain.EffortMedium
}

func buildActionPrompt(product string, themes []domain.ThemeStat, quotesByTheme map[string][]domain.Quote, n int) string {
	var themeBlocks strings.Builder
	for _, theme := range themes {
		var quoteLines strings.Builder
		for i, quote := range quotesByTheme[theme.Name] {
			if i >= 3 {
				break
			}
			quoteLines.WriteString(fmt.Sprintf("  - %q\n", quote.Text))
		}
		themeBlocks.WriteString(fmt.Sprintf("\n**%s** (%d mentions, %.1f%% of reviews)\nSample complaints:\n%s\n",
			theme.Name, theme.Count, theme.Percentage, quoteLines.String()))
	}

	return fmt.Sprintf(`You are a product manager analyzing user feedback for %s.

## Top User Complaints This Week:
%s
## Task:
Generate exactly %d specific, actionable recommendations to address these issues.

## Requirements:
- Each action should be SPECIFIC and IMPLEMENTABLE
- Prioritize by impact (address issues affecting most users first)
- Include both quick wins and longer-term fixes
- Be practical for a mobile app development team

## Output Format:
Return a JSON array with exactly %d objects:
[
  {
    "title": "Short action title (5-10 words)",
    "description": "Detailed description of what to do (2-3 sentences)",
    "priority": "high" | "medium" | "low",
    "effort": "quick-win" | "medium" | "large",
    "addresses_theme": "Theme name this action addresses"
  }
]

Return ONLY the JSON array.`,
		product, themeBlocks.String(), n, n)
}

type actionTemplate struct {
	keyword     string
	title       string
	description string
	effort      domain.Effort
}

// Ordered: the first keyword matching the theme name wins.
var actionTemplates = []actionTemplate{
	{"support", "Improve customer support response times",
		"Implement ticket prioritization and set SLA targets for response times. Consider adding live chat support.",
		domain.EffortMedium},
	{"app", "Fix app stability and performance issues",
		"Prioritize crash fixes and performance optimization. Add crash reporting for better debugging.",
		domain.EffortMedium},
	{"withdrawal", "Streamline withdrawal process",
		"Review and optimize the withdrawal pipeline. Add status tracking and proactive notifications.",
		domain.EffortLarge},
	{"data", "Improve data accuracy and display",
		"Audit data sources for accuracy. Fix display issues and add missing indicators.",
		domain.EffortMedium},
}

var defaultActionTemplate = actionTemplate{"", "Address user complaints",
	"Review user feedback and prioritize fixes based on impact.",
	domain.EffortMedium}

// FallbackActions derives recommendations without the oracle: one action per
// top theme (at most 3), matched by keyword against the template set.
// Priority follows the theme's negative-mention volume. Never fails.
func FallbackActions(themes []domain.ThemeStat) []domain.ActionItem {
	var actions []domain.ActionItem
	for _, theme := range themes {
		if len(actions) >= DefaultActionLimit {
			break
		}
		template := defaultActionTemplate
		lowered := strings.ToLower(theme.Name)
		for _, candidate := range actionTemplates {
			if strings.Contains(lowered, candidate.keyword) {
				template = candidate
				break
			}
		}
		priority := domain.PriorityMedium
		if theme.NegativeCount() > fallbackPriorityThreshold {
			priority = domain.PriorityHigh
		}
		actions = append(actions, domain.ActionItem{
			Title:          template.title,
			Description:    template.description,
			Priority:       priority,
			Effort:         template.effort,
			AddressesTheme: theme.Name,
		})
	}
	return actions
}
