package themer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"pulsebot/internal/domain"
)

const (
	promptSampleLimit = 50
	sampleTruncateLen = 300
)

// fallbackThemes is the built-in catalog substituted whenever discovery
// cannot produce a usable theme set.
var fallbackThemes = []domain.ThemeDefinition{
	{Name: "App Performance", Description: "App crashes, freezing, slow loading, bugs, technical issues"},
	{Name: "User Experience", Description: "UI/UX design, navigation, ease of use, feature discoverability"},
	{Name: "Trading & Stocks", Description: "Stock trading, buying/selling, price accuracy, order execution"},
	{Name: "Account & KYC", Description: "Account setup, KYC verification, login issues, account blocking"},
	{Name: "Customer Support", Description: "Support response, issue resolution, communication quality"},
}

// FallbackCatalog returns a ranked copy of the built-in theme catalog.
func FallbackCatalog() []domain.ThemeDefinition {
	out := make([]domain.ThemeDefinition, len(fallbackThemes))
	copy(out, fallbackThemes)
	for i := range out {
		out[i].Rank = i
	}
	return out
}

// DiscoverThemes proposes at most maxThemes named problem themes from a
// bounded random sample of the redacted corpus. It is total: every failure
// path (no items, transport, parse, malformed shape) yields the fallback
// catalog, never an error.
func (t *Themer) DiscoverThemes(ctx context.Context, texts []string) []domain.ThemeDefinition {
	if len(texts) == 0 {
		log.Printf("themer discover: empty corpus, using fallback catalog")
		return FallbackCatalog()
	}

	sample := texts
	if len(texts) > t.sampleSize {
		perm := t.rng.Perm(len(texts))
		sample = make([]string, 0, t.sampleSize)
		for _, idx := range perm[:t.sampleSize] {
			sample = append(sample, texts[idx])
		}
	}

	response, err := t.oracle.Complete(ctx, t.buildDiscoveryPrompt(sample), true)
	if err != nil {
		log.Printf("themer discover failed (%v), using fallback catalog", err)
		return FallbackCatalog()
	}

	themes, err := parseThemeObject(response)
	if err != nil || len(themes) == 0 {
		log.Printf("themer discover unusable response (%v), using fallback catalog", err)
		return FallbackCatalog()
	}
	if len(themes) > t.maxThemes {
		// Response order is significance order; keep the head.
		themes = themes[:t.maxThemes]
	}
	for i := range themes {
		themes[i].Rank = i
	}
	log.Printf("themer discover: %d themes from %d sampled items", len(themes), len(sample))
	return themes
}

func (t *Themer) buildDiscoveryPrompt(sample []string) string {
	var sampleLines strings.Builder
	limit := len(sample)
	if limit > promptSampleLimit {
		limit = promptSampleLimit
	}
	for _, text := range sample[:limit] {
		sampleLines.WriteString("- " + truncateRunes(text, sampleTruncateLen) + "\n")
	}

	return fmt.Sprintf(`Analyze these user reviews for %s and identify the TOP %d ACTIONABLE problem areas/issues.

## Sample Reviews:
%s
## Task:
1. Identify the %d most common PROBLEMS, ISSUES, or PAIN POINTS users mention
2. Focus on SPECIFIC, ACTIONABLE issues - NOT generic praise like "great app" or "love it"
3. Give each theme a short, clear name (2-4 words)
4. Write a brief description of what the problem is

## Output Format:
Return ONLY a JSON object with theme names as keys and descriptions as values.

Example:
{
  "Withdrawal Delays": "Money withdrawal taking too long, funds stuck, delayed payments",
  "App Crashes": "Application crashing, freezing, not loading properly",
  "Poor Support": "Unresponsive customer service, long wait times, unhelpful agents"
}

IMPORTANT:
- Focus ONLY on problems, complaints, and issues - NOT positive generic feedback
- Exactly %d themes
- Theme names should be specific and actionable
- Descriptions should explain the actual problem (5-15 words)
- Skip themes like "General Satisfaction" or "Positive Experience"
- Return ONLY valid JSON, no other text`,
		t.product, t.maxThemes, sampleLines.String(), t.maxThemes, t.maxThemes)
}

// parseThemeObject decodes a {name: description} object while preserving key
// order, which encoding/json maps discard. Order carries significance.
func parseThemeObject(raw string) ([]domain.ThemeDefinition, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var themes []domain.ThemeDefinition
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var description string
		if err := dec.Decode(&description); err != nil {
			return nil, fmt.Errorf("theme %q: %w", name, err)
		}
		name = strings.TrimSpace(name)
		if name == "" || domain.IsSentinelTheme(name) {
			continue
		}
		themes = append(themes, domain.ThemeDefinition{Name: name, Description: strings.TrimSpace(description)})
	}
	return themes, nil
}
