package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pulsebot/internal/domain"
)

func sampleSummary() domain.PeriodSummary {
	avg := 1.5
	return domain.PeriodSummary{
		PeriodStart: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		TotalItems:  40,
		IssueItems:  22,
		ThemeStats: []domain.ThemeStat{
			{
				Name:       "App Crashes",
				Count:      12,
				Percentage: 30,
				AvgRating:  &avg,
				Sentiments: map[domain.Sentiment]int{domain.SentimentNegative: 12},
			},
			{
				Name:       "Withdrawal Delays",
				Count:      10,
				Percentage: 25,
				Sentiments: map[domain.Sentiment]int{domain.SentimentNegative: 10},
			},
		},
		QuotesByTheme: map[string][]domain.Quote{
			"App Crashes": {
				{Text: "the app crashed while checking holdings", Sentiment: domain.SentimentNegative, Rating: 1},
				{Text: "freezes every single morning", Sentiment: domain.SentimentNegative},
			},
		},
		Actions: []domain.ActionItem{
			{
				Title:          "Fix crash on the holdings screen",
				Description:    "Reproduce and fix the top crash.",
				Priority:       domain.PriorityHigh,
				Effort:         domain.EffortQuickWin,
				AddressesTheme: "App Crashes",
			},
		},
		GeneratedAt: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown("TestApp", sampleSummary())

	for _, want := range []string{
		"# TestApp Weekly Pulse",
		"**Period:** August 24 - August 31, 2026",
		"**Total Reviews:** 40",
		"**Reviews with Issues:** 22 (55.0%)",
		"## Top Issues This Week",
		"### 1. App Crashes",
		"**12 mentions** (30.0% of reviews) | Avg Rating: 1.50",
		"> \"the app crashed while checking holdings\" (1/5)",
		"### 2. Withdrawal Delays",
		"Avg Rating: N/A",
		"## Recommended Actions",
		"### 1. Fix crash on the holdings screen",
		"**HIGH** | Quick Win",
		"*Addresses: App Crashes*",
		"*Generated on 2026-08-31 09:30 UTC*",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	// Unrated quote gets no rating suffix.
	if strings.Contains(md, `"freezes every single morning" (`) {
		t.Fatal("unrated quote should carry no rating suffix")
	}
}

func TestRenderMarkdownEmptyPeriod(t *testing.T) {
	summary := domain.PeriodSummary{
		PeriodStart: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Now().UTC(),
	}
	md := RenderMarkdown("TestApp", summary)
	if !strings.Contains(md, "**Reviews with Issues:** 0 (0.0%)") {
		t.Fatalf("expected zero-division-safe issue line:\n%s", md)
	}
}

func TestEmailSubject(t *testing.T) {
	subject := EmailSubject("TestApp", sampleSummary())
	want := "TestApp Weekly Pulse (Aug 31) - 22 Issues Found: App Crashes"
	if subject != want {
		t.Fatalf("subject = %q, want %q", subject, want)
	}

	empty := domain.PeriodSummary{PeriodEnd: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)}
	subject = EmailSubject("TestApp", empty)
	if subject != "TestApp Weekly Pulse (Aug 31) - No Critical Issues" {
		t.Fatalf("empty subject = %q", subject)
	}
}

func TestWritePulseFile(t *testing.T) {
	dir := t.TempDir()
	generatedAt := time.Date(2026, 8, 31, 9, 30, 5, 0, time.UTC)

	path, err := WritePulseFile("# doc\n", dir, generatedAt)
	if err != nil {
		t.Fatalf("WritePulseFile failed: %v", err)
	}
	if filepath.Base(path) != "pulse_20260831_093005.md" {
		t.Fatalf("unexpected filename: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pulse file: %v", err)
	}
	if string(data) != "# doc\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestWriteEmailDraftFile(t *testing.T) {
	dir := t.TempDir()
	generatedAt := time.Date(2026, 8, 31, 9, 30, 5, 0, time.UTC)
	md := RenderMarkdown("TestApp", sampleSummary())

	path, err := WriteEmailDraftFile(md, dir, "TestApp Weekly Pulse", generatedAt)
	if err != nil {
		t.Fatalf("WriteEmailDraftFile failed: %v", err)
	}
	if filepath.Base(path) != "pulse_20260831_093005.eml" {
		t.Fatalf("unexpected filename: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read eml: %v", err)
	}
	eml := string(raw)

	for _, want := range []string{
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="pulsebot-alt"`,
		"Subject: TestApp Weekly Pulse",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Type: text/html; charset=UTF-8",
		"--pulsebot-alt--",
	} {
		if !strings.Contains(eml, want) {
			t.Fatalf("eml missing %q", want)
		}
	}
	if strings.Contains(strings.ReplaceAll(eml, "\r\n", ""), "\n") {
		t.Fatal("eml must use CRLF line endings throughout")
	}
}

func TestMarkdownToPlainStripsSyntax(t *testing.T) {
	plain := markdownToPlain("# Title\n\n**Bold:** value\n\n> \"a quote\"\n>\n\n---\n")
	if strings.ContainsAny(plain, "#>") || strings.Contains(plain, "**") || strings.Contains(plain, "---") {
		t.Fatalf("markdown syntax leaked into plain part:\n%s", plain)
	}
	if !strings.Contains(plain, "Bold: value") || !strings.Contains(plain, `"a quote"`) {
		t.Fatalf("plain part lost content:\n%s", plain)
	}
}

func TestMarkdownToHTMLStructure(t *testing.T) {
	out := markdownToHTML("# Title\n\n## Section\n\n**12 mentions** of <crash>\n\n> \"first\"\n>\n> \"second\"\n\n---\n")

	for _, want := range []string{
		"<h1>Title</h1>",
		"<h2>Section</h2>",
		"<p><strong>12 mentions</strong> of &lt;crash&gt;</p>",
		"<blockquote>",
		"<p>&#34;first&#34;</p>",
		"</blockquote>",
		"<hr>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("html missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "<blockquote>") != 1 {
		t.Fatalf("adjacent quote lines should share one blockquote:\n%s", out)
	}
}
