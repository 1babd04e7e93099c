// Package report renders a period summary into the artifacts handed to
// delivery: a Markdown pulse document and a multipart email draft.
package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pulsebot/internal/domain"
)

// RenderMarkdown builds the weekly pulse document from one summary.
func RenderMarkdown(product string, s domain.PeriodSummary) string {
	var md strings.Builder

	issuePct := 0.0
	if s.TotalItems > 0 {
		issuePct = float64(s.IssueItems) / float64(s.TotalItems) * 100
	}
	md.WriteString(fmt.Sprintf("# %s Weekly Pulse\n\n", product))
	md.WriteString(fmt.Sprintf("**Period:** %s - %s\n", s.PeriodStart.Format("January 2"), s.PeriodEnd.Format("January 2, 2006")))
	md.WriteString(fmt.Sprintf("**Total Reviews:** %d\n", s.TotalItems))
	md.WriteString(fmt.Sprintf("**Reviews with Issues:** %d (%.1f%%)\n\n", s.IssueItems, issuePct))
	md.WriteString("---\n\n## Top Issues This Week\n\n")

	for i, stat := range s.ThemeStats {
		md.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, stat.Name))
		ratingLabel := "N/A"
		if stat.AvgRating != nil {
			ratingLabel = fmt.Sprintf("%.2f", *stat.AvgRating)
		}
		md.WriteString(fmt.Sprintf("**%d mentions** (%.1f%% of reviews) | Avg Rating: %s\n\n", stat.Count, stat.Percentage, ratingLabel))

		if quotes := s.QuotesByTheme[stat.Name]; len(quotes) > 0 {
			md.WriteString("**What users are saying:**\n\n")
			for _, quote := range quotes {
				md.WriteString(fmt.Sprintf("> %q", quote.Text))
				if quote.Rating > 0 {
					md.WriteString(fmt.Sprintf(" (%d/5)", quote.Rating))
				}
				md.WriteString("\n>\n")
			}
			md.WriteString("\n")
		}
	}

	md.WriteString("---\n\n## Recommended Actions\n\n")
	for i, action := range s.Actions {
		md.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, action.Title))
		md.WriteString(fmt.Sprintf("**%s** | %s\n\n", strings.ToUpper(string(action.Priority)), effortLabel(action.Effort)))
		md.WriteString(action.Description + "\n\n")
		if action.AddressesTheme != "" {
			md.WriteString(fmt.Sprintf("*Addresses: %s*\n\n", action.AddressesTheme))
		}
	}

	md.WriteString("---\n\n")
	md.WriteString(fmt.Sprintf("*Generated on %s*\n", s.GeneratedAt.Format("2006-01-02 15:04 UTC")))
	return md.String()
}

func effortLabel(effort domain.Effort) string {
	switch effort {
	case domain.EffortQuickWin:
		return "Quick Win"
	case domain.EffortLarge:
		return "Large"
	}
	return "Medium"
}

// EmailSubject summarizes the run in one line, leading with the top theme.
func EmailSubject(product string, s domain.PeriodSummary) string {
	week := s.PeriodEnd.Format("Jan 2")
	if len(s.ThemeStats) > 0 {
		return fmt.Sprintf("%s Weekly Pulse (%s) - %d Issues Found: %s", product, week, s.IssueItems, s.ThemeStats[0].Name)
	}
	return fmt.Sprintf("%s Weekly Pulse (%s) - No Critical Issues", product, week)
}

func WritePulseFile(content, outputDir string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("pulse_%s.md", generatedAt.Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// WriteEmailDraftFile writes the pulse as a multipart .eml draft with plain
// and HTML alternatives.
func WriteEmailDraftFile(body, outputDir, subject string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("pulse_%s.eml", generatedAt.Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(buildEML(subject, body)), 0644)
}

func buildEML(subject, body string) string {
	const boundary = "pulsebot-alt"
	headers := []string{
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", boundary),
		fmt.Sprintf("Subject: %s", subject),
	}
	plain := normalizeCRLF(markdownToPlain(body))
	htmlBody := normalizeCRLF(markdownToHTML(body))

	var out strings.Builder
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.WriteString("--" + boundary + "\r\n")
	out.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(plain)
	if !strings.HasSuffix(plain, "\r\n") {
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n--" + boundary + "\r\n")
	out.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(htmlBody)
	out.WriteString("\r\n--" + boundary + "--\r\n")
	return out.String()
}

func normalizeCRLF(s string) string {
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func markdownToPlain(body string) string {
	var out []string
	prevBlank := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			line = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
		line = strings.ReplaceAll(line, "**", "")
		line = strings.TrimPrefix(line, "> ")
		if line == ">" || line == "---" {
			line = ""
		}
		if strings.TrimSpace(line) == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
			out = append(out, "")
			continue
		}
		prevBlank = false
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

func markdownToHTML(body string) string {
	var out []string
	inBlockquote := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			out = append(out, closeQuote(&inBlockquote), "<h3>"+html.EscapeString(trimmed[4:])+"</h3>")
		case strings.HasPrefix(trimmed, "## "):
			out = append(out, closeQuote(&inBlockquote), "<h2>"+html.EscapeString(trimmed[3:])+"</h2>")
		case strings.HasPrefix(trimmed, "# "):
			out = append(out, closeQuote(&inBlockquote), "<h1>"+html.EscapeString(trimmed[2:])+"</h1>")
		case strings.HasPrefix(trimmed, "> "):
			if !inBlockquote {
				out = append(out, "<blockquote>")
				inBlockquote = true
			}
			out = append(out, "<p>"+inlineHTML(trimmed[2:])+"</p>")
		case trimmed == ">":
			// blank blockquote separator
		case trimmed == "---":
			out = append(out, closeQuote(&inBlockquote), "<hr>")
		case trimmed == "":
			// collapse blank lines
		default:
			out = append(out, closeQuote(&inBlockquote), "<p>"+inlineHTML(trimmed)+"</p>")
		}
	}
	out = append(out, closeQuote(&inBlockquote))

	var filtered []string
	for _, line := range out {
		if line != "" {
			filtered = append(filtered, line)
		}
	}
	return `<html><body style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f; line-height: 1.35;">` +
		strings.Join(filtered, "\n") + `</body></html>`
}

func closeQuote(inBlockquote *bool) string {
	if *inBlockquote {
		*inBlockquote = false
		return "</blockquote>"
	}
	return ""
}

func inlineHTML(line string) string {
	escaped := html.EscapeString(line)
	for strings.Count(escaped, "**") >= 2 {
		escaped = strings.Replace(escaped, "**", "<strong>", 1)
		escaped = strings.Replace(escaped, "**", "</strong>", 1)
	}
	return escaped
}
