// Package redact masks personally identifiable information in feedback text.
// Every text path that reaches an LLM prompt goes through Text first.
package redact

import (
	"regexp"
	"strings"
)

type rule struct {
	re          *regexp.Regexp
	placeholder string
}

// Ordered: email before the handle-style pattern so full addresses become
// [EMAIL] and bare handles like user@okaxis become [UPI]; Aadhaar before the
// generic long-digit-run pattern for the same reason.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	{regexp.MustCompile(`\b(?:\+91[-.\s]?)?[6-9]\d{9}\b`), "[PHONE]"},
	{regexp.MustCompile(`\b(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), "[PHONE]"},
	{regexp.MustCompile(`(?i)https?://\S+`), "[URL]"},
	{regexp.MustCompile(`(?i)\bwww\.\S+`), "[URL]"},
	{regexp.MustCompile(`(?i)\b[A-Z]{5}[0-9]{4}[A-Z]\b`), "[PAN]"},
	{regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "[AADHAAR]"},
	{regexp.MustCompile(`\b\d{8,18}\b`), "[ACCOUNT]"},
	{regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z]{3,}\b`), "[UPI]"},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Text replaces every PII match with its categorical placeholder and
// collapses repeated whitespace. Idempotent: placeholders contain nothing
// any rule matches, so re-running is a no-op.
func Text(text string) string {
	if text == "" {
		return ""
	}
	cleaned := text
	for _, r := range rules {
		cleaned = r.re.ReplaceAllString(cleaned, r.placeholder)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
}

// Batch redacts a slice of texts, preserving order.
func Batch(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Text(t)
	}
	return out
}
