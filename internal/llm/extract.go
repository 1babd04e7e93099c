package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a model response that could not be decoded as the
// expected JSON shape. Callers treat it as a recoverable quality signal.
type ParseError struct {
	Err      error
	Response string
}

func (e *ParseError) Error() string {
	truncated := e.Response
	if len(truncated) > 512 {
		truncated = truncated[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(e.Response))
	}
	return fmt.Sprintf("parsing LLM response: %v (response: %s)", e.Err, truncated)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripFences removes leading/trailing Markdown code-fence markers that
// raw-generation backends wrap JSON output in.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSON strips fence markers and unmarshals the remainder into v.
// It is the single place response-to-JSON conversion happens; on failure it
// returns a *ParseError.
func ExtractJSON(raw string, v any) error {
	text := StripFences(raw)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return &ParseError{Err: err, Response: text}
	}
	return nil
}
