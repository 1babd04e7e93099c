// Package llm is the oracle boundary: one Complete contract over two
// interchangeable completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured means neither backend has an API key. Stages that need
// the oracle propagate it; stages with a built-in fallback recover locally.
var ErrNotConfigured = errors.New("llm: no backend configured (set openai_api_key or anthropic_api_key)")

// RequestError wraps a transport-level backend failure. The client does not
// retry; recovery policy belongs to the caller.
type RequestError struct {
	Backend string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("llm %s request failed: %v", e.Backend, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) TotalTokens() int64 { return u.InputTokens + u.OutputTokens }

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

type Options struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Model           string // backend default when empty
	HTTPClient      *http.Client
	BaseURL         string // override for tests
}

// Client selects a backend by configuration precedence: the JSON-mode
// chat-completion backend when its key is set, otherwise the raw-generation
// backend. Construct one explicitly and pass it to the stages that need it.
type Client struct {
	opts  Options
	usage Usage
}

func NewClient(opts Options) *Client {
	return &Client{opts: opts}
}

func (c *Client) Configured() bool {
	return c.opts.OpenAIAPIKey != "" || c.opts.AnthropicAPIKey != ""
}

// Complete sends one prompt and returns the response text. For the JSON-mode
// backend the body is returned unmodified; for the raw-generation backend
// code-fence markers are stripped here so callers never re-implement it.
func (c *Client) Complete(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	switch {
	case c.opts.OpenAIAPIKey != "":
		return c.completeOpenAI(ctx, prompt, expectJSON)
	case c.opts.AnthropicAPIKey != "":
		return c.completeAnthropic(ctx, prompt)
	}
	return "", ErrNotConfigured
}

// Usage reports cumulative token consumption across all completed calls.
func (c *Client) Usage() Usage { return c.usage }
