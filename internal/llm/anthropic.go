package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// The raw-generation backend has no JSON response mode, so models wrap JSON
// output in code fences; StripFences is applied here once for all callers.
func (c *Client) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	model := c.opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(c.opts.AnthropicAPIKey)}
	if c.opts.HTTPClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(c.opts.HTTPClient))
	}
	if c.opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(c.opts.BaseURL))
	}
	client := anthropic.NewClient(requestOpts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", &RequestError{Backend: "anthropic", Err: err}
	}

	usage := Usage{InputTokens: message.Usage.InputTokens, OutputTokens: message.Usage.OutputTokens}
	c.usage.Add(usage)

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic model=%s response size=%d tokens_in=%d tokens_out=%d", model, len(block.Text), usage.InputTokens, usage.OutputTokens)
			return StripFences(block.Text), nil
		}
	}
	return "", &RequestError{Backend: "anthropic", Err: fmt.Errorf("no text content in response")}
}
