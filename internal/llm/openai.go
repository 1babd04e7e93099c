package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOpenAIModel = "gpt-4o-mini"

func (c *Client) completeOpenAI(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	model := c.opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(c.opts.OpenAIAPIKey)}
	if c.opts.HTTPClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(c.opts.HTTPClient))
	}
	if c.opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(c.opts.BaseURL))
	}
	client := openai.NewClient(requestOpts...)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if expectJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", &RequestError{Backend: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &RequestError{Backend: "openai", Err: fmt.Errorf("no choices in response")}
	}

	usage := Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	c.usage.Add(usage)

	content := resp.Choices[0].Message.Content
	log.Printf("llm openai model=%s response size=%d tokens_in=%d tokens_out=%d", model, len(content), usage.InputTokens, usage.OutputTokens)
	return content, nil
}
