// Package openai implements a summary provider backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/summary"
)

const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a precise financial news analyst. Respond only with a JSON object."

type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a provider. An empty baseURL uses the public API.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", summary.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) Summarize(ctx context.Context, digests []summary.Digest) (summary.Structured, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summary.Prompt(digests)},
		},
		Temperature: 0.3,
		TopP:        0.95,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return summary.Structured{}, fmt.Errorf("%w: openai status %d: %s", news.ErrSummarization, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return summary.Structured{}, fmt.Errorf("%w: openai: %v", news.ErrSummarization, err)
	}
	if len(resp.Choices) == 0 {
		return summary.Structured{}, fmt.Errorf("%w: no response from OpenAI", news.ErrSummarization)
	}
	return summary.ParseStructured(resp.Choices[0].Message.Content, len(digests))
}
