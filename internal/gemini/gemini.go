// Package gemini implements a summary provider backed by Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/summary"
)

const DefaultModel = "gemini-2.0-flash"

const systemInstruction = "You are a precise financial news analyst. Respond only with the requested JSON object."

var errNoCandidates = errors.New("no response from Gemini")

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", summary.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) Name() string {
	return "gemini"
}

// Summarize asks the model for the three-paragraph JSON summary of digests.
func (c *Client) Summarize(ctx context.Context, digests []summary.Digest) (summary.Structured, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = summarySchema()
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	resp, err := model.GenerateContent(ctx, genai.Text(summary.Prompt(digests)))
	if err != nil {
		return summary.Structured{}, fmt.Errorf("%w: gemini: %v", news.ErrSummarization, err)
	}
	text, err := responseText(resp)
	if err != nil {
		return summary.Structured{}, fmt.Errorf("%w: %v", news.ErrSummarization, err)
	}
	return summary.ParseStructured(text, len(digests))
}

func summarySchema() *genai.Schema {
	paragraph := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"content": {Type: genai.TypeString},
			"citations": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeInteger},
			},
		},
		Required: []string{"content", "citations"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			summary.KeyRecentDevelopments: paragraph,
			summary.KeyRegulatoryStatus:   paragraph,
			summary.KeyDealComparison:     paragraph,
		},
		Required: []string{summary.KeyRecentDevelopments, summary.KeyRegulatoryStatus, summary.KeyDealComparison},
	}
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errNoCandidates
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errNoCandidates
	}
	return b.String(), nil
}
