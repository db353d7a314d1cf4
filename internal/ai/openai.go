// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAI-compatible endpoints. Package-level vars for test substitution.
var (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	groqBaseURL       = "https://api.groq.com/openai/v1"
)

// OpenAICompatible calls any Chat Completions API that speaks the OpenAI
// wire format. OpenRouter and Groq are both served by it.
type OpenAICompatible struct {
	name   string
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenRouter returns an OpenRouter provider.
func NewOpenRouter(apiKey, model string, httpClient *http.Client) *OpenAICompatible {
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return newOpenAICompatible(ProviderOpenRouter, openRouterBaseURL, apiKey, model, httpClient)
}

// NewGroq returns a Groq provider.
func NewGroq(apiKey, model string, httpClient *http.Client) *OpenAICompatible {
	if model == "" {
		model = DefaultGroqModel
	}
	return newOpenAICompatible(ProviderGroq, groqBaseURL, apiKey, model, httpClient)
}

func newOpenAICompatible(name, baseURL, apiKey, model string, httpClient *http.Client) *OpenAICompatible {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAICompatible{
		name:   name,
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAICompatible) Name() string    { return p.name }
func (p *OpenAICompatible) Available() bool { return p.apiKey != "" }

// Generate sends req as a chat completion. An attached image is sent as an
// image_url content part holding a data URL.
func (p *OpenAICompatible) Generate(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Image != nil {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    req.Image.DataURL(),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		user.Content = req.Prompt
	}
	messages = append(messages, user)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
