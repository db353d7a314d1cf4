// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/citeref/internal/httputil"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// claudeDefaultMaxTokens is sent when the request sets no limit; the
// Messages API requires one.
const claudeDefaultMaxTokens = 4096

// Claude calls the Anthropic Messages API.
type Claude struct {
	APIKey string
	Model  string
	Client *http.Client
}

func (c *Claude) Name() string    { return ProviderClaude }
func (c *Claude) Available() bool { return c.APIKey != "" }

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float32         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

// claudeBlock is a text or image content block.
type claudeBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeBlock `json:"content"`
}

// Generate calls the Claude API. An attached image precedes the prompt text.
func (c *Claude) Generate(ctx context.Context, req Request) (string, error) {
	model := c.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	var blocks []claudeBlock
	if req.Image != nil {
		blocks = append(blocks, claudeBlock{
			Type: "image",
			Source: &claudeImageSource{
				Type:      "base64",
				MediaType: req.Image.MIMEType,
				Data:      req.Image.Base64(),
			},
		})
	}
	blocks = append(blocks, claudeBlock{Type: "text", Text: req.Prompt})

	body := claudeRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: req.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: blocks}},
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var resp claudeResponse
	if err := httputil.PostJSON(ctx, clientOrDefault(c.Client), claudeAPIURL, headers, body, &resp); err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
