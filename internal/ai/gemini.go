// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citeref/internal/httputil"
)

// geminiAPIBase is the Generative Language API root. Package-level var for
// test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls Google's generateContent endpoint.
type Gemini struct {
	APIKey string
	Model  string
	Client *http.Client
}

func (g *Gemini) Name() string    { return ProviderGemini }
func (g *Gemini) Available() bool { return g.APIKey != "" }

type geminiRequest struct {
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	Contents          []geminiContent       `json:"contents"`
	GenerationConfig  *geminiGenerationConf `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConf struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends req to Gemini. The image, if any, is sent inline.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	model := g.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	parts := []geminiPart{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: req.Image.MIMEType,
			Data:     req.Image.Base64(),
		}})
	}
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConf{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, url.PathEscape(model))
	headers := map[string]string{"x-goog-api-key": g.APIKey}

	var resp geminiResponse
	if err := httputil.PostJSON(ctx, clientOrDefault(g.Client), endpoint, headers, body, &resp); err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errEmptyResponse
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
