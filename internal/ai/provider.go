// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai runs prompts against an ordered list of LLM providers and
// returns the first successful answer. Chat, tag generation, summarization,
// OCR, and citation enhancement all share the same fallback engine.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
)

// Provider names, used in error strings, logs, and metrics.
const (
	ProviderGemini     = "Gemini"
	ProviderOpenRouter = "OpenRouter"
	ProviderGroq       = "Groq"
	ProviderClaude     = "Claude"
)

// Default models, used when the configuration leaves a model empty.
const (
	DefaultGeminiModel           = "gemini-2.0-flash"
	DefaultOpenRouterModel       = "meta-llama/llama-3.3-70b-instruct:free"
	DefaultOpenRouterVisionModel = "qwen/qwen2.5-vl-72b-instruct:free"
	DefaultGroqModel             = "llama-3.3-70b-versatile"
	DefaultClaudeModel           = "claude-3-5-sonnet-latest"
)

// errEmptyResponse is returned by providers whose reply held no text.
var errEmptyResponse = errors.New("empty response")

// Image is an inline image attached to a request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL.
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Request is one prompt sent to a provider.
type Request struct {
	System      string
	Prompt      string
	Image       *Image
	Temperature float32
	MaxTokens   int
}

// Provider is one LLM backend in a fallback chain.
type Provider interface {
	// Name identifies the provider in error strings and metrics.
	Name() string

	// Available reports whether the provider has an API key. Providers
	// without a key are skipped without a network call.
	Available() bool

	// Generate sends req and returns the reply text. An empty reply is an
	// error.
	Generate(ctx context.Context, req Request) (string, error)
}
