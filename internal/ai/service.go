// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/pkg/types"
)

// Chain names, used as the metrics "chain" label.
const (
	ChainChat    = "chat"
	ChainTags    = "tags"
	ChainSummary = "summary"
	ChainOCR     = "ocr"
	ChainEnhance = "enhance"
	ChainGuess   = "guess"
	ChainVideo   = "video"
)

// Service builds provider chains from configuration and runs the prompts
// the HTTP handlers and resolver need. Providers are constructed per call
// with a key drawn from each pool, so no state is shared across requests.
type Service struct {
	cfg    types.AIConfig
	client *http.Client
	logger *zap.Logger
}

// NewService returns a Service. A nil client uses http.DefaultClient and a
// nil logger is replaced with a no-op logger.
func NewService(cfg types.AIConfig, client *http.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, client: client, logger: logger}
}

// Available reports whether any provider has a key.
func (s *Service) Available() bool {
	return s.cfg.HasAnyKey()
}

// Configured reports, per provider, whether a key is configured.
func (s *Service) Configured() map[string]bool {
	return map[string]bool{
		strings.ToLower(ProviderGemini):     len(s.cfg.GeminiKeys) > 0,
		strings.ToLower(ProviderOpenRouter): len(s.cfg.OpenRouterKeys) > 0,
		strings.ToLower(ProviderGroq):       len(s.cfg.GroqKeys) > 0,
		strings.ToLower(ProviderClaude):     len(s.cfg.AnthropicKeys) > 0,
	}
}

// CustomKeyProvider is the provider a user's own key is used with.
const CustomKeyProvider = ProviderGemini

// TextProviders returns the Gemini, OpenRouter, Groq chain. A non-empty
// customKey replaces the Gemini key pool.
func (s *Service) TextProviders(customKey string) []Provider {
	geminiKey := PickKey(s.cfg.GeminiKeys)
	if customKey != "" {
		geminiKey = customKey
	}
	return []Provider{
		&Gemini{APIKey: geminiKey, Model: s.cfg.GeminiModel, Client: s.client},
		NewOpenRouter(PickKey(s.cfg.OpenRouterKeys), s.cfg.OpenRouterModel, s.client),
		NewGroq(PickKey(s.cfg.GroqKeys), s.cfg.GroqModel, s.client),
	}
}

// VisionProviders returns the OpenRouter, Gemini, Claude chain used for OCR.
func (s *Service) VisionProviders() []Provider {
	model := s.cfg.OpenRouterVisionModel
	if model == "" {
		model = DefaultOpenRouterVisionModel
	}
	return []Provider{
		NewOpenRouter(PickKey(s.cfg.OpenRouterKeys), model, s.client),
		&Gemini{APIKey: PickKey(s.cfg.GeminiKeys), Model: s.cfg.GeminiModel, Client: s.client},
		&Claude{APIKey: PickKey(s.cfg.AnthropicKeys), Model: s.cfg.ClaudeModel, Client: s.client},
	}
}

func (s *Service) chain(name string, providers []Provider, validate func(string) error) Chain {
	return Chain{Name: name, Providers: providers, Validate: validate, Logger: s.logger}
}

// Chat answers a research question under the guardrail instruction.
// chatContext, when set, is prepended as background from the user's sources.
func (s *Service) Chat(ctx context.Context, message, chatContext, customKey string) Result {
	prompt, err := render(chatPromptTmpl, struct{ Message, Context string }{
		Message: message,
		Context: truncate(chatContext, maxPromptText),
	})
	if err != nil {
		return renderFailure(err)
	}
	return s.chain(ChainChat, s.TextProviders(customKey), nil).Invoke(ctx, Request{
		System:      chatGuardrail,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
}

// Tags generates topic tags for text. The tag slice is never nil.
func (s *Service) Tags(ctx context.Context, text string) ([]string, Result) {
	prompt, err := render(tagsPromptTmpl, struct{ Text string }{truncate(text, maxPromptText)})
	if err != nil {
		return []string{}, renderFailure(err)
	}
	res := s.chain(ChainTags, s.TextProviders(""), nil).Invoke(ctx, Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if !res.Success {
		return []string{}, res
	}
	return ParseTags(res.Output), res
}

// Summarize condenses text into two or three sentences.
func (s *Service) Summarize(ctx context.Context, text string) Result {
	prompt, err := render(summaryPromptTmpl, struct{ Text string }{truncate(text, maxPromptText)})
	if err != nil {
		return renderFailure(err)
	}
	return s.chain(ChainSummary, s.TextProviders(""), nil).Invoke(ctx, Request{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   300,
	})
}

// OCR transcribes the text in img.
func (s *Service) OCR(ctx context.Context, img *Image) Result {
	return s.chain(ChainOCR, s.VisionProviders(), nil).Invoke(ctx, Request{
		Prompt:      ocrInstruction,
		Image:       img,
		Temperature: 0,
		MaxTokens:   8192,
	})
}

// CitationHints is what is already known about a page when asking a model
// to complete its citation.
type CitationHints struct {
	URL         string
	Title       string
	Author      string
	PublishDate string
	SiteName    string
	PageText    string
}

// CitationGuess is a model's estimate of a page's citation fields. Empty
// fields mean the model could not tell.
type CitationGuess struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishDate string `json:"publishDate"`
	SiteName    string `json:"siteName"`
	Description string `json:"description"`
}

type citationGuessJSON struct {
	Title       looseString `json:"title"`
	Author      looseString `json:"author"`
	PublishDate looseString `json:"publishDate"`
	SiteName    looseString `json:"siteName"`
	Description looseString `json:"description"`
}

func (g citationGuessJSON) guess() *CitationGuess {
	return &CitationGuess{
		Title:       string(g.Title),
		Author:      string(g.Author),
		PublishDate: string(g.PublishDate),
		SiteName:    string(g.SiteName),
		Description: string(g.Description),
	}
}

// EnhanceCitation asks the text chain to complete a page's citation from
// what was scraped. Callers merge the guess without overwriting known
// fields.
func (s *Service) EnhanceCitation(ctx context.Context, hints CitationHints) (*CitationGuess, error) {
	hints.PageText = truncate(hints.PageText, maxPromptText/2)
	prompt, err := render(enhancePromptTmpl, hints)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	return s.citationGuess(ctx, ChainEnhance, prompt)
}

// GuessFromURL estimates a citation from a URL whose page could not be
// fetched.
func (s *Service) GuessFromURL(ctx context.Context, rawURL string) (*CitationGuess, error) {
	prompt, err := render(guessPromptTmpl, struct{ URL string }{rawURL})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	return s.citationGuess(ctx, ChainGuess, prompt)
}

func (s *Service) citationGuess(ctx context.Context, chainName, prompt string) (*CitationGuess, error) {
	validate := func(out string) error {
		var g citationGuessJSON
		return decodeObject(out, &g)
	}
	res := s.chain(chainName, s.TextProviders(""), validate).Invoke(ctx, Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if !res.Success {
		return nil, res.Err()
	}
	var g citationGuessJSON
	if err := decodeObject(res.Output, &g); err != nil {
		return nil, err
	}
	return g.guess(), nil
}

// VideoGuess is a model's estimate of a video's missing details.
type VideoGuess struct {
	PublishYear  string `json:"publishYear"`
	PublishMonth string `json:"publishMonth"`
	PublishDay   string `json:"publishDay"`
	Description  string `json:"description"`
}

type videoGuessJSON struct {
	PublishYear  looseString `json:"publishYear"`
	PublishMonth looseString `json:"publishMonth"`
	PublishDay   looseString `json:"publishDay"`
	Description  looseString `json:"description"`
}

// InferVideoDetails asks the text chain for a video's publish date and
// description.
func (s *Service) InferVideoDetails(ctx context.Context, v types.VideoData) (*VideoGuess, error) {
	v.Description = truncate(v.Description, maxPromptText/4)
	prompt, err := render(videoPromptTmpl, v)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	validate := func(out string) error {
		var g videoGuessJSON
		return decodeObject(out, &g)
	}
	res := s.chain(ChainVideo, s.TextProviders(""), validate).Invoke(ctx, Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if !res.Success {
		return nil, res.Err()
	}
	var g videoGuessJSON
	if err := decodeObject(res.Output, &g); err != nil {
		return nil, err
	}
	return &VideoGuess{
		PublishYear:  string(g.PublishYear),
		PublishMonth: string(g.PublishMonth),
		PublishDay:   string(g.PublishDay),
		Description:  string(g.Description),
	}, nil
}

// renderFailure reports a prompt template error as a failed result.
func renderFailure(err error) Result {
	return Result{Errors: []string{"prompt: " + err.Error()}, attempted: 1}
}
