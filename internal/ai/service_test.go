// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeref/pkg/types"
)

// stubAPIs serves Gemini, OpenRouter, Groq, and Claude from one httptest
// server. replies maps a provider prefix to the text it answers with; a
// missing prefix answers 500.
type stubAPIs struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	query  map[string]string
	keys   map[string]string
}

func newStubAPIs(t *testing.T, replies map[string]string) *stubAPIs {
	t.Helper()
	s := &stubAPIs{bodies: map[string]string{}, query: map[string]string{}, keys: map[string]string{}}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0]
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.calls = append(s.calls, prefix)
		s.bodies[prefix] = string(body)
		s.query[prefix] = r.URL.RawQuery
		s.keys[prefix] = r.Header.Get("x-goog-api-key")
		s.mu.Unlock()

		text, ok := replies[prefix]
		if !ok {
			http.Error(w, `{"error":{"message":"upstream down"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch prefix {
		case "gemini":
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{
					"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
				}},
			})
		case "claude":
			json.NewEncoder(w).Encode(map[string]any{
				"content": []any{map[string]any{"type": "text", "text": text}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []any{map[string]any{
					"index":   0,
					"message": map[string]any{"role": "assistant", "content": text},
				}},
			})
		}
	}))
	t.Cleanup(ts.Close)

	oldGemini, oldOpenRouter, oldGroq, oldClaude := geminiAPIBase, openRouterBaseURL, groqBaseURL, claudeAPIURL
	geminiAPIBase = ts.URL + "/gemini"
	openRouterBaseURL = ts.URL + "/openrouter"
	groqBaseURL = ts.URL + "/groq"
	claudeAPIURL = ts.URL + "/claude/v1/messages"
	t.Cleanup(func() {
		geminiAPIBase, openRouterBaseURL, groqBaseURL, claudeAPIURL = oldGemini, oldOpenRouter, oldGroq, oldClaude
	})
	return s
}

func allKeys() types.AIConfig {
	return types.AIConfig{
		GeminiKeys:     []string{"g-key"},
		OpenRouterKeys: []string{"or-key"},
		GroqKeys:       []string{"groq-key"},
		AnthropicKeys:  []string{"claude-key"},
	}
}

func TestChatUsesGeminiWithGuardrail(t *testing.T) {
	stub := newStubAPIs(t, map[string]string{"gemini": "Use APA 7."})
	svc := NewService(allKeys(), nil, nil)

	res := svc.Chat(context.Background(), "Which style?", "my notes", "")

	require.True(t, res.Success)
	assert.Equal(t, "Use APA 7.", res.Output)
	assert.Equal(t, ProviderGemini, res.Provider)
	assert.Equal(t, []string{"gemini"}, stub.calls)
	assert.Contains(t, stub.bodies["gemini"], BibliographySentinel)
	assert.Contains(t, stub.bodies["gemini"], "my notes")
	assert.Equal(t, "g-key", stub.keys["gemini"])
	assert.Empty(t, stub.query["gemini"])
}

func TestChatCustomKeyReplacesGeminiPool(t *testing.T) {
	stub := newStubAPIs(t, map[string]string{"gemini": "hi"})
	svc := NewService(types.AIConfig{}, nil, nil)

	res := svc.Chat(context.Background(), "hello", "", "user-key")

	require.True(t, res.Success)
	assert.Equal(t, "user-key", stub.keys["gemini"])
}

func TestChatFallsThroughToGroq(t *testing.T) {
	stub := newStubAPIs(t, map[string]string{"groq": "from groq"})
	svc := NewService(allKeys(), nil, nil)

	res := svc.Chat(context.Background(), "hello", "", "")

	require.True(t, res.Success)
	assert.Equal(t, ProviderGroq, res.Provider)
	assert.Equal(t, []string{"gemini", "openrouter", "groq"}, stub.calls)
	require.Len(t, res.Errors, 2)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Gemini: "))
	assert.True(t, strings.HasPrefix(res.Errors[1], "OpenRouter: "))
}

func TestChatNoKeys(t *testing.T) {
	stub := newStubAPIs(t, nil)
	svc := NewService(types.AIConfig{}, nil, nil)

	res := svc.Chat(context.Background(), "hello", "", "")

	assert.False(t, res.Success)
	assert.Empty(t, stub.calls)
	assert.Equal(t, []string{"Gemini: No API key", "OpenRouter: No API key", "Groq: No API key"}, res.Errors)
	assert.ErrorIs(t, res.Err(), ErrNoAPIKeys)
}

func TestTags(t *testing.T) {
	newStubAPIs(t, map[string]string{"openrouter": `["neural networks", "vision"]`})
	svc := NewService(allKeys(), nil, nil)

	tags, res := svc.Tags(context.Background(), "A paper about convolutional networks.")

	require.True(t, res.Success)
	assert.Equal(t, ProviderOpenRouter, res.Provider)
	assert.Equal(t, []string{"neural networks", "vision"}, tags)
}

func TestTagsAllFail(t *testing.T) {
	newStubAPIs(t, nil)
	svc := NewService(allKeys(), nil, nil)

	tags, res := svc.Tags(context.Background(), "text")

	assert.False(t, res.Success)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
	assert.Len(t, res.Errors, 3)
}

func TestTransportErrorsDoNotExposeKeys(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	deadURL := ts.URL
	ts.Close()

	oldGemini, oldOpenRouter, oldGroq := geminiAPIBase, openRouterBaseURL, groqBaseURL
	geminiAPIBase = deadURL + "/v1beta"
	openRouterBaseURL = deadURL + "/openrouter"
	groqBaseURL = deadURL + "/groq"
	t.Cleanup(func() { geminiAPIBase, openRouterBaseURL, groqBaseURL = oldGemini, oldOpenRouter, oldGroq })

	cfg := types.AIConfig{
		GeminiKeys:     []string{"SUPERSECRETKEY"},
		OpenRouterKeys: []string{"OR-SECRET"},
		GroqKeys:       []string{"GROQ-SECRET"},
	}
	svc := NewService(cfg, nil, nil)

	_, res := svc.Tags(context.Background(), "text")

	require.False(t, res.Success)
	require.Len(t, res.Errors, 3)
	for _, e := range res.Errors {
		for _, key := range []string{"SUPERSECRETKEY", "OR-SECRET", "GROQ-SECRET"} {
			assert.NotContains(t, e, key)
		}
		assert.NotContains(t, e, deadURL)
	}
	assert.True(t, strings.HasPrefix(res.Errors[0], "Gemini: Post request failed: "), res.Errors[0])
}

func TestOCRChainOrder(t *testing.T) {
	stub := newStubAPIs(t, map[string]string{"claude": "cell A | cell B"})
	svc := NewService(allKeys(), nil, nil)

	res := svc.OCR(context.Background(), &Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})

	require.True(t, res.Success)
	assert.Equal(t, ProviderClaude, res.Provider)
	assert.Equal(t, []string{"openrouter", "gemini", "claude"}, stub.calls)
	assert.Contains(t, stub.bodies["openrouter"], "data:image/png;base64,")
	assert.Contains(t, stub.bodies["openrouter"], DefaultOpenRouterVisionModel)
	assert.Contains(t, stub.bodies["gemini"], `"inline_data"`)
	assert.Contains(t, stub.bodies["claude"], `"media_type":"image/png"`)
}

func TestOCROnlyClaudeConfigured(t *testing.T) {
	newStubAPIs(t, nil)
	svc := NewService(types.AIConfig{AnthropicKeys: []string{"k"}}, nil, nil)

	res := svc.OCR(context.Background(), &Image{MIMEType: "image/jpeg", Data: []byte("x")})

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "OpenRouter: No API key", res.Errors[0])
	assert.Equal(t, "Gemini: No API key", res.Errors[1])
	assert.True(t, strings.HasPrefix(res.Errors[2], "Claude: "))
}

func TestEnhanceCitationSkipsUnparseableReply(t *testing.T) {
	newStubAPIs(t, map[string]string{
		"gemini":     "I think the author is Jane.",
		"openrouter": `{"title": "", "author": "Jane Doe", "publishDate": "2022-03-01", "siteName": "Blog", "description": "A post."}`,
	})
	svc := NewService(allKeys(), nil, nil)

	guess, err := svc.EnhanceCitation(context.Background(), CitationHints{URL: "https://blog.example/post", Title: "Post"})

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", guess.Author)
	assert.Equal(t, "2022-03-01", guess.PublishDate)
	assert.Empty(t, guess.Title)
}

func TestGuessFromURLNoKeys(t *testing.T) {
	svc := NewService(types.AIConfig{}, nil, nil)
	_, err := svc.GuessFromURL(context.Background(), "https://example.com/2020/01/a-story")
	assert.ErrorIs(t, err, ErrNoAPIKeys)
}

func TestInferVideoDetails(t *testing.T) {
	newStubAPIs(t, map[string]string{"gemini": `{"publishYear": 2009, "publishMonth": "October", "publishDay": "25", "description": "A music video."}`})
	svc := NewService(allKeys(), nil, nil)

	guess, err := svc.InferVideoDetails(context.Background(), types.VideoData{Title: "Song", ChannelTitle: "Artist", URL: "https://www.youtube.com/watch?v=x"})

	require.NoError(t, err)
	assert.Equal(t, "2009", guess.PublishYear)
	assert.Equal(t, "October", guess.PublishMonth)
	assert.Equal(t, "25", guess.PublishDay)
}

func TestConfigured(t *testing.T) {
	svc := NewService(types.AIConfig{GroqKeys: []string{"k"}}, nil, nil)
	assert.Equal(t, map[string]bool{"gemini": false, "openrouter": false, "groq": true, "claude": false}, svc.Configured())
	assert.True(t, svc.Available())
}
