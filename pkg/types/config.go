// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared settings for every outbound request.
type HTTPConfig struct {
	// Timeout bounds each external call (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent to academic APIs (e.g. "citeref/0.1 (mailto:ops@example.com)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ScrapeConfig controls how pages are fetched for metadata scraping.
type ScrapeConfig struct {
	// MaxBodyBytes caps how much of a page is read (default 5 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// MaxRedirects caps redirect chains (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects" mapstructure:"max_redirects"`

	// RespectRobots enables a robots.txt check before fetching.
	RespectRobots bool `json:"respect_robots" yaml:"respect_robots" mapstructure:"respect_robots"`
}

// LookupConfig holds credentials and limits for the academic lookup clients.
type LookupConfig struct {
	// Mailto is sent to CrossRef and OpenAlex for their polite pools.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// SemanticScholarAPIKey is optional; it raises the Semantic Scholar rate limit.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// NCBIAPIKey is optional; it raises the E-utilities rate limit.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`

	// YouTubeAPIKeys is a pool of YouTube Data API keys. Empty means oEmbed only.
	YouTubeAPIKeys []string `json:"youtube_api_keys,omitempty" yaml:"youtube_api_keys,omitempty" mapstructure:"youtube_api_keys"`

	// IEEEMaxGuesses bounds the brute-force DOI candidates per document (default 60).
	IEEEMaxGuesses int `json:"ieee_max_guesses" yaml:"ieee_max_guesses" mapstructure:"ieee_max_guesses"`

	// IEEEGuessRate is the brute-force request rate per second (default 5).
	IEEEGuessRate float64 `json:"ieee_guess_rate" yaml:"ieee_guess_rate" mapstructure:"ieee_guess_rate"`
}

// AIConfig holds key pools and model names for every AI provider.
// Each key slice is a pool; one key is picked at random per request.
type AIConfig struct {
	GeminiKeys     []string `json:"gemini_keys,omitempty" yaml:"gemini_keys,omitempty" mapstructure:"gemini_keys"`
	OpenRouterKeys []string `json:"openrouter_keys,omitempty" yaml:"openrouter_keys,omitempty" mapstructure:"openrouter_keys"`
	GroqKeys       []string `json:"groq_keys,omitempty" yaml:"groq_keys,omitempty" mapstructure:"groq_keys"`
	AnthropicKeys  []string `json:"anthropic_keys,omitempty" yaml:"anthropic_keys,omitempty" mapstructure:"anthropic_keys"`

	GeminiModel           string `json:"gemini_model" yaml:"gemini_model" mapstructure:"gemini_model"`
	OpenRouterModel       string `json:"openrouter_model" yaml:"openrouter_model" mapstructure:"openrouter_model"`
	OpenRouterVisionModel string `json:"openrouter_vision_model" yaml:"openrouter_vision_model" mapstructure:"openrouter_vision_model"`
	GroqModel             string `json:"groq_model" yaml:"groq_model" mapstructure:"groq_model"`
	ClaudeModel           string `json:"claude_model" yaml:"claude_model" mapstructure:"claude_model"`

	// Timeout bounds each provider call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// HasAnyKey reports whether at least one provider key is configured.
func (c AIConfig) HasAnyKey() bool {
	return len(c.GeminiKeys)+len(c.OpenRouterKeys)+len(c.GroqKeys)+len(c.AnthropicKeys) > 0
}

// AuthConfig configures the authentication and credit oracle.
type AuthConfig struct {
	// JWTSecret is the HS256 signing secret. Empty disables authentication.
	JWTSecret string `json:"-" yaml:"jwt_secret,omitempty" mapstructure:"jwt_secret"`

	// DBPath is the SQLite credit ledger path (default "citeref.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// FreeCredits is the starting balance for new free-tier users (default 20).
	FreeCredits int `json:"free_credits" yaml:"free_credits" mapstructure:"free_credits"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxRequestBytes int64         `json:"max_request_bytes" yaml:"max_request_bytes" mapstructure:"max_request_bytes"`

	// RequestTimeout bounds each API handler. It must be shorter than
	// WriteTimeout so an exhausted provider chain is still reported.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups every section read at startup.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	HTTP   HTTPConfig   `json:"http" yaml:"http" mapstructure:"http"`
	Scrape ScrapeConfig `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	Lookup LookupConfig `json:"lookup" yaml:"lookup" mapstructure:"lookup"`
	AI     AIConfig     `json:"ai" yaml:"ai" mapstructure:"ai"`
	Auth   AuthConfig   `json:"auth" yaml:"auth" mapstructure:"auth"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
