// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the runtime configuration from, in order of
// precedence: CITEREF_* environment variables, the citeref.yaml file, the
// unprefixed provider variables (GEMINI_API_KEY and friends), and key files
// in the secrets directory. A .env file is loaded into the environment
// first and never overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeref/internal/secrets"
	"github.com/pdiddy/citeref/pkg/types"
)

const (
	envPrefix  = "CITEREF"
	configName = "citeref"

	// DefaultSecretsDir is where key files are read from.
	DefaultSecretsDir = ".secrets/"

	// DefaultEnvFile is loaded into the environment before anything else.
	DefaultEnvFile = ".env"
)

// Options locates the configuration sources. Zero values use the defaults.
type Options struct {
	// ConfigFile is an explicit YAML file. Empty searches ./citeref.yaml
	// and ~/.config/citeref/citeref.yaml.
	ConfigFile string

	EnvFile    string
	SecretsDir string
}

// Loaded is the resolved configuration plus what it was read from.
type Loaded struct {
	Config types.Config

	// ConfigFile is the YAML file used, or "" when none was found.
	ConfigFile string

	// Secrets lists the key files that were loaded.
	Secrets []string

	// Warnings are non-fatal problems found while loading.
	Warnings []string
}

// alias binds an unprefixed environment variable and a secrets file to a
// config field. Pools accept comma-separated values.
type alias struct {
	env    string
	secret string
	str    func(*types.Config) *string
	pool   func(*types.Config) *[]string
}

var aliases = []alias{
	{env: "GEMINI_API_KEY", secret: secrets.GeminiAPIKey, pool: func(c *types.Config) *[]string { return &c.AI.GeminiKeys }},
	{env: "OPENROUTER_API_KEY", secret: secrets.OpenRouterAPIKey, pool: func(c *types.Config) *[]string { return &c.AI.OpenRouterKeys }},
	{env: "GROQ_API_KEY", secret: secrets.GroqAPIKey, pool: func(c *types.Config) *[]string { return &c.AI.GroqKeys }},
	{env: "ANTHROPIC_API_KEY", secret: secrets.AnthropicAPIKey, pool: func(c *types.Config) *[]string { return &c.AI.AnthropicKeys }},
	{env: "YOUTUBE_API_KEY", secret: secrets.YouTubeAPIKey, pool: func(c *types.Config) *[]string { return &c.Lookup.YouTubeAPIKeys }},
	{env: "SEMANTIC_SCHOLAR_API_KEY", secret: secrets.SemanticScholarAPIKey, str: func(c *types.Config) *string { return &c.Lookup.SemanticScholarAPIKey }},
	{env: "NCBI_API_KEY", secret: secrets.NCBIAPIKey, str: func(c *types.Config) *string { return &c.Lookup.NCBIAPIKey }},
	{env: "CROSSREF_MAILTO", secret: secrets.CrossRefMailto, str: func(c *types.Config) *string { return &c.Lookup.Mailto }},
	{env: "JWT_SECRET", secret: secrets.JWTSecret, str: func(c *types.Config) *string { return &c.Auth.JWTSecret }},
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_request_bytes", 15<<20)
	v.SetDefault("server.request_timeout", 80*time.Second)

	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.max_retries", 2)

	v.SetDefault("scrape.max_body_bytes", 5<<20)
	v.SetDefault("scrape.max_redirects", 5)
	v.SetDefault("scrape.respect_robots", false)

	v.SetDefault("lookup.mailto", "")
	v.SetDefault("lookup.semantic_scholar_api_key", "")
	v.SetDefault("lookup.ncbi_api_key", "")
	v.SetDefault("lookup.youtube_api_keys", []string{})
	v.SetDefault("lookup.ieee_max_guesses", 60)
	v.SetDefault("lookup.ieee_guess_rate", 5.0)

	v.SetDefault("ai.gemini_keys", []string{})
	v.SetDefault("ai.openrouter_keys", []string{})
	v.SetDefault("ai.groq_keys", []string{})
	v.SetDefault("ai.anthropic_keys", []string{})
	v.SetDefault("ai.gemini_model", "")
	v.SetDefault("ai.openrouter_model", "")
	v.SetDefault("ai.openrouter_vision_model", "")
	v.SetDefault("ai.groq_model", "")
	v.SetDefault("ai.claude_model", "")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.db_path", "citeref.db")
	v.SetDefault("auth.free_credits", 20)

	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")
}

// Load reads every source and returns the merged configuration.
func Load(opts Options) (*Loaded, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := newViper()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	out := &Loaded{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		out.ConfigFile = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&out.Config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	secretsDir := opts.SecretsDir
	if secretsDir == "" {
		secretsDir = DefaultSecretsDir
	}
	sec, warnings, err := secrets.Load(secretsDir)
	if err != nil {
		return nil, err
	}
	out.Secrets = sec.Names()
	out.Warnings = warnings

	applyAliases(&out.Config, sec)
	normalizePools(&out.Config)

	if err := Validate(out.Config); err != nil {
		return nil, err
	}
	return out, nil
}

// applyAliases fills fields still empty after viper from the unprefixed
// environment, then from key files.
func applyAliases(cfg *types.Config, sec secrets.Secrets) {
	for _, a := range aliases {
		value := os.Getenv(a.env)
		if value == "" {
			value = sec.Get(a.secret)
		}
		if value == "" {
			continue
		}
		switch {
		case a.pool != nil:
			if p := a.pool(cfg); len(*p) == 0 {
				*p = secrets.SplitPool(value)
			}
		case a.str != nil:
			if s := a.str(cfg); *s == "" {
				*s = strings.TrimSpace(value)
			}
		}
	}
}

// normalizePools splits and trims every key pool. A single list entry may
// itself hold comma-separated keys.
func normalizePools(cfg *types.Config) {
	for _, p := range []*[]string{
		&cfg.AI.GeminiKeys,
		&cfg.AI.OpenRouterKeys,
		&cfg.AI.GroqKeys,
		&cfg.AI.AnthropicKeys,
		&cfg.Lookup.YouTubeAPIKeys,
	} {
		*p = secrets.SplitPool(strings.Join(*p, ","))
	}
}

// Validate rejects settings the services cannot run with.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if cfg.HTTP.MaxRetries < 0 {
		errs = append(errs, errors.New("http.max_retries must not be negative"))
	}
	if cfg.Scrape.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("scrape.max_body_bytes must be positive"))
	}
	if cfg.Scrape.MaxRedirects < 0 {
		errs = append(errs, errors.New("scrape.max_redirects must not be negative"))
	}
	if cfg.Server.WriteTimeout > 0 && cfg.Server.RequestTimeout >= cfg.Server.WriteTimeout {
		errs = append(errs, errors.New("server.request_timeout must be shorter than server.write_timeout"))
	}
	if cfg.Auth.FreeCredits < 0 {
		errs = append(errs, errors.New("auth.free_credits must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
