// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file is one secret: the filename is the key name and the trimmed contents
// are the value. A value may list several keys separated by commas, which
// the caller treats as a pool.
//
// Recognized files: gemini-api-key, openrouter-api-key, groq-api-key,
// anthropic-api-key, youtube-api-key, semantic-scholar-api-key,
// ncbi-api-key, crossref-mailto, jwt-secret.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key file names.
const (
	GeminiAPIKey          = "gemini-api-key"
	OpenRouterAPIKey      = "openrouter-api-key"
	GroqAPIKey            = "groq-api-key"
	AnthropicAPIKey       = "anthropic-api-key"
	YouTubeAPIKey         = "youtube-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	NCBIAPIKey            = "ncbi-api-key"
	CrossRefMailto        = "crossref-mailto"
	JWTSecret             = "jwt-secret"
)

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files are reported in warnings and
// skipped.
func Load(dir string) (Secrets, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	var warnings []string
	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read secret %s: %v", name, err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, warnings, nil
}

// Get returns the value of name, or "".
func (s Secrets) Get(name string) string {
	return s[name]
}

// Pool returns the comma-separated keys stored under name.
func (s Secrets) Pool(name string) []string {
	return SplitPool(s[name])
}

// Names returns the loaded key names in sorted order.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SplitPool splits a comma-separated key list, dropping blanks.
func SplitPool(v string) []string {
	var out []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
