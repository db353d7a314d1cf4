// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/metrics"
)

// ErrNoAPIKeys is the terminal error of a chain in which no provider had a
// key.
var ErrNoAPIKeys = errors.New("No API keys configured")

// ChainError is the terminal error of a chain in which every provider failed
// or was skipped. Errors holds one "<provider>: <reason>" entry per provider,
// in chain order.
type ChainError struct {
	Chain  string
	Errors []string
}

func (e *ChainError) Error() string {
	name := e.Chain
	if name == "" {
		name = "ai"
	}
	return fmt.Sprintf("%s: all providers failed: %s", name, strings.Join(e.Errors, "; "))
}

// Result is the outcome of a fallback chain.
type Result struct {
	Success  bool     `json:"success"`
	Output   string   `json:"output,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	chain     string
	attempted int
}

// Err returns nil on success, ErrNoAPIKeys when no provider could be
// attempted, and a *ChainError otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.attempted == 0 {
		return ErrNoAPIKeys
	}
	return &ChainError{Chain: r.chain, Errors: r.Errors}
}

// Chain is a named, ordered provider list.
type Chain struct {
	Name      string
	Providers []Provider

	// Validate, when set, rejects outputs the caller cannot use. A rejected
	// output counts as a provider failure and the chain moves on.
	Validate func(output string) error

	Logger *zap.Logger
}

// InvokeWithFallback runs req against providers in order and returns the
// first success.
func InvokeWithFallback(ctx context.Context, providers []Provider, req Request) Result {
	return Chain{Providers: providers}.Invoke(ctx, req)
}

// Invoke tries each provider in order. A provider without a key is recorded
// as "<name>: No API key" and skipped. The first provider to return a
// usable output wins and no later provider is called.
func (c Chain) Invoke(ctx context.Context, req Request) Result {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	res := Result{chain: c.Name}

	for _, p := range c.Providers {
		name := p.Name()
		if !p.Available() {
			res.Errors = append(res.Errors, name+": No API key")
			metrics.RecordProvider(c.Name, name, metrics.OutcomeSkipped)
			continue
		}

		res.attempted++
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		out, err := p.Generate(ctx, req)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errEmptyResponse
		}
		if err == nil && c.Validate != nil {
			err = c.Validate(out)
		}
		if err != nil {
			reason := providerError(err)
			res.Errors = append(res.Errors, name+": "+reason)
			metrics.RecordProvider(c.Name, name, metrics.OutcomeError)
			logger.Warn("ai provider failed",
				zap.String("chain", c.Name),
				zap.String("provider", name),
				zap.String("error", reason),
			)
			continue
		}

		metrics.RecordProvider(c.Name, name, metrics.OutcomeSuccess)
		res.Success = true
		res.Output = strings.TrimSpace(out)
		res.Provider = name
		return res
	}

	metrics.ChainExhausted.WithLabelValues(c.Name).Inc()
	logger.Warn("ai chain exhausted",
		zap.String("chain", c.Name),
		zap.Strings("errors", res.Errors),
	)
	return res
}

// providerError renders a provider failure for callers and logs. Transport
// errors carry the request URL, which may hold credentials, so only the
// method and the underlying cause are kept.
func providerError(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Sprintf("%s request failed: %v", ue.Op, ue.Err)
	}
	return err.Error()
}
