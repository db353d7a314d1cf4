// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scripted Provider.
type fakeProvider struct {
	name  string
	key   bool
	out   string
	err   error
	calls int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.key }
func (f *fakeProvider) Generate(context.Context, Request) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestInvokeFirstSuccessWins(t *testing.T) {
	a := &fakeProvider{name: "A", key: true, err: errors.New("boom")}
	b := &fakeProvider{name: "B", key: true, out: " answer "}
	c := &fakeProvider{name: "C", key: true, out: "unused"}

	res := InvokeWithFallback(context.Background(), []Provider{a, b, c}, Request{Prompt: "q"})

	require.True(t, res.Success)
	assert.Equal(t, "answer", res.Output)
	assert.Equal(t, "B", res.Provider)
	assert.Equal(t, []string{"A: boom"}, res.Errors)
	assert.Equal(t, 0, c.calls)
	assert.NoError(t, res.Err())
}

func TestInvokeSkipsMissingKeys(t *testing.T) {
	a := &fakeProvider{name: "A"}
	b := &fakeProvider{name: "B", key: true, out: "ok"}

	res := InvokeWithFallback(context.Background(), []Provider{a, b}, Request{})

	require.True(t, res.Success)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, []string{"A: No API key"}, res.Errors)
}

func TestInvokeExhaustion(t *testing.T) {
	providers := []Provider{
		&fakeProvider{name: "A"},
		&fakeProvider{name: "B", key: true, err: errors.New("HTTP 500")},
		&fakeProvider{name: "C", key: true, out: "   "},
	}

	res := Chain{Name: "chat", Providers: providers}.Invoke(context.Background(), Request{})

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "A: No API key", res.Errors[0])
	assert.Equal(t, "B: HTTP 500", res.Errors[1])
	assert.Equal(t, "C: empty response", res.Errors[2])

	var chainErr *ChainError
	require.True(t, errors.As(res.Err(), &chainErr))
	assert.Equal(t, "chat", chainErr.Chain)
	assert.Equal(t, res.Errors, chainErr.Errors)
	assert.Contains(t, chainErr.Error(), "chat: all providers failed")
}

func TestInvokeStripsRequestURL(t *testing.T) {
	transport := &url.Error{
		Op:  "Post",
		URL: "https://api.example/v1/generate?key=SECRET",
		Err: errors.New("dial tcp: connection refused"),
	}
	a := &fakeProvider{name: "A", key: true, err: fmt.Errorf("calling A: %w", transport)}

	res := InvokeWithFallback(context.Background(), []Provider{a}, Request{})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "A: Post request failed: dial tcp: connection refused", res.Errors[0])
	assert.NotContains(t, res.Err().Error(), "SECRET")
}

func TestInvokeNoKeys(t *testing.T) {
	providers := []Provider{&fakeProvider{name: "A"}, &fakeProvider{name: "B"}}

	res := InvokeWithFallback(context.Background(), providers, Request{})

	assert.False(t, res.Success)
	assert.Equal(t, []string{"A: No API key", "B: No API key"}, res.Errors)
	assert.ErrorIs(t, res.Err(), ErrNoAPIKeys)
	assert.Equal(t, "No API keys configured", res.Err().Error())
}

func TestInvokeEmptyChain(t *testing.T) {
	res := InvokeWithFallback(context.Background(), nil, Request{})
	assert.False(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.ErrorIs(t, res.Err(), ErrNoAPIKeys)
}

func TestInvokeValidateRejects(t *testing.T) {
	a := &fakeProvider{name: "A", key: true, out: "not json"}
	b := &fakeProvider{name: "B", key: true, out: `{"title":"x"}`}

	chain := Chain{
		Providers: []Provider{a, b},
		Validate: func(out string) error {
			var g citationGuessJSON
			return decodeObject(out, &g)
		},
	}
	res := chain.Invoke(context.Background(), Request{})

	require.True(t, res.Success)
	assert.Equal(t, "B", res.Provider)
	assert.Equal(t, []string{"A: no JSON object in response"}, res.Errors)
}

func TestInvokeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fakeProvider{name: "A", key: true, out: "ok"}

	res := InvokeWithFallback(ctx, []Provider{a}, Request{})

	assert.False(t, res.Success)
	assert.Equal(t, 0, a.calls)
	var chainErr *ChainError
	assert.True(t, errors.As(res.Err(), &chainErr))
}

func TestPickKey(t *testing.T) {
	assert.Equal(t, "", PickKey(nil))
	assert.Equal(t, "only", PickKey([]string{"only"}))

	pool := []string{"a", "b", "c"}
	for range 20 {
		assert.Contains(t, pool, PickKey(pool))
	}
}
