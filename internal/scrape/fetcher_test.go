// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BrowserUserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><title>Hi</title></html>"))
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{}, nil)
	page, err := f.Fetch(context.Background(), ts.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "<html><title>Hi</title></html>", page.HTML)
	assert.Equal(t, ts.URL+"/page", page.FinalURL)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
}

func TestFetchTruncatesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{MaxBodyBytes: 10}, nil)
	page, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, page.HTML, 10)
}

func TestFetchNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{}, nil)
	_, err := f.Fetch(context.Background(), ts.URL)
	require.Error(t, err)

	var apiErr *httputil.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestFetchRedirectCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			http.Redirect(w, r, "/b", http.StatusFound)
		case "/b":
			http.Redirect(w, r, "/c", http.StatusFound)
		default:
			w.Write([]byte("done"))
		}
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{MaxRedirects: 1}, nil)
	_, err := f.Fetch(context.Background(), ts.URL+"/a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httputil.ErrTooManyRedirects))

	f = NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{MaxRedirects: 5}, nil)
	page, err := f.Fetch(context.Background(), ts.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/c", page.FinalURL)
}

func TestFetchRobots(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{RespectRobots: true}, nil)

	_, err := f.Fetch(context.Background(), ts.URL+"/private/page")
	assert.True(t, errors.Is(err, ErrBlocked))

	_, err = f.Fetch(context.Background(), ts.URL+"/public/page")
	assert.NoError(t, err)
}

func TestFetchRobotsMissingAllows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, types.ScrapeConfig{RespectRobots: true}, nil)
	page, err := f.Fetch(context.Background(), ts.URL+"/anything")
	require.NoError(t, err)
	assert.Equal(t, "ok", page.HTML)
}
