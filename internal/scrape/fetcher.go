// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches web pages and extracts citation metadata from their
// HTML meta tags. It is the last-resort metadata source when no DOI can be
// derived for a URL.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// BrowserUserAgent is sent on page fetches. Many publisher sites answer
// unknown agents with 403, so the fetcher presents as a desktop browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultMaxBodyBytes caps how much of a page is read when no limit is
// configured.
const DefaultMaxBodyBytes int64 = 5 << 20

// ErrBlocked is returned when robots.txt disallows the page.
var ErrBlocked = errors.New("blocked by robots.txt")

// Page is a fetched HTML document.
type Page struct {
	HTML        string
	FinalURL    string
	StatusCode  int
	ContentType string
}

// Fetcher retrieves HTML pages with a browser-like request, a body size cap,
// and a redirect cap.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	robots    *robotsGate
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher from the HTTP and scrape configuration. A nil
// logger is replaced with a no-op logger.
func NewFetcher(httpCfg types.HTTPConfig, cfg types.ScrapeConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	client := httputil.NewClient(httpCfg, cfg.MaxRedirects)
	f := &Fetcher{
		client:    client,
		userAgent: BrowserUserAgent,
		maxBytes:  maxBytes,
		logger:    logger,
	}
	if cfg.RespectRobots {
		f.robots = &robotsGate{client: client, agent: robotsAgent}
	}
	return f
}

// Fetch retrieves rawURL and returns its body, truncated at the size cap.
// Non-2xx responses are returned as *httputil.APIError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.robots != nil {
		allowed, err := f.robots.allowed(ctx, rawURL)
		if err != nil {
			f.logger.Debug("robots.txt unavailable, allowing fetch", zap.String("url", rawURL), zap.Error(err))
		}
		if !allowed {
			return nil, fmt.Errorf("fetching %s: %w", rawURL, ErrBlocked)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	f.logger.Debug("page fetched",
		zap.String("url", rawURL),
		zap.String("final_url", resp.Request.URL.String()),
		zap.Int("bytes", len(body)),
	)
	return &Page{
		HTML:        string(body),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
