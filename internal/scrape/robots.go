// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// robotsAgent is the product token matched against robots.txt groups.
const robotsAgent = "citeref"

// robotsGate checks robots.txt before a page fetch. Nothing is cached; each
// check fetches robots.txt again.
type robotsGate struct {
	client *http.Client
	agent  string
}

// allowed reports whether the agent may fetch rawURL. When robots.txt cannot
// be retrieved or parsed the fetch is allowed and the error is returned for
// logging.
func (g *robotsGate) allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return true, fmt.Errorf("parse robots.txt: %w", err)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.agent), nil
}
