// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/citeref/pkg/types"
)

// DefaultTimeout bounds every outbound call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent identifies citeref to academic APIs.
const DefaultUserAgent = "citeref/0.1 (+https://github.com/pdiddy/citeref)"

// NewClient returns an HTTP client whose per-call timeout comes from cfg,
// falling back to DefaultTimeout. maxRedirects <= 0 keeps the net/http
// default of ten.
func NewClient(cfg types.HTTPConfig, maxRedirects int) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &http.Client{Timeout: timeout}
	if maxRedirects > 0 {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("%w: stopped after %d redirects", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		}
	}
	return c
}

// ErrTooManyRedirects is returned when a redirect chain exceeds the cap.
var ErrTooManyRedirects = errors.New("too many redirects")
