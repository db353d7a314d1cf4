// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxJSONBody caps JSON responses read from upstream APIs.
const maxJSONBody = 8 << 20

// GetJSON issues a GET with the given headers and decodes a 2xx JSON body
// into out. Non-2xx responses return *APIError.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, maxRetries int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return doJSON(ctx, client, req, headers, maxRetries, out)
}

// PostJSON marshals body, POSTs it, and decodes a 2xx JSON response into out.
func PostJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(ctx, client, req, headers, -1, out)
}

func doJSON(ctx context.Context, client *http.Client, req *http.Request, headers map[string]string, maxRetries int, out any) error {
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := DoWithRetry(ctx, client, req, maxRetries)
	if err != nil {
		return err
	}
	if err := CheckResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
