// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivDOIPrefix is the DataCite prefix arXiv registers DOIs under.
const arxivDOIPrefix = "10.48550/arxiv."

// arxivByDOI looks up an arXiv DOI (10.48550/arXiv.<id>) by its arXiv ID.
func (c *Client) arxivByDOI(ctx context.Context, doi string) (*types.Work, error) {
	id := doi[len(arxivDOIPrefix):]
	reqURL := arxivAPIBase + "?" + url.Values{"id_list": {id}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	for _, entry := range feed.Entries {
		// arXiv reports unknown IDs as an entry pointing at /api/errors.
		if !strings.Contains(entry.ID, "/abs/") {
			continue
		}
		w := &types.Work{
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			Abstract: strings.TrimSpace(entry.Summary),
			DOI:      doi,
			URL:      "https://arxiv.org/abs/" + id,
			Venue:    "arXiv",
			Provider: ProviderArxiv,
		}
		for _, a := range entry.Authors {
			w.Authors = append(w.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			w.PublishDate = t.Format("2006-01-02")
		}
		return w, nil
	}
	return nil, httputil.ErrNotFound
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
