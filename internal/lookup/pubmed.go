// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// pubmedSummaryBase is the E-utilities esummary endpoint. Declared as a var
// so tests can substitute an httptest server.
var pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"

// LookupPMID fetches the PubMed summary for a PMID and extracts the DOI from
// its article IDs. The result carries the summary as metadata even when no
// DOI is listed.
func (c *Client) LookupPMID(ctx context.Context, pmid string) types.LookupResult {
	pmid = strings.TrimSpace(pmid)
	summary, err := c.pubmedSummary(ctx, pmid)
	if err != nil {
		c.miss(ProviderPubMed, pmid, err)
		return types.LookupResult{Source: ProviderPubMed}
	}
	c.hit(ProviderPubMed, pmid)

	w := summary.work()
	return types.LookupResult{DOI: w.DOI, Work: w, Source: ProviderPubMed}
}

func (c *Client) pubmedSummary(ctx context.Context, pmid string) (*pubmedDoc, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"json"},
	}
	if c.NCBIKey != "" {
		params.Set("api_key", c.NCBIKey)
	}

	var resp pubmedResponse
	if err := c.getJSON(ctx, pubmedSummaryBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	raw, ok := resp.Result[pmid]
	if !ok {
		return nil, httputil.ErrNotFound
	}
	var doc pubmedDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding summary for %s: %w", pmid, err)
	}
	if doc.Error != "" || doc.Title == "" {
		return nil, fmt.Errorf("%w: %s", httputil.ErrNotFound, doc.Error)
	}
	return &doc, nil
}

func (d *pubmedDoc) work() *types.Work {
	w := &types.Work{
		Title:       strings.TrimSuffix(strings.TrimSpace(d.Title), "."),
		PublishDate: pubmedDate(d.PubDate),
		Venue:       d.FullJournalName,
		Provider:    ProviderPubMed,
	}
	if w.Venue == "" {
		w.Venue = d.Source
	}
	for _, a := range d.Authors {
		if a.Name != "" && (a.AuthType == "" || a.AuthType == "Author") {
			w.Authors = append(w.Authors, a.Name)
		}
	}
	for _, id := range d.ArticleIDs {
		if strings.EqualFold(id.IDType, "doi") && id.Value != "" {
			w.DOI = id.Value
			break
		}
	}
	if d.UID != "" {
		w.URL = "https://pubmed.ncbi.nlm.nih.gov/" + d.UID + "/"
	}
	return w
}

// pubmedDate converts E-utilities dates such as "2019 Aug 27", "2019 Aug",
// or "2019" to ISO form. Unparseable seasons ("2019 Spring") keep the year.
func pubmedDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []struct {
		layout, format string
	}{
		{"2006 Jan 2", "2006-01-02"},
		{"2006 Jan", "2006-01"},
		{"2006", "2006"},
	} {
		if t, err := time.Parse(layout.layout, s); err == nil {
			return t.Format(layout.format)
		}
	}
	if len(s) >= 4 {
		return s[:4]
	}
	return s
}

// E-utilities esummary JSON structures. The result object mixes a "uids"
// array with one object per UID, so it is decoded lazily.
type pubmedResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	UID             string            `json:"uid"`
	Title           string            `json:"title"`
	PubDate         string            `json:"pubdate"`
	Source          string            `json:"source"`
	FullJournalName string            `json:"fulljournalname"`
	Authors         []pubmedAuthor    `json:"authors"`
	ArticleIDs      []pubmedArticleID `json:"articleids"`
	Error           string            `json:"error"`
}

type pubmedAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
