// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// crossrefAPIBase is the CrossRef Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// jatsTag matches the JATS XML markup CrossRef embeds in abstracts.
var jatsTag = regexp.MustCompile(`<[^>]+>`)

func (c *Client) crossrefURL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.Mailto != "" {
		params.Set("mailto", c.Mailto)
	}
	u := crossrefAPIBase + path
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// crossrefByDOI fetches the registered metadata for a DOI. A 404 means the
// DOI is not registered with CrossRef.
func (c *Client) crossrefByDOI(ctx context.Context, doi string) (*types.Work, error) {
	var resp crossrefSingle
	if err := c.getJSON(ctx, c.crossrefURL("/"+escapeDOI(doi), nil), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message.work(), nil
}

// crossrefQuery runs a works query and returns the decoded items.
func (c *Client) crossrefQuery(ctx context.Context, params url.Values) ([]crossrefItem, error) {
	var resp crossrefList
	if err := c.getJSON(ctx, c.crossrefURL("", params), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message.Items, nil
}

// crossrefSearch returns the top bibliographic match for a title.
func (c *Client) crossrefSearch(ctx context.Context, title string) (*types.Work, error) {
	items, err := c.crossrefQuery(ctx, url.Values{
		"query.bibliographic": {title},
		"rows":                {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, httputil.ErrNotFound
	}
	return items[0].work(), nil
}

// crossrefIEEE searches works deposited by the IEEE member for the document
// number and accepts an item whose DOI ends with it.
func (c *Client) crossrefIEEE(ctx context.Context, documentID string) (*types.Work, error) {
	items, err := c.crossrefQuery(ctx, url.Values{
		"filter":              {"member:" + ieeeCrossrefMember},
		"query.bibliographic": {documentID},
		"rows":                {"5"},
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if strings.HasSuffix(strings.ToLower(it.DOI), documentID) {
			return it.work(), nil
		}
	}
	return nil, nil
}

// LookupPII resolves a ScienceDirect PII through CrossRef's alternative-id
// filter, where Elsevier deposits PIIs.
func (c *Client) LookupPII(ctx context.Context, pii string) types.LookupResult {
	items, err := c.crossrefQuery(ctx, url.Values{
		"filter": {"alternative-id:" + pii},
		"rows":   {"1"},
	})
	if err != nil || len(items) == 0 {
		c.miss(ProviderCrossRef, pii, err)
		return types.LookupResult{Source: "sciencedirect"}
	}
	c.hit(ProviderCrossRef, pii)
	w := items[0].work()
	return types.LookupResult{DOI: w.DOI, Work: w, Source: "sciencedirect"}
}

func (it crossrefItem) work() *types.Work {
	w := &types.Work{
		DOI:      it.DOI,
		URL:      it.URL,
		Abstract: strings.TrimSpace(jatsTag.ReplaceAllString(it.Abstract, "")),
		Provider: ProviderCrossRef,
	}
	if len(it.Title) > 0 {
		w.Title = strings.TrimSpace(it.Title[0])
	}
	if len(it.ContainerTitle) > 0 {
		w.Venue = it.ContainerTitle[0]
	} else {
		w.Venue = it.Publisher
	}
	for _, a := range it.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name == "" {
			name = a.Name
		}
		if name != "" {
			w.Authors = append(w.Authors, name)
		}
	}
	for _, d := range []*crossrefDate{it.Issued, it.PublishedPrint, it.PublishedOnline} {
		if d != nil && len(d.DateParts) > 0 {
			if s := formatDateParts(d.DateParts[0]); s != "" {
				w.PublishDate = s
				break
			}
		}
	}
	return w
}

// CrossRef API JSON structures.
type crossrefSingle struct {
	Message crossrefItem `json:"message"`
}

type crossrefList struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI             string           `json:"DOI"`
	URL             string           `json:"URL"`
	Title           []string         `json:"title"`
	ContainerTitle  []string         `json:"container-title"`
	Publisher       string           `json:"publisher"`
	Abstract        string           `json:"abstract"`
	Author          []crossrefAuthor `json:"author"`
	Issued          *crossrefDate    `json:"issued"`
	PublishedPrint  *crossrefDate    `json:"published-print"`
	PublishedOnline *crossrefDate    `json:"published-online"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
