// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"net/url"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API paper endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/"

const semanticFields = "title,authors,year,venue,publicationDate,abstract,externalIds,url,journal"

func (c *Client) semanticHeaders() map[string]string {
	return map[string]string{"x-api-key": c.SemanticScholarKey}
}

// semanticByDOI fetches one paper by DOI.
func (c *Client) semanticByDOI(ctx context.Context, doi string) (*types.Work, error) {
	reqURL := semanticAPIBase + "DOI:" + escapeDOI(doi) + "?" + url.Values{"fields": {semanticFields}}.Encode()

	var paper semanticPaper
	if err := c.getJSON(ctx, reqURL, c.semanticHeaders(), &paper); err != nil {
		return nil, err
	}
	return paper.work(), nil
}

// semanticSearch returns the top free-text match for a title.
func (c *Client) semanticSearch(ctx context.Context, title string) (*types.Work, error) {
	params := url.Values{
		"query":  {title},
		"limit":  {"1"},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "search?" + params.Encode()

	var sr semanticResponse
	if err := c.getJSON(ctx, reqURL, c.semanticHeaders(), &sr); err != nil {
		return nil, err
	}
	if len(sr.Data) == 0 {
		return nil, httputil.ErrNotFound
	}
	return sr.Data[0].work(), nil
}

func (p semanticPaper) work() *types.Work {
	w := &types.Work{
		Title:    p.Title,
		Abstract: p.Abstract,
		DOI:      p.ExternalIDs.DOI,
		URL:      p.URL,
		Venue:    p.Venue,
		Provider: ProviderSemanticScholar,
	}
	if p.Journal != nil && p.Journal.Name != "" {
		w.Venue = p.Journal.Name
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			w.Authors = append(w.Authors, a.Name)
		}
	}
	w.PublishDate = p.PublicationDate
	if w.PublishDate == "" {
		w.PublishDate = yearOnly(p.Year)
	}
	return w
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	Venue           string              `json:"venue"`
	URL             string              `json:"url"`
	PublicationDate string              `json:"publicationDate"`
	Journal         *semanticJournal    `json:"journal"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticJournal struct {
	Name string `json:"name"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	PubMed   string `json:"PubMed"`
	CorpusID int    `json:"CorpusId"`
}
