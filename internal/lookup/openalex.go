// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/citeref/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

const doiURLPrefix = "https://doi.org/"

func (c *Client) openAlexParams() url.Values {
	params := url.Values{}
	if c.Mailto != "" {
		params.Set("mailto", c.Mailto)
	}
	return params
}

// openAlexByDOI fetches a single work using OpenAlex's DOI URL form.
func (c *Client) openAlexByDOI(ctx context.Context, doi string) (*types.Work, error) {
	reqURL := openAlexAPIBase + "/" + doiURLPrefix + escapeDOI(doi)
	if q := c.openAlexParams().Encode(); q != "" {
		reqURL += "?" + q
	}

	var w openAlexWork
	if err := c.getJSON(ctx, reqURL, nil, &w); err != nil {
		return nil, err
	}
	return w.work(), nil
}

// openAlexIEEE searches OpenAlex for an IEEE Xplore document number and
// accepts only results whose DOI carries the 10.1109 IEEE prefix and whose
// DOI or landing page references the document.
func (c *Client) openAlexIEEE(ctx context.Context, documentID string) (*types.Work, error) {
	params := c.openAlexParams()
	params.Set("search", documentID)
	params.Set("filter", "doi_starts_with:10.1109")
	params.Set("per_page", "10")

	var resp openAlexResponse
	if err := c.getJSON(ctx, openAlexAPIBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	for _, r := range resp.Results {
		doi := strings.ToLower(strings.TrimPrefix(r.DOI, doiURLPrefix))
		if !strings.Contains(doi, ieeeDOIPrefix) {
			continue
		}
		landing := ""
		if r.PrimaryLocation != nil {
			landing = r.PrimaryLocation.LandingPageURL
		}
		if strings.HasSuffix(doi, documentID) || strings.Contains(landing, "/document/"+documentID) {
			return r.work(), nil
		}
	}
	return nil, nil
}

func (w openAlexWork) work() *types.Work {
	out := &types.Work{
		Title:       w.Title,
		DOI:         strings.TrimPrefix(w.DOI, doiURLPrefix),
		Abstract:    reconstructAbstract(w.AbstractInvertedIndex),
		PublishDate: w.PublicationDate,
		Provider:    ProviderOpenAlex,
	}
	if out.Title == "" {
		out.Title = w.DisplayName
	}
	if out.PublishDate == "" {
		out.PublishDate = yearOnly(w.PublicationYear)
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			out.Authors = append(out.Authors, a.Author.DisplayName)
		}
	}
	if w.PrimaryLocation != nil {
		out.URL = w.PrimaryLocation.LandingPageURL
		if w.PrimaryLocation.Source != nil {
			out.Venue = w.PrimaryLocation.Source.DisplayName
		}
	}
	return out
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index (word to
// positions) back to plain text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}
	byPos := make(map[int]string)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			byPos[pos] = word
		}
	}
	positions := make([]int, 0, len(byPos))
	for pos := range byPos {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	words := make([]string, len(positions))
	for i, pos := range positions {
		words[i] = byPos[pos]
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	Source         *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}
