// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// Book API endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	openLibraryBase = "https://openlibrary.org/api/books"
	googleBooksBase = "https://www.googleapis.com/books/v1/volumes"
)

// LookupISBN resolves a book by ISBN through Open Library, then Google
// Books. Books need only a title to count as found.
func (c *Client) LookupISBN(ctx context.Context, isbn string) *types.Work {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil
	}

	sources := []struct {
		name  string
		fetch func(context.Context, string) (*types.Work, error)
	}{
		{ProviderOpenLibrary, c.openLibraryByISBN},
		{ProviderGoogleBooks, c.googleBooksByISBN},
	}
	for _, s := range sources {
		w, err := s.fetch(ctx, isbn)
		if err != nil || w == nil || w.Title == "" {
			c.miss(s.name, isbn, err)
			continue
		}
		c.hit(s.name, isbn)
		return w
	}
	return nil
}

func (c *Client) openLibraryByISBN(ctx context.Context, isbn string) (*types.Work, error) {
	key := "ISBN:" + isbn
	params := url.Values{
		"bibkeys": {key},
		"format":  {"json"},
		"jscmd":   {"data"},
	}

	var resp map[string]openLibraryBook
	if err := c.getJSON(ctx, openLibraryBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	book, ok := resp[key]
	if !ok {
		return nil, httputil.ErrNotFound
	}

	w := &types.Work{
		Title:       joinTitle(book.Title, book.Subtitle),
		PublishDate: book.PublishDate,
		URL:         book.URL,
		Provider:    ProviderOpenLibrary,
	}
	for _, a := range book.Authors {
		w.Authors = append(w.Authors, a.Name)
	}
	if len(book.Publishers) > 0 {
		w.Venue = book.Publishers[0].Name
	}
	return w, nil
}

func (c *Client) googleBooksByISBN(ctx context.Context, isbn string) (*types.Work, error) {
	var resp googleBooksResponse
	if err := c.getJSON(ctx, googleBooksBase+"?"+url.Values{"q": {"isbn:" + isbn}}.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, httputil.ErrNotFound
	}
	v := resp.Items[0].VolumeInfo
	return &types.Work{
		Title:       joinTitle(v.Title, v.Subtitle),
		Authors:     v.Authors,
		PublishDate: v.PublishedDate,
		Venue:       v.Publisher,
		Abstract:    v.Description,
		URL:         v.InfoLink,
		Provider:    ProviderGoogleBooks,
	}, nil
}

func joinTitle(title, subtitle string) string {
	if subtitle == "" {
		return title
	}
	return title + ": " + subtitle
}

// Open Library and Google Books JSON structures.
type openLibraryBook struct {
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	URL         string            `json:"url"`
	PublishDate string            `json:"publish_date"`
	Authors     []openLibraryName `json:"authors"`
	Publishers  []openLibraryName `json:"publishers"`
}

type openLibraryName struct {
	Name string `json:"name"`
}

type googleBooksResponse struct {
	Items []struct {
		VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type googleVolumeInfo struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	InfoLink      string   `json:"infoLink"`
}
