// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Metadata is the citation information found in a page's markup.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	DOI         string `json:"doi,omitempty"`
}

// Tag precedence per field. The first key with a non-empty value wins:
// OpenGraph first, then citation and Dublin Core tags, then generic tags.
var (
	titleKeys       = []string{"og:title", "citation_title", "dc.title", "twitter:title", "title"}
	authorKeys      = []string{"article:author", "citation_author", "dc.creator", "author", "parsely-author"}
	dateKeys        = []string{"article:published_time", "citation_publication_date", "citation_date", "dc.date", "date", "pubdate", "publish-date"}
	siteKeys        = []string{"og:site_name", "citation_journal_title", "citation_publisher", "dc.publisher", "application-name"}
	descriptionKeys = []string{"og:description", "dc.description", "description", "twitter:description"}
	doiKeys         = []string{"citation_doi", "prism.doi", "dc.identifier"}
)

// titleSuffix matches a trailing " - Site Name" or " | Site Name".
var titleSuffix = regexp.MustCompile(`^(.*\S)\s+[|–—-]\s+[^|–—]+$`)

var doiPattern = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

// ExtractMetadata parses htmlContent and returns its citation metadata.
// Unparseable markup yields metadata holding only the URL and the site name
// derived from it.
func ExtractMetadata(htmlContent, pageURL string) Metadata {
	md := Metadata{URL: pageURL}

	if doc, err := html.Parse(strings.NewReader(htmlContent)); err == nil {
		tags, docTitle := collectMeta(doc)

		md.Title = first(tags, titleKeys)
		if md.Title == "" {
			md.Title = docTitle
		}
		md.Author = authorFrom(tags)
		md.PublishDate = first(tags, dateKeys)
		md.SiteName = first(tags, siteKeys)
		md.Description = first(tags, descriptionKeys)
		md.DOI = doiFrom(tags)
	}

	md.Title = CleanTitle(md.Title)
	if md.SiteName == "" {
		md.SiteName = SiteNameFromURL(pageURL)
	}
	return md
}

// CleanTitle collapses whitespace and strips a trailing separator followed by
// a site name.
func CleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if m := titleSuffix.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return title
}

// SiteNameFromURL returns the hostname of rawURL without a leading "www.".
func SiteNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// collectMeta walks the document once, gathering every meta tag's content
// keyed by its lowercased name, property, or itemprop, in document order.
// It also returns the text of the first <title> element.
func collectMeta(doc *html.Node) (map[string][]string, string) {
	tags := make(map[string][]string)
	var docTitle string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var key, content string
				for _, a := range n.Attr {
					switch strings.ToLower(a.Key) {
					case "name", "property", "itemprop":
						if key == "" {
							key = strings.ToLower(strings.TrimSpace(a.Val))
						}
					case "content":
						content = strings.TrimSpace(a.Val)
					}
				}
				if key != "" && content != "" {
					tags[key] = append(tags[key], content)
				}
			case "title":
				if docTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "svg":
				// <title> inside inline SVG is not the document title.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tags, docTitle
}

func first(tags map[string][]string, keys []string) string {
	for _, k := range keys {
		for _, v := range tags[k] {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// authorFrom applies the author precedence. Every citation_author tag is
// kept and joined with ", ". OpenGraph author values that are profile URLs
// are ignored.
func authorFrom(tags map[string][]string) string {
	for _, k := range authorKeys {
		var names []string
		for _, v := range tags[k] {
			if v == "" || isURL(v) {
				continue
			}
			names = append(names, v)
			if k != "citation_author" {
				break
			}
		}
		if len(names) > 0 {
			return strings.Join(names, ", ")
		}
	}
	return ""
}

// doiFrom returns the first DOI-shaped value among the DOI tags.
func doiFrom(tags map[string][]string) string {
	for _, k := range doiKeys {
		for _, v := range tags[k] {
			if doi := normalizeDOI(v); doi != "" {
				return doi
			}
		}
	}
	return ""
}

func normalizeDOI(v string) string {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			v = strings.TrimSpace(v[len(prefix):])
			break
		}
	}
	if !doiPattern.MatchString(v) {
		return ""
	}
	return v
}

func isURL(v string) bool {
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")
}
