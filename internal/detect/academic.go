// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// LookupKind names the specialized lookup a publisher URL requires when its
// DOI cannot be read from the URL.
type LookupKind string

const (
	LookupNone          LookupKind = ""
	LookupIEEE          LookupKind = "ieee"
	LookupScienceDirect LookupKind = "sciencedirect"
	LookupPubMed        LookupKind = "pubmed"
)

// URLMatch is the outcome of matching a URL against the publisher table.
// Exactly one of DOI or NeedsLookup is set.
type URLMatch struct {
	Publisher   string     `json:"publisher"`
	DOI         string     `json:"doi,omitempty"`
	NeedsLookup LookupKind `json:"needs_lookup,omitempty"`
	ID          string     `json:"id,omitempty"`
}

// urlPattern is one row of the publisher table. Build turns the regex
// submatches into a match; it returns false to let later rows try.
type urlPattern struct {
	Publisher string
	Regex     *regexp.Regexp
	Build     func(m []string) (URLMatch, bool)
}

const doiCapture = `(10\.\d{4,}/[^?#\s]+)`

func directDOI(m []string) (URLMatch, bool) {
	doi := cleanDOI(m[1])
	return URLMatch{DOI: doi}, doi != ""
}

func lookup(kind LookupKind) func(m []string) (URLMatch, bool) {
	return func(m []string) (URLMatch, bool) {
		return URLMatch{NeedsLookup: kind, ID: m[1]}, true
	}
}

// academicPatterns is evaluated top to bottom; the first row whose regex
// matches and whose builder succeeds wins.
var academicPatterns = []urlPattern{
	{"IEEE", regexp.MustCompile(`ieeexplore\.ieee\.org/(?:abstract/)?document/(\d+)`), lookup(LookupIEEE)},
	{"ScienceDirect", regexp.MustCompile(`sciencedirect\.com/science/article/(?:abs/)?pii/([A-Z0-9]+)`), lookup(LookupScienceDirect)},
	{"PubMed", regexp.MustCompile(`pubmed\.ncbi\.nlm\.nih\.gov/(\d+)`), lookup(LookupPubMed)},
	{"PubMed", regexp.MustCompile(`ncbi\.nlm\.nih\.gov/pubmed/(\d+)`), lookup(LookupPubMed)},
	{"Springer", regexp.MustCompile(`link\.springer\.com/(?:article|chapter|book)/` + doiCapture), directDOI},
	{"Nature", regexp.MustCompile(`nature\.com/articles/([A-Za-z0-9.\-]+)`), func(m []string) (URLMatch, bool) {
		return URLMatch{DOI: "10.1038/" + m[1]}, true
	}},
	{"ACM", regexp.MustCompile(`dl\.acm\.org/doi/(?:abs/|full/|pdf/|epdf/)?` + doiCapture), directDOI},
	{"Wiley", regexp.MustCompile(`onlinelibrary\.wiley\.com/doi/(?:abs/|full/|pdf/|epdf/)?` + doiCapture), directDOI},
	{"Taylor & Francis", regexp.MustCompile(`tandfonline\.com/doi/(?:abs/|full/|pdf/|epdf/)?` + doiCapture), directDOI},
	{"SAGE", regexp.MustCompile(`journals\.sagepub\.com/doi/(?:abs/|full/|pdf/|epdf/)?` + doiCapture), directDOI},
	{"arXiv", regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})(?:v\d+)?`), func(m []string) (URLMatch, bool) {
		return URLMatch{DOI: "10.48550/arXiv." + m[1]}, true
	}},
	{"PLOS", regexp.MustCompile(`journals\.plos\.org/\w+/article\?id=(10\.\d{4,}/[^&#\s]+)`), directDOI},
	{"Frontiers", regexp.MustCompile(`frontiersin\.org/(?:journals/[\w-]+/)?articles?/(10\.\d{4,}/[^?#\s/]+)`), directDOI},
	{"MDPI", regexp.MustCompile(`mdpi\.com/(\d{4}-\d{3}[\dX])/(\d+)/(\d+)/(\d+)`), mdpiDOI},
	{"doi.org", regexp.MustCompile(`doi\.org/` + doiCapture), directDOI},
	{"embedded DOI", regexp.MustCompile(`/` + doiCapture), directDOI},
}

// mdpiJournals maps MDPI journal ISSNs to the code used in their DOIs.
var mdpiJournals = map[string]string{
	"2071-1050": "su",
	"1660-4601": "ijerph",
	"2076-3417": "app",
	"1424-8220": "s",
	"1996-1073": "en",
	"1420-3049": "molecules",
	"1422-0067": "ijms",
	"2072-6643": "nu",
	"2072-4292": "rs",
	"1996-1944": "ma",
	"2079-9292": "electronics",
	"2072-6694": "cancers",
	"2227-9059": "biomedicines",
	"2073-4409": "cells",
	"2077-0383": "jcm",
	"2227-7390": "math",
	"2073-4441": "w",
	"1999-4915": "v",
}

// mdpiDOI builds 10.3390/<code><vol:2><issue:2><article:4>, the layout MDPI
// uses for every journal article.
func mdpiDOI(m []string) (URLMatch, bool) {
	code, ok := mdpiJournals[m[1]]
	if !ok {
		return URLMatch{}, false
	}
	vol, err1 := strconv.Atoi(m[2])
	issue, err2 := strconv.Atoi(m[3])
	article, err3 := strconv.Atoi(m[4])
	if err1 != nil || err2 != nil || err3 != nil {
		return URLMatch{}, false
	}
	return URLMatch{DOI: fmt.Sprintf("10.3390/%s%02d%02d%04d", code, vol, issue, article)}, true
}

// trailingViews are path segments publishers append after a DOI.
var trailingViews = []string{"/full", "/abstract", "/pdf", "/epdf", "/html", "/meta", "/fulltext", "/references"}

// cleanDOI URL-decodes a captured DOI and strips view suffixes and
// trailing punctuation.
func cleanDOI(doi string) string {
	if dec, err := url.PathUnescape(doi); err == nil {
		doi = dec
	}
	for changed := true; changed; {
		changed = false
		for _, v := range trailingViews {
			if strings.HasSuffix(strings.ToLower(doi), v) {
				doi = doi[:len(doi)-len(v)]
				changed = true
			}
		}
	}
	return strings.TrimRight(doi, ".,;:/)]}\"'")
}

// MatchAcademicURL maps a publisher URL to a DOI, or to a lookup marker when
// the DOI must be fetched. It returns false when no row matches.
func MatchAcademicURL(rawURL string) (URLMatch, bool) {
	for _, p := range academicPatterns {
		m := p.Regex.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		if match, ok := p.Build(m); ok {
			match.Publisher = p.Publisher
			return match, true
		}
	}
	return URLMatch{}, false
}
