// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect classifies user-supplied citation identifiers and maps
// academic publisher URLs to DOIs. It performs no I/O.
package detect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/citeref/pkg/types"
)

var (
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern = regexp.MustCompile(`^97[89]\d{10}$`)
	bareDigits    = regexp.MustCompile(`^\d{10,13}$`)

	// doiPrefix strips resolver URLs and the "doi:" scheme before matching.
	doiPrefix  = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:\s*)`)
	doiPattern = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

	pmidPrefix  = regexp.MustCompile(`(?i)^(?:pmid:\s*|https?://(?:www\.)?(?:pubmed\.ncbi\.nlm\.nih\.gov|ncbi\.nlm\.nih\.gov/pubmed)/)`)
	pmidPattern = regexp.MustCompile(`^\d{7,8}$`)

	// youtubePatterns covers watch, short-link, embed, and shorts URLs.
	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	}
)

const (
	pmidSuggestion = "Numeric IDs are ambiguous. Treating this as a PubMed ID; prefix it with \"PMID:\" to confirm."
	isbnSuggestion = "This looks like it could be an ISBN, but the length or prefix is unusual. Double-check the digits."
	unknownHint    = "Enter a DOI (10.xxxx/...), ISBN, PubMed ID, YouTube link, or a web page URL."
)

// Classify assigns exactly one citation type to input. The checks run in a
// fixed order and the first match wins: ISBN, DOI, YouTube, PMID, URL, bare
// digits, unknown. It never fails.
func Classify(input string) types.Detection {
	s := strings.TrimSpace(input)

	cleaned := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "-", "")), ""))
	if isbn10Pattern.MatchString(cleaned) || isbn13Pattern.MatchString(cleaned) {
		return types.Detection{Type: types.TypeISBN, Value: cleaned, Confidence: types.ConfidenceHigh}
	}

	if doi := doiPrefix.ReplaceAllString(s, ""); doiPattern.MatchString(doi) {
		return types.Detection{Type: types.TypeDOI, Value: doi, Confidence: types.ConfidenceHigh}
	}

	if id, ok := YouTubeID(s); ok {
		return types.Detection{Type: types.TypeYouTube, Value: id, Confidence: types.ConfidenceHigh}
	}

	pmid := strings.TrimSuffix(pmidPrefix.ReplaceAllString(s, ""), "/")
	if pmidPattern.MatchString(pmid) {
		return types.Detection{
			Type:       types.TypePMID,
			Value:      pmid,
			Confidence: types.ConfidenceMedium,
			Suggestion: pmidSuggestion,
		}
	}

	if u, ok := parseURL(s); ok {
		return types.Detection{Type: types.TypeURL, Value: u, Confidence: types.ConfidenceHigh}
	}

	if bareDigits.MatchString(cleaned) {
		return types.Detection{
			Type:       types.TypeISBN,
			Value:      cleaned,
			Confidence: types.ConfidenceMedium,
			Suggestion: isbnSuggestion,
		}
	}

	return types.Detection{
		Type:       types.TypeUnknown,
		Value:      s,
		Confidence: types.ConfidenceLow,
		Suggestion: unknownHint,
	}
}

// YouTubeID extracts the 11-character video ID from a YouTube URL.
func YouTubeID(s string) (string, bool) {
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// NormalizeURL returns s as an absolute URL, adding "https://" when the
// input is a bare host such as "example.com/page".
func NormalizeURL(s string) (string, bool) {
	return parseURL(strings.TrimSpace(s))
}

func parseURL(s string) (string, bool) {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return "", false
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return s, true
	}
	withScheme := "https://" + s
	u, err := url.Parse(withScheme)
	if err != nil || !strings.Contains(u.Host, ".") {
		return "", false
	}
	return withScheme, true
}
