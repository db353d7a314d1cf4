// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CitationType is the classification assigned to a raw identifier.
type CitationType string

const (
	TypeISBN    CitationType = "isbn"
	TypeDOI     CitationType = "doi"
	TypeYouTube CitationType = "youtube"
	TypePMID    CitationType = "pmid"
	TypeURL     CitationType = "url"
	TypeUnknown CitationType = "unknown"
)

// Confidence grades how certain a classification is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Detection is the result of classifying one identifier. Value holds the
// normalized form (bare DOI, cleaned ISBN, video ID, or URL).
type Detection struct {
	Type       CitationType `json:"type" yaml:"type"`
	Value      string       `json:"value" yaml:"value"`
	Confidence Confidence   `json:"confidence" yaml:"confidence"`
	Suggestion string       `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Work is bibliographic metadata returned by an academic source.
type Work struct {
	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// PublishDate is the most precise date the source reported,
	// formatted YYYY, YYYY-MM, or YYYY-MM-DD.
	PublishDate string `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`

	// Venue is the journal, conference, or publisher name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Abstract is the work abstract, when available.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// DOI is the bare DOI (no https://doi.org/ prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the landing page reported by the source.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Provider names the source that produced this record
	// (e.g. "semantic_scholar", "openalex", "crossref").
	Provider string `json:"provider" yaml:"provider"`
}

// Complete reports whether the work has both a title and at least one author.
func (w *Work) Complete() bool {
	return w != nil && w.Title != "" && len(w.Authors) > 0
}

// LookupResult is returned by the specialized lookups (IEEE, PII, PMID).
// A zero DOI and nil Work mean "try the next source".
type LookupResult struct {
	DOI    string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Work   *Work  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Source string `json:"source" yaml:"source"`
}

// Found reports whether the lookup produced a DOI or metadata.
func (r LookupResult) Found() bool {
	return r.DOI != "" || r.Work != nil
}

// NormalizedCitation is the resolved citation returned to callers. URL and
// AccessDate are always set by the orchestrator.
type NormalizedCitation struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	PublishDate string `json:"publishDate" yaml:"publish_date"`
	SiteName    string `json:"siteName" yaml:"site_name"`
	Description string `json:"description" yaml:"description"`
	DOI         string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL         string `json:"url" yaml:"url"`
	AccessDate  string `json:"accessDate" yaml:"access_date"`
}

// VideoData is the normalized record for a YouTube video.
type VideoData struct {
	Title             string `json:"title" yaml:"title"`
	ChannelTitle      string `json:"channelTitle" yaml:"channel_title"`
	ChannelURL        string `json:"channelUrl" yaml:"channel_url"`
	PublishYear       string `json:"publishYear" yaml:"publish_year"`
	PublishMonth      string `json:"publishMonth" yaml:"publish_month"`
	PublishDay        string `json:"publishDay" yaml:"publish_day"`
	Description       string `json:"description" yaml:"description"`
	DurationFormatted string `json:"durationFormatted" yaml:"duration_formatted"`
	ThumbnailURL      string `json:"thumbnailUrl" yaml:"thumbnail_url"`
	URL               string `json:"url" yaml:"url"`
	VideoID           string `json:"videoId" yaml:"video_id"`
}

// NoDate is the placeholder used when a publish date is unknown.
const NoDate = "n.d."

// UnknownAuthor is the placeholder used when no author is known.
const UnknownAuthor = "Unknown Author"

// IsPlaceholder reports whether v is empty or a known placeholder value
// that enrichment stages may replace.
func IsPlaceholder(v string) bool {
	switch v {
	case "", NoDate, UnknownAuthor, "Unknown", "unknown":
		return true
	}
	return false
}
