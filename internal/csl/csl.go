// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csl renders resolved citations as CSL-YAML, the input format
// Pandoc and most reference managers accept.
package csl

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citeref/internal/resolve"
	"github.com/pdiddy/citeref/pkg/types"
)

// Item is one CSL bibliographic entry.
type Item struct {
	ID             string `yaml:"id"`
	Type           string `yaml:"type"`
	Title          string `yaml:"title"`
	Author         []Name `yaml:"author,omitempty"`
	ContainerTitle string `yaml:"container-title,omitempty"`
	Abstract       string `yaml:"abstract,omitempty"`
	Issued         *Date  `yaml:"issued,omitempty"`
	Accessed       *Date  `yaml:"accessed,omitempty"`
	DOI            string `yaml:"DOI,omitempty"`
	URL            string `yaml:"URL,omitempty"`
	Dimensions     string `yaml:"dimensions,omitempty"`
}

// Name is a person or organization name.
type Name struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// Date holds either date-parts or, for unparseable input, the raw text.
type Date struct {
	DateParts [][]int `yaml:"date-parts,omitempty"`
	Literal   string  `yaml:"literal,omitempty"`
}

// CSL item types.
const (
	TypeArticleJournal = "article-journal"
	TypeArticle        = "article"
	TypeBook           = "book"
	TypeWebpage        = "webpage"
	TypeMotionPicture  = "motion_picture"
)

var leadingDate = regexp.MustCompile(`^(\d{4})(?:-(\d{1,2})(?:-(\d{1,2}))?)?`)

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// Write encodes items as a CSL-YAML list.
func Write(w io.Writer, items ...Item) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// FromResult converts a resolved citation.
func FromResult(res *resolve.Result) Item {
	c := res.Citation
	item := Item{
		ID:             c.DOI,
		Type:           itemType(res.Source),
		Title:          c.Title,
		Author:         parseAuthors(c.Author),
		ContainerTitle: c.SiteName,
		Abstract:       c.Description,
		Issued:         ParseDate(c.PublishDate),
		Accessed:       ParseDate(c.AccessDate),
		DOI:            c.DOI,
		URL:            c.URL,
	}
	if item.ID == "" {
		item.ID = c.URL
	}
	return item
}

// FromVideo converts a YouTube video. accessed is the retrieval date.
func FromVideo(v types.VideoData, accessed time.Time) Item {
	item := Item{
		ID:             "youtube-" + v.VideoID,
		Type:           TypeMotionPicture,
		Title:          v.Title,
		ContainerTitle: "YouTube",
		Abstract:       v.Description,
		URL:            v.URL,
		Dimensions:     v.DurationFormatted,
		Accessed:       dateOf(accessed),
	}
	if v.ChannelTitle != "" {
		item.Author = []Name{{Literal: v.ChannelTitle}}
	}
	if !types.IsPlaceholder(v.PublishYear) {
		item.Issued = ParseDate(videoDate(v))
	}
	return item
}

func videoDate(v types.VideoData) string {
	s := v.PublishYear
	if m, err := time.Parse("January", v.PublishMonth); err == nil {
		s += "-" + strconv.Itoa(int(m.Month()))
		if v.PublishDay != "" {
			s += "-" + v.PublishDay
		}
	}
	return s
}

func itemType(source string) string {
	switch source {
	case resolve.SourceAcademic, resolve.SourceTitleMatch, resolve.SourcePubMed,
		resolve.SourceIEEE, resolve.SourceScienceDirect:
		return TypeArticleJournal
	case resolve.SourceDOIOnly:
		return TypeArticle
	case resolve.SourceBook:
		return TypeBook
	case resolve.SourceYouTube:
		return TypeMotionPicture
	}
	return TypeWebpage
}

// ParseDate reads YYYY[-MM[-DD]] prefixes (which covers RFC 3339) and a few
// written-out layouts. Other text is kept as a literal; placeholders give
// nil.
func ParseDate(s string) *Date {
	s = strings.TrimSpace(s)
	if types.IsPlaceholder(s) {
		return nil
	}
	if m := leadingDate.FindStringSubmatch(s); m != nil {
		var parts []int
		for _, p := range m[1:] {
			if p == "" {
				break
			}
			n, _ := strconv.Atoi(p)
			parts = append(parts, n)
		}
		return &Date{DateParts: [][]int{parts}}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if strings.Contains(layout, "2,") || strings.HasPrefix(layout, "2 ") {
				return dateOf(t)
			}
			return &Date{DateParts: [][]int{{t.Year(), int(t.Month())}}}
		}
	}
	return &Date{Literal: s}
}

func dateOf(t time.Time) *Date {
	if t.IsZero() {
		return nil
	}
	return &Date{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
}

// parseAuthors splits a comma-joined author list. Single-token names and
// organizations use the literal field.
func parseAuthors(s string) []Name {
	if types.IsPlaceholder(s) {
		return nil
	}
	var names []Name
	for _, a := range strings.Split(s, ",") {
		if n := parseAuthorName(a); n != (Name{}) {
			names = append(names, n)
		}
	}
	return names
}

// parseAuthorName splits a full name on the last space: everything before
// is given, the last token is family.
func parseAuthorName(name string) Name {
	name = strings.TrimSpace(name)
	if name == "" {
		return Name{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return Name{Literal: name}
	}
	return Name{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
