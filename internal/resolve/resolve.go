// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns one raw identifier into a normalized citation. It
// tries the authoritative sources first (DOI-based academic lookups), then
// specialized publisher lookups, then the page's own markup, and finally
// AI gap filling. Every stage may only fill fields that are still empty,
// except the DOI-based lookup, which supersedes weaker matches.
package resolve

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/internal/metrics"
	"github.com/pdiddy/citeref/internal/scrape"
	"github.com/pdiddy/citeref/pkg/types"
)

// Result sources, reported to callers and used as the metrics label.
const (
	SourceAcademic   = "academic_database"
	SourceTitleMatch = "academic_database_title_match"
	SourceBook       = "book_database"
	SourceHTML       = "html_metadata"
	SourceAI         = "ai_inference"
	SourceURLOnly    = "url_only"
	SourceDOIOnly    = "doi_only"
	SourceYouTube    = "youtube"

	// Specialized lookups report their own name when they yield metadata
	// but no resolvable DOI.
	SourceIEEE          = string(detect.LookupIEEE)
	SourceScienceDirect = string(detect.LookupScienceDirect)
	SourcePubMed        = string(detect.LookupPubMed)
)

// accessDateLayout formats Citation.AccessDate.
const accessDateLayout = "2006-01-02"

// Lookups is the academic and media lookup surface the resolver needs.
// *lookup.Client implements it. Every method reports a miss as nil or a
// zero LookupResult, never as an error.
type Lookups interface {
	LookupByDOI(ctx context.Context, doi string) *types.Work
	LookupIEEEDocument(ctx context.Context, documentID string) types.LookupResult
	LookupPII(ctx context.Context, pii string) types.LookupResult
	LookupPMID(ctx context.Context, pmid string) types.LookupResult
	LookupByTitle(ctx context.Context, title string) *types.Work
	LookupISBN(ctx context.Context, isbn string) *types.Work
	LookupYouTube(ctx context.Context, videoID, apiKey string) *types.VideoData
	OEmbed(ctx context.Context, videoID string) *types.VideoData
}

// PageFetcher downloads a web page. *scrape.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*scrape.Page, error)
}

// Enhancer fills citation gaps with an LLM. *ai.Service implements it.
type Enhancer interface {
	Available() bool
	EnhanceCitation(ctx context.Context, hints ai.CitationHints) (*ai.CitationGuess, error)
	GuessFromURL(ctx context.Context, rawURL string) (*ai.CitationGuess, error)
	InferVideoDetails(ctx context.Context, v types.VideoData) (*ai.VideoGuess, error)
}

// Request is one resolution request.
type Request struct {
	// Input is a DOI, ISBN, PubMed ID, YouTube link, or page URL.
	Input string

	// UseAI allows AI gap filling and blind guessing.
	UseAI bool
}

// Result is a resolved citation.
type Result struct {
	Citation   types.NormalizedCitation `json:"metadata" yaml:"metadata"`
	Source     string                   `json:"source" yaml:"source"`
	DOI        string                   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Message    string                   `json:"message" yaml:"message"`
	Suggestion string                   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	AIEnhanced bool                     `json:"aiEnhanced,omitempty" yaml:"ai_enhanced,omitempty"`
}

// Error is a resolution failure the caller can act on. Status is the HTTP
// status the failure maps to.
type Error struct {
	Status     int
	Message    string
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Resolver.
type Options struct {
	// YouTubeKeys is the YouTube Data API key pool. Empty means oEmbed only.
	YouTubeKeys []string

	Logger *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Resolver runs the resolution pipeline. It holds no per-request state.
type Resolver struct {
	lookups     Lookups
	fetcher     PageFetcher
	enhancer    Enhancer
	youtubeKeys []string
	logger      *zap.Logger
	now         func() time.Time
}

// New returns a Resolver. enhancer may be nil, which disables AI stages.
func New(lookups Lookups, fetcher PageFetcher, enhancer Enhancer, opts Options) *Resolver {
	r := &Resolver{
		lookups:     lookups,
		fetcher:     fetcher,
		enhancer:    enhancer,
		youtubeKeys: opts.YouTubeKeys,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func (r *Resolver) aiAvailable() bool {
	return r.enhancer != nil && r.enhancer.Available()
}

// Resolve classifies req.Input and runs the matching pipeline. The only
// errors returned are *Error values: invalid input, an ISBN no book
// database knows, or a page that could not be fetched when no DOI, no
// preloaded metadata, and no AI fallback are available.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, &Error{Status: http.StatusBadRequest, Message: "Missing URL or identifier"}
	}

	det := detect.Classify(input)
	r.logger.Debug("classified input",
		zap.String("type", string(det.Type)),
		zap.String("value", det.Value),
		zap.String("confidence", string(det.Confidence)),
	)

	switch det.Type {
	case types.TypeISBN:
		return r.resolveISBN(ctx, det)
	case types.TypeDOI:
		p := r.newPipeline(req.UseAI, doiURL(det.Value))
		return p.fromDOI(ctx, det.Value)
	case types.TypePMID:
		p := r.newPipeline(req.UseAI, pubmedURL(det.Value))
		return p.fromPMID(ctx, det.Value)
	case types.TypeYouTube:
		return r.resolveVideoCitation(ctx, det.Value)
	case types.TypeURL:
		p := r.newPipeline(req.UseAI, det.Value)
		return p.fromURL(ctx)
	}
	return nil, &Error{
		Status:     http.StatusBadRequest,
		Message:    "Invalid URL or identifier",
		Suggestion: det.Suggestion,
	}
}

func (r *Resolver) resolveISBN(ctx context.Context, det types.Detection) (*Result, error) {
	w := r.lookups.LookupISBN(ctx, det.Value)
	if w == nil {
		return nil, &Error{
			Status:     http.StatusBadRequest,
			Message:    fmt.Sprintf("No book found for ISBN %s", det.Value),
			Suggestion: "Check the ISBN or enter the book details manually.",
		}
	}
	c := workCitation(w)
	c.URL = w.URL
	if c.URL == "" {
		c.URL = "https://openlibrary.org/isbn/" + det.Value
	}
	return r.finish(c, SourceBook, false), nil
}

func (r *Resolver) resolveVideoCitation(ctx context.Context, videoID string) (*Result, error) {
	v, err := r.videoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	c := types.NormalizedCitation{
		Title:       v.Title,
		Author:      v.ChannelTitle,
		PublishDate: videoDate(*v),
		SiteName:    "YouTube",
		Description: v.Description,
		URL:         v.URL,
	}
	return r.finish(c, SourceYouTube, false), nil
}

// finish applies the steps every path shares: title cleanup, access date,
// message, and metrics.
func (r *Resolver) finish(c types.NormalizedCitation, source string, aiEnhanced bool) *Result {
	c.Title = scrape.CleanTitle(c.Title)
	c.AccessDate = r.now().Format(accessDateLayout)
	metrics.Resolutions.WithLabelValues(source).Inc()
	r.logger.Info("citation resolved",
		zap.String("source", source),
		zap.String("url", c.URL),
		zap.String("doi", c.DOI),
		zap.Bool("ai_enhanced", aiEnhanced),
	)
	return &Result{
		Citation:   c,
		Source:     source,
		DOI:        c.DOI,
		Message:    sourceMessages[source],
		AIEnhanced: aiEnhanced,
	}
}

var sourceMessages = map[string]string{
	SourceAcademic:      "Citation found in an academic database",
	SourceTitleMatch:    "Citation matched by title in an academic database",
	SourceBook:          "Citation found in a book database",
	SourceHTML:          "Citation extracted from the page",
	SourceAI:            "The page could not be fetched; citation inferred by AI from the URL",
	SourceURLOnly:       "The page could not be fetched; only the site name is known",
	SourceDOIOnly:       "Only the DOI could be confirmed",
	SourceYouTube:       "Video details retrieved",
	SourceIEEE:          "Citation found via IEEE Xplore lookup",
	SourceScienceDirect: "Citation found via ScienceDirect lookup",
	SourcePubMed:        "Citation found in PubMed",
}

func doiURL(doi string) string     { return "https://doi.org/" + doi }
func pubmedURL(pmid string) string { return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/" }
