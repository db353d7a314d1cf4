// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup resolves identifiers against academic and video sources:
// Semantic Scholar, OpenAlex, CrossRef, arXiv, PubMed E-utilities, Open
// Library, Google Books, and YouTube. Every public lookup converts
// transport, status, and decoding failures into a miss (nil or an empty
// LookupResult) and logs the reason.
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/internal/metrics"
	"github.com/pdiddy/citeref/pkg/types"
)

// Provider names used in Work.Provider, logs, and metrics.
const (
	ProviderSemanticScholar = "semantic_scholar"
	ProviderOpenAlex        = "openalex"
	ProviderCrossRef        = "crossref"
	ProviderArxiv           = "arxiv"
	ProviderPubMed          = "pubmed"
	ProviderOpenLibrary     = "open_library"
	ProviderGoogleBooks     = "google_books"
	ProviderYouTube         = "youtube"
	ProviderOEmbed          = "oembed"
)

const (
	defaultIEEEMaxGuesses = 60
	defaultIEEEGuessRate  = 5
)

// Client runs lookups against every academic source. It holds no state
// between calls beyond its configuration.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	Mailto     string
	MaxRetries int

	SemanticScholarKey string
	NCBIKey            string

	// IEEEMaxGuesses bounds the brute-force candidates per IEEE document.
	IEEEMaxGuesses int

	// IEEEGuessRate is the per-document candidate budget in requests per
	// second.
	IEEEGuessRate float64

	logger *zap.Logger
	now    func() time.Time
}

// New builds a Client from configuration. A nil logger discards logs.
func New(httpCfg types.HTTPConfig, cfg types.LookupConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := httpCfg.UserAgent
	if ua == "" {
		ua = httputil.DefaultUserAgent
	}
	guesses := cfg.IEEEMaxGuesses
	if guesses <= 0 {
		guesses = defaultIEEEMaxGuesses
	}
	perSecond := cfg.IEEEGuessRate
	if perSecond <= 0 {
		perSecond = defaultIEEEGuessRate
	}
	return &Client{
		HTTP:               httputil.NewClient(httpCfg, 0),
		UserAgent:          ua,
		Mailto:             cfg.Mailto,
		MaxRetries:         httpCfg.MaxRetries,
		SemanticScholarKey: cfg.SemanticScholarAPIKey,
		NCBIKey:            cfg.NCBIAPIKey,
		IEEEMaxGuesses:     guesses,
		IEEEGuessRate:      perSecond,
		logger:             logger.Named("lookup"),
		now:                time.Now,
	}
}

// escapeDOI escapes each "/"-separated segment of doi for a URL path. DOIs
// may contain '#', '?', and '%'.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) getJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["User-Agent"] = c.UserAgent
	return httputil.GetJSON(ctx, c.HTTP, rawURL, headers, c.MaxRetries, out)
}

// miss logs a failed source call at debug level and counts it.
func (c *Client) miss(source, id string, err error) {
	outcome := metrics.OutcomeMiss
	if err != nil && !httputil.IsNotFound(err) {
		outcome = metrics.OutcomeError
	}
	metrics.RecordLookup(source, outcome)
	c.logger.Debug("lookup miss", zap.String("source", source), zap.String("id", id), zap.Error(err))
}

func (c *Client) hit(source, id string) {
	metrics.RecordLookup(source, metrics.OutcomeHit)
	c.logger.Debug("lookup hit", zap.String("source", source), zap.String("id", id))
}

type doiSource struct {
	name  string
	fetch func(ctx context.Context, doi string) (*types.Work, error)
}

// LookupByDOI tries Semantic Scholar, OpenAlex, then CrossRef and returns
// the first record carrying both a title and authors. arXiv DOIs get a
// final attempt against the arXiv API. It returns nil when every source
// misses.
func (c *Client) LookupByDOI(ctx context.Context, doi string) *types.Work {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil
	}

	sources := []doiSource{
		{ProviderSemanticScholar, c.semanticByDOI},
		{ProviderOpenAlex, c.openAlexByDOI},
		{ProviderCrossRef, c.crossrefByDOI},
	}
	if strings.HasPrefix(strings.ToLower(doi), arxivDOIPrefix) {
		sources = append(sources, doiSource{ProviderArxiv, c.arxivByDOI})
	}

	for _, s := range sources {
		w, err := s.fetch(ctx, doi)
		if err != nil || !w.Complete() {
			c.miss(s.name, doi, err)
			continue
		}
		if w.DOI == "" {
			w.DOI = doi
		}
		c.hit(s.name, doi)
		return w
	}
	return nil
}

// formatDateParts renders [year, month, day] prefixes as YYYY, YYYY-MM, or
// YYYY-MM-DD.
func formatDateParts(parts []int) string {
	switch {
	case len(parts) == 0 || parts[0] <= 0:
		return ""
	case len(parts) == 1:
		return fmt.Sprintf("%04d", parts[0])
	case len(parts) == 2:
		return fmt.Sprintf("%04d-%02d", parts[0], parts[1])
	default:
		return fmt.Sprintf("%04d-%02d-%02d", parts[0], parts[1], parts[2])
	}
}

// yearOnly renders a bare publication year, or "" for zero.
func yearOnly(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%04d", year)
}
