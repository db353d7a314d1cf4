// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/internal/scrape"
	"github.com/pdiddy/citeref/pkg/types"
)

const (
	// minTitleWords is the shortest scraped title worth a title search.
	minTitleWords = 3

	// pageTextForAI caps the page text sent with an enhancement prompt.
	pageTextForAI = 4000
)

// pipeline carries the state of one resolution.
type pipeline struct {
	r       *Resolver
	useAI   bool
	pageURL string

	citation      types.NormalizedCitation
	source        string
	doi           string
	authoritative bool
	aiEnhanced    bool

	// tried records lookups already run, keyed "<kind>:<id>", so the URL
	// stage does not repeat a lookup the identifier stage made.
	tried map[string]bool
}

func (r *Resolver) newPipeline(useAI bool, pageURL string) *pipeline {
	return &pipeline{r: r, useAI: useAI, pageURL: pageURL, tried: map[string]bool{}}
}

func (p *pipeline) once(kind, id string) bool {
	key := kind + ":" + strings.ToLower(id)
	if p.tried[key] {
		return false
	}
	p.tried[key] = true
	return true
}

// tryDOI runs the DOI lookup chain. A complete record supersedes anything
// found so far and makes the result authoritative.
func (p *pipeline) tryDOI(ctx context.Context, doi, source string) bool {
	if doi == "" {
		return false
	}
	if p.doi == "" {
		p.doi = doi
	}
	if !p.once("doi", doi) {
		return false
	}
	w := p.r.lookups.LookupByDOI(ctx, doi)
	if !w.Complete() {
		p.r.logger.Debug("doi lookup missed", zap.String("stage", "doi"), zap.String("doi", doi))
		return false
	}
	c := workCitation(w)
	if c.DOI == "" {
		c.DOI = doi
	}
	Supersede(&p.citation, c)
	p.doi = p.citation.DOI
	p.source = source
	p.authoritative = true
	return true
}

// preload records metadata from a specialized lookup that did not resolve
// through the DOI chain. It is a lower-confidence terminal result; see
// fillGaps.
func (p *pipeline) preload(lr types.LookupResult) bool {
	if lr.Work == nil {
		return false
	}
	FillMissing(&p.citation, workCitation(lr.Work))
	p.source = lr.Source
	return true
}

// fromDOI resolves a bare DOI. A miss falls through to the doi.org page.
func (p *pipeline) fromDOI(ctx context.Context, doi string) (*Result, error) {
	if p.tryDOI(ctx, doi, SourceAcademic) {
		return p.done(), nil
	}
	return p.fromURL(ctx)
}

// fromPMID resolves a PubMed ID through esummary, then its DOI. A miss
// falls through to the PubMed page.
func (p *pipeline) fromPMID(ctx context.Context, pmid string) (*Result, error) {
	p.once(string(detect.LookupPubMed), pmid)
	lr := p.r.lookups.LookupPMID(ctx, pmid)
	if p.tryDOI(ctx, lr.DOI, SourceAcademic) {
		return p.done(), nil
	}
	if p.preload(lr) {
		return p.fillGaps(ctx), nil
	}
	return p.fromURL(ctx)
}

// fromURL runs the URL stages: publisher URL patterns, specialized lookups,
// page fetch and scrape, title recovery, and AI gap filling.
func (p *pipeline) fromURL(ctx context.Context) (*Result, error) {
	if m, ok := detect.MatchAcademicURL(p.pageURL); ok {
		if m.DOI != "" {
			if p.tryDOI(ctx, m.DOI, SourceAcademic) {
				return p.done(), nil
			}
		} else if m.NeedsLookup != detect.LookupNone && p.once(string(m.NeedsLookup), m.ID) {
			lr := p.specialLookup(ctx, m.NeedsLookup, m.ID)
			if p.tryDOI(ctx, lr.DOI, SourceAcademic) {
				return p.done(), nil
			}
			if p.preload(lr) {
				return p.fillGaps(ctx), nil
			}
		}
	}

	page, err := p.r.fetcher.Fetch(ctx, p.pageURL)
	if err != nil {
		p.r.logger.Info("page fetch failed",
			zap.String("stage", "fetch"),
			zap.String("url", p.pageURL),
			zap.Error(err),
		)
		return p.fetchFailed(ctx, err)
	}

	md := scrape.ExtractMetadata(page.HTML, p.pageURL)
	FillMissing(&p.citation, metadataCitation(md))
	p.source = SourceHTML

	if p.tryDOI(ctx, md.DOI, SourceAcademic) {
		return p.done(), nil
	}

	if types.IsPlaceholder(p.citation.Author) && len(strings.Fields(p.citation.Title)) >= minTitleWords {
		p.recoverByTitle(ctx)
	}

	if !p.authoritative {
		p.enhance(ctx, scrape.TextContent(page.HTML, pageTextForAI))
	}
	return p.done(), nil
}

// fillGaps completes a preloaded result from the page's markup and then the
// AI chain. Only empty or placeholder fields change and the source stays
// the lookup's. A fetch failure keeps the preloaded result.
func (p *pipeline) fillGaps(ctx context.Context) *Result {
	if !p.hasGaps() {
		return p.done()
	}
	var pageText string
	page, err := p.r.fetcher.Fetch(ctx, p.pageURL)
	if err != nil {
		p.r.logger.Debug("gap fetch failed", zap.String("stage", "fetch"), zap.String("url", p.pageURL), zap.Error(err))
	} else {
		FillMissing(&p.citation, metadataCitation(scrape.ExtractMetadata(page.HTML, p.pageURL)))
		pageText = scrape.TextContent(page.HTML, pageTextForAI)
	}
	p.enhance(ctx, pageText)
	return p.done()
}

func (p *pipeline) specialLookup(ctx context.Context, kind detect.LookupKind, id string) types.LookupResult {
	switch kind {
	case detect.LookupIEEE:
		return p.r.lookups.LookupIEEEDocument(ctx, id)
	case detect.LookupScienceDirect:
		return p.r.lookups.LookupPII(ctx, id)
	case detect.LookupPubMed:
		return p.r.lookups.LookupPMID(ctx, id)
	}
	return types.LookupResult{}
}

// recoverByTitle searches academic databases by the scraped title. A match
// carrying a DOI is authoritative; one without only fills gaps.
func (p *pipeline) recoverByTitle(ctx context.Context) {
	w := p.r.lookups.LookupByTitle(ctx, p.citation.Title)
	if w == nil {
		return
	}
	if w.DOI == "" {
		FillMissing(&p.citation, workCitation(w))
		return
	}
	Supersede(&p.citation, workCitation(w))
	p.doi = w.DOI
	p.source = SourceTitleMatch
	p.authoritative = true
}

// enhance fills remaining gaps from the AI chain when the caller asked for
// it and title, author, or date is still missing.
func (p *pipeline) enhance(ctx context.Context, pageText string) {
	if !p.useAI || !p.r.aiAvailable() || !p.hasGaps() {
		return
	}
	guess, err := p.r.enhancer.EnhanceCitation(ctx, ai.CitationHints{
		URL:         p.pageURL,
		Title:       p.citation.Title,
		Author:      p.citation.Author,
		PublishDate: p.citation.PublishDate,
		SiteName:    p.citation.SiteName,
		PageText:    pageText,
	})
	if err != nil {
		p.r.logger.Warn("ai enhancement failed", zap.String("stage", "enhance"), zap.Error(err))
		return
	}
	if FillMissing(&p.citation, guessCitation(guess)) > 0 {
		p.aiEnhanced = true
	}
}

func (p *pipeline) hasGaps() bool {
	return types.IsPlaceholder(p.citation.Title) ||
		types.IsPlaceholder(p.citation.Author) ||
		types.IsPlaceholder(p.citation.PublishDate)
}

// fetchFailed handles a page that could not be downloaded. A known DOI
// yields a DOI-only citation. Otherwise an AI guess from the URL is tried
// when allowed, degrading to the hostname alone. With AI disabled the
// failure is returned with a remediation hint.
func (p *pipeline) fetchFailed(ctx context.Context, fetchErr error) (*Result, error) {
	siteName := scrape.SiteNameFromURL(p.pageURL)

	if p.doi != "" {
		FillMissing(&p.citation, types.NormalizedCitation{DOI: p.doi, SiteName: siteName})
		p.source = SourceDOIOnly
		p.guess(ctx)
		return p.done(), nil
	}

	if !p.useAI {
		return nil, &Error{
			Status:     http.StatusBadRequest,
			Message:    fetchFailureMessage(fetchErr),
			Suggestion: "Try entering the DOI directly, or enable AI assistance to estimate the citation from the URL.",
			Err:        fetchErr,
		}
	}

	if p.guess(ctx) {
		p.source = SourceAI
	} else {
		p.source = SourceURLOnly
	}
	FillMissing(&p.citation, types.NormalizedCitation{Title: siteName, SiteName: siteName})
	return p.done(), nil
}

// guess fills gaps from an AI estimate based on the URL alone.
func (p *pipeline) guess(ctx context.Context) bool {
	if !p.useAI || !p.r.aiAvailable() {
		return false
	}
	g, err := p.r.enhancer.GuessFromURL(ctx, p.pageURL)
	if err != nil {
		p.r.logger.Warn("ai url guess failed", zap.String("stage", "guess"), zap.Error(err))
		return false
	}
	if FillMissing(&p.citation, guessCitation(g)) == 0 {
		return false
	}
	p.aiEnhanced = true
	return true
}

func (p *pipeline) done() *Result {
	p.citation.URL = p.pageURL
	if p.citation.DOI == "" {
		p.citation.DOI = p.doi
	}
	res := p.r.finish(p.citation, p.source, p.aiEnhanced)
	if p.source == SourceURLOnly {
		res.Suggestion = "Enter the title and author manually, or try the DOI if the page has one."
	}
	return res
}

func metadataCitation(md scrape.Metadata) types.NormalizedCitation {
	return types.NormalizedCitation{
		Title:       md.Title,
		Author:      md.Author,
		PublishDate: md.PublishDate,
		SiteName:    md.SiteName,
		Description: md.Description,
	}
}

func guessCitation(g *ai.CitationGuess) types.NormalizedCitation {
	if g == nil {
		return types.NormalizedCitation{}
	}
	return types.NormalizedCitation{
		Title:       g.Title,
		Author:      g.Author,
		PublishDate: g.PublishDate,
		SiteName:    g.SiteName,
		Description: g.Description,
	}
}

// fetchFailureMessage describes why a page could not be fetched.
func fetchFailureMessage(err error) string {
	var apiErr *httputil.APIError
	switch {
	case errors.Is(err, scrape.ErrBlocked):
		return "The site's robots.txt does not allow fetching this page"
	case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusUnauthorized):
		return fmt.Sprintf("The site blocked automated access (HTTP %d)", apiErr.StatusCode)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Could not fetch the page (HTTP %d)", apiErr.StatusCode)
	}
	return "Could not fetch the page"
}
