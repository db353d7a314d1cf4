// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/pkg/types"
)

// LookupByTitle searches CrossRef, then Semantic Scholar, for a title and
// returns the first result with a title and authors. The match is accepted
// on presence alone; the word overlap with the query is logged so operators
// can spot wrong attachments.
func (c *Client) LookupByTitle(ctx context.Context, title string) *types.Work {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	sources := []struct {
		name   string
		search func(context.Context, string) (*types.Work, error)
	}{
		{ProviderCrossRef, c.crossrefSearch},
		{ProviderSemanticScholar, c.semanticSearch},
	}
	for _, s := range sources {
		w, err := s.search(ctx, title)
		if err != nil || !w.Complete() {
			c.miss(s.name, title, err)
			continue
		}
		c.hit(s.name, title)
		c.logger.Info("title match accepted",
			zap.String("source", s.name),
			zap.String("query", title),
			zap.String("matched", w.Title),
			zap.Float64("overlap", TitleOverlap(title, w.Title)),
		)
		return w
	}
	return nil
}

// TitleOverlap returns the Jaccard similarity of the lowercased word sets of
// a and b, ignoring punctuation.
func TitleOverlap(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
