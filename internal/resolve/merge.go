// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"strings"

	"github.com/pdiddy/citeref/pkg/types"
)

// citationFields returns pointers to the enrichable fields of c. URL and
// AccessDate are owned by the resolver's final step and are not listed.
func citationFields(c *types.NormalizedCitation) []*string {
	return []*string{&c.Title, &c.Author, &c.PublishDate, &c.SiteName, &c.Description, &c.DOI}
}

// FillMissing copies each field of src into dst where dst holds only a
// placeholder. Populated fields of dst are never changed. It returns the
// number of fields filled.
func FillMissing(dst *types.NormalizedCitation, src types.NormalizedCitation) int {
	filled := 0
	to, from := citationFields(dst), citationFields(&src)
	for i := range to {
		v := strings.TrimSpace(*from[i])
		if types.IsPlaceholder(*to[i]) && !types.IsPlaceholder(v) {
			*to[i] = v
			filled++
		}
	}
	return filled
}

// Supersede overwrites dst with every non-placeholder field of src. It is
// reserved for authoritative DOI-based records. Fields src lacks are kept,
// so a known DOI is never cleared.
func Supersede(dst *types.NormalizedCitation, src types.NormalizedCitation) {
	to, from := citationFields(dst), citationFields(&src)
	for i := range to {
		if v := strings.TrimSpace(*from[i]); !types.IsPlaceholder(v) {
			*to[i] = v
		}
	}
}

// workCitation maps an academic record onto citation fields.
func workCitation(w *types.Work) types.NormalizedCitation {
	if w == nil {
		return types.NormalizedCitation{}
	}
	return types.NormalizedCitation{
		Title:       w.Title,
		Author:      strings.Join(w.Authors, ", "),
		PublishDate: w.PublishDate,
		SiteName:    w.Venue,
		Description: w.Abstract,
		DOI:         w.DOI,
	}
}
