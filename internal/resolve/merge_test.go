// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/citeref/pkg/types"
)

func TestFillMissingNeverOverwrites(t *testing.T) {
	dst := types.NormalizedCitation{Title: "Scraped", Author: types.UnknownAuthor, PublishDate: types.NoDate}
	src := types.NormalizedCitation{Title: "AI Title", Author: "Ada", PublishDate: "2020", SiteName: "Site", DOI: "10.1/x"}

	n := FillMissing(&dst, src)

	assert.Equal(t, 4, n)
	assert.Equal(t, "Scraped", dst.Title)
	assert.Equal(t, "Ada", dst.Author)
	assert.Equal(t, "2020", dst.PublishDate)
	assert.Equal(t, "Site", dst.SiteName)
	assert.Equal(t, "10.1/x", dst.DOI)
}

func TestFillMissingIgnoresPlaceholdersInSource(t *testing.T) {
	dst := types.NormalizedCitation{}
	n := FillMissing(&dst, types.NormalizedCitation{Author: "Unknown", PublishDate: types.NoDate, Title: "  "})
	assert.Equal(t, 0, n)
	assert.Equal(t, types.NormalizedCitation{}, dst)
}

func TestFillMissingSequenceIsMonotonic(t *testing.T) {
	stages := []types.NormalizedCitation{
		{Title: "First", SiteName: "one"},
		{Title: "Second", Author: "B", Description: "d2"},
		{Author: "C", PublishDate: "2001", SiteName: "three"},
	}
	var c types.NormalizedCitation
	var prev types.NormalizedCitation
	for _, s := range stages {
		FillMissing(&c, s)
		for i, f := range citationFields(&prev) {
			if *f != "" {
				assert.Equal(t, *f, *citationFields(&c)[i])
			}
		}
		prev = c
	}
	assert.Equal(t, types.NormalizedCitation{Title: "First", Author: "B", PublishDate: "2001", SiteName: "one", Description: "d2"}, c)
}

func TestSupersede(t *testing.T) {
	dst := types.NormalizedCitation{Title: "Scraped", Author: "web", SiteName: "blog", DOI: "10.1/keep", URL: "https://x"}
	Supersede(&dst, types.NormalizedCitation{Title: "Authoritative", Author: "A. Author", SiteName: ""})

	assert.Equal(t, "Authoritative", dst.Title)
	assert.Equal(t, "A. Author", dst.Author)
	assert.Equal(t, "blog", dst.SiteName)
	assert.Equal(t, "10.1/keep", dst.DOI)
	assert.Equal(t, "https://x", dst.URL)
}

func TestWorkCitation(t *testing.T) {
	c := workCitation(&types.Work{Title: "T", Authors: []string{"A", "B"}, Venue: "V", Abstract: "Abs", DOI: "10.1/y"})
	assert.Equal(t, types.NormalizedCitation{Title: "T", Author: "A, B", SiteName: "V", Description: "Abs", DOI: "10.1/y"}, c)
	assert.Equal(t, types.NormalizedCitation{}, workCitation(nil))
}
