// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeref/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  types.CitationType
		wantValue string
		wantConf  types.Confidence
	}{
		// ISBN.
		{"isbn-13", "9780134685991", types.TypeISBN, "9780134685991", types.ConfidenceHigh},
		{"isbn-13 hyphenated", "978-0-13-468599-1", types.TypeISBN, "9780134685991", types.ConfidenceHigh},
		{"isbn-10 with X", "0-8044-2957-x", types.TypeISBN, "080442957X", types.ConfidenceHigh},
		{"isbn-10 spaced", "0 306 40615 2", types.TypeISBN, "0306406152", types.ConfidenceHigh},

		// DOI.
		{"bare doi", "10.1038/s41586-020-2649-2", types.TypeDOI, "10.1038/s41586-020-2649-2", types.ConfidenceHigh},
		{"doi scheme", "doi:10.1000/xyz123", types.TypeDOI, "10.1000/xyz123", types.ConfidenceHigh},
		{"doi.org url", "https://doi.org/10.1038/nature12373", types.TypeDOI, "10.1038/nature12373", types.ConfidenceHigh},
		{"dx.doi.org url", "http://dx.doi.org/10.1145/3292500.3330701", types.TypeDOI, "10.1145/3292500.3330701", types.ConfidenceHigh},

		// YouTube.
		{"short link", "https://youtu.be/dQw4w9WgXcQ", types.TypeYouTube, "dQw4w9WgXcQ", types.ConfidenceHigh},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", types.TypeYouTube, "dQw4w9WgXcQ", types.ConfidenceHigh},
		{"watch with leading params", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", types.TypeYouTube, "dQw4w9WgXcQ", types.ConfidenceHigh},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", types.TypeYouTube, "dQw4w9WgXcQ", types.ConfidenceHigh},
		{"shorts", "https://youtube.com/shorts/abcdefghijk", types.TypeYouTube, "abcdefghijk", types.ConfidenceHigh},

		// PMID.
		{"bare pmid", "31452104", types.TypePMID, "31452104", types.ConfidenceMedium},
		{"pmid prefix", "PMID: 31452104", types.TypePMID, "31452104", types.ConfidenceMedium},
		{"pubmed url", "https://pubmed.ncbi.nlm.nih.gov/31452104/", types.TypePMID, "31452104", types.ConfidenceMedium},

		// URL.
		{"https url", "https://example.com/blog/post", types.TypeURL, "https://example.com/blog/post", types.ConfidenceHigh},
		{"bare host", "example.com/page", types.TypeURL, "https://example.com/page", types.ConfidenceHigh},

		// Tentative ISBN and unknown.
		{"eleven digits", "12345678901", types.TypeISBN, "12345678901", types.ConfidenceMedium},
		{"gibberish", "gibberish not a url", types.TypeUnknown, "gibberish not a url", types.ConfidenceLow},
		{"empty", "", types.TypeUnknown, "", types.ConfidenceLow},
		{"short number", "12345", types.TypeUnknown, "12345", types.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantConf, got.Confidence)
		})
	}
}

func TestClassifySuggestions(t *testing.T) {
	assert.Empty(t, Classify("9780134685991").Suggestion)
	assert.NotEmpty(t, Classify("31452104").Suggestion)
	assert.NotEmpty(t, Classify("12345678901").Suggestion)
	assert.Contains(t, Classify("???").Suggestion, "DOI")
}

func TestClassifyISBNBeforeURL(t *testing.T) {
	const in = "9780134685991"
	_, err := url.Parse(in)
	require.NoError(t, err)
	assert.Equal(t, types.TypeISBN, Classify(in).Type)
}

func TestYouTubeID(t *testing.T) {
	id, ok := YouTubeID("https://m.youtube.com/watch?v=abc_DEF-123&t=42s")
	assert.True(t, ok)
	assert.Equal(t, "abc_DEF-123", id)

	_, ok = YouTubeID("https://vimeo.com/123456")
	assert.False(t, ok)
}

func TestNormalizeURL(t *testing.T) {
	got, ok := NormalizeURL("  www.example.org/a  ")
	assert.True(t, ok)
	assert.Equal(t, "https://www.example.org/a", got)

	_, ok = NormalizeURL("localhost")
	assert.False(t, ok)
}

func TestEndpoints(t *testing.T) {
	eps := Endpoints()
	assert.Equal(t, PathYouTube, eps[types.TypeYouTube])
	assert.Equal(t, PathExtract, eps[types.TypeDOI])
	_, ok := eps[types.TypeUnknown]
	assert.False(t, ok)
}
