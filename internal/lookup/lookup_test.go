// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// recorder remembers request paths so tests can assert call order.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, p)
}

func (r *recorder) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// newTestClient points every base URL at one httptest server and restores
// the originals when the test ends.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	bases := map[*string]string{
		&semanticAPIBase:   ts.URL + "/s2/paper/",
		&openAlexAPIBase:   ts.URL + "/openalex/works",
		&crossrefAPIBase:   ts.URL + "/crossref/works",
		&arxivAPIBase:      ts.URL + "/arxiv/query",
		&pubmedSummaryBase: ts.URL + "/pubmed/esummary",
		&openLibraryBase:   ts.URL + "/openlibrary/books",
		&googleBooksBase:   ts.URL + "/googlebooks/volumes",
		&youtubeAPIBase:    ts.URL + "/youtube/videos",
		&oembedBase:        ts.URL + "/oembed",
	}
	for ptr, v := range bases {
		old := *ptr
		*ptr = v
		t.Cleanup(func() { *ptr = old })
	}

	c := New(types.HTTPConfig{MaxRetries: -1}, types.LookupConfig{
		SemanticScholarAPIKey: "s2-key",
		Mailto:                "ops@example.com",
		IEEEMaxGuesses:        10,
		IEEEGuessRate:         1000,
	}, nil)
	c.HTTP = ts.Client()
	c.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return c, rec
}

const sampleSemanticPaper = `{
  "paperId": "abc",
  "title": "Deep Residual Learning",
  "year": 2016,
  "venue": "CVPR",
  "publicationDate": "2016-06-27",
  "authors": [{"authorId": "1", "name": "Kaiming He"}, {"authorId": "2", "name": "Xiangyu Zhang"}],
  "externalIds": {"DOI": "10.1109/CVPR.2016.90"}
}`

const sampleOpenAlexNoAuthors = `{
  "id": "https://openalex.org/W1",
  "title": "Some Title",
  "doi": "https://doi.org/10.1000/xyz",
  "publication_year": 2020,
  "authorships": []
}`

const sampleCrossrefWork = `{
  "status": "ok",
  "message": {
    "DOI": "10.1000/xyz",
    "URL": "https://doi.org/10.1000/xyz",
    "title": ["A CrossRef Title"],
    "container-title": ["Journal of Tests"],
    "publisher": "Test Press",
    "abstract": "<jats:p>Short abstract.</jats:p>",
    "author": [{"given": "Ada", "family": "Lovelace"}, {"name": "The Consortium"}],
    "issued": {"date-parts": [[2020, 3]]}
  }
}`

func TestLookupByDOISemanticScholarFirst(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/s2/paper/DOI:10.1109/CVPR.2016.90") {
			assert.Equal(t, "s2-key", r.Header.Get("x-api-key"))
			w.Write([]byte(sampleSemanticPaper))
			return
		}
		http.NotFound(w, r)
	})

	got := c.LookupByDOI(t.Context(), "10.1109/CVPR.2016.90")
	require.NotNil(t, got)
	assert.Equal(t, ProviderSemanticScholar, got.Provider)
	assert.Equal(t, "Deep Residual Learning", got.Title)
	assert.Equal(t, []string{"Kaiming He", "Xiangyu Zhang"}, got.Authors)
	assert.Equal(t, "2016-06-27", got.PublishDate)
	assert.Equal(t, "10.1109/CVPR.2016.90", got.DOI)
	assert.Zero(t, rec.count("/openalex"))
	assert.Zero(t, rec.count("/crossref"))
}

func TestLookupByDOIFallsThroughToCrossRef(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/s2/"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(r.URL.Path, "/openalex/"):
			w.Write([]byte(sampleOpenAlexNoAuthors))
		case r.URL.Path == "/crossref/works/10.1000/xyz":
			assert.Equal(t, "ops@example.com", r.URL.Query().Get("mailto"))
			w.Write([]byte(sampleCrossrefWork))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupByDOI(t.Context(), "10.1000/xyz")
	require.NotNil(t, got)
	assert.Equal(t, ProviderCrossRef, got.Provider)
	assert.Equal(t, "A CrossRef Title", got.Title)
	assert.Equal(t, []string{"Ada Lovelace", "The Consortium"}, got.Authors)
	assert.Equal(t, "2020-03", got.PublishDate)
	assert.Equal(t, "Journal of Tests", got.Venue)
	assert.Equal(t, "Short abstract.", got.Abstract)
	require.Len(t, rec.paths, 3)
	assert.Equal(t, "/crossref/works/10.1000/xyz", rec.paths[2])
	assert.Equal(t, 1, rec.count("/s2/"))
	assert.Equal(t, 1, rec.count("/openalex/"))
}

func TestLookupByDOIEscapesPath(t *testing.T) {
	const doi = "10.1000/a#b?c%d"
	var (
		mu       sync.Mutex
		rawPaths []string
	)
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		rawPaths = append(rawPaths, r.URL.EscapedPath())
		mu.Unlock()
		if r.URL.Path == "/crossref/works/"+doi {
			w.Write([]byte(sampleCrossrefWork))
			return
		}
		http.NotFound(w, r)
	})

	got := c.LookupByDOI(t.Context(), doi)

	require.NotNil(t, got)
	assert.Equal(t, "A CrossRef Title", got.Title)
	assert.Equal(t, 1, rec.count("/s2/paper/DOI:"+doi))
	assert.Equal(t, 1, rec.count("/openalex/works/https://doi.org/"+doi))
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, rawPaths, "/crossref/works/10.1000/a%23b%3Fc%25d")
}

func TestLookupByDOIAllMiss(t *testing.T) {
	c, _ := newTestClient(t, http.NotFound)
	assert.Nil(t, c.LookupByDOI(t.Context(), "10.1000/missing"))
	assert.Nil(t, c.LookupByDOI(t.Context(), "  "))
}

const sampleArxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v5</id>
    <title>Attention Is All
      You Need</title>
    <summary>The dominant sequence transduction models...</summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
</feed>`

func TestLookupByDOIArxivFallback(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/arxiv/query" {
			assert.Equal(t, "1706.03762", r.URL.Query().Get("id_list"))
			w.Write([]byte(sampleArxivFeed))
			return
		}
		http.NotFound(w, r)
	})

	got := c.LookupByDOI(t.Context(), "10.48550/arXiv.1706.03762")
	require.NotNil(t, got)
	assert.Equal(t, ProviderArxiv, got.Provider)
	assert.Equal(t, "Attention Is All You Need", got.Title)
	assert.Equal(t, "2017-06-12", got.PublishDate)
	assert.Len(t, got.Authors, 2)
	assert.Equal(t, 1, rec.count("/arxiv/"))
}

func TestLookupIEEEDocumentCrossRefMember(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/crossref/works" {
			assert.Equal(t, "member:263", r.URL.Query().Get("filter"))
			assert.Equal(t, "9098765", r.URL.Query().Get("query.bibliographic"))
			w.Write([]byte(`{"message":{"items":[
				{"DOI":"10.1109/OTHER.2020.1111111","title":["Wrong"]},
				{"DOI":"10.1109/ACCESS.2020.9098765","title":["Right"],"author":[{"given":"A","family":"B"}]}
			]}}`))
			return
		}
		http.NotFound(w, r)
	})

	got := c.LookupIEEEDocument(t.Context(), "9098765")
	require.True(t, got.Found())
	assert.Equal(t, "10.1109/ACCESS.2020.9098765", got.DOI)
	assert.Equal(t, "Right", got.Work.Title)
	assert.Equal(t, "ieee", got.Source)
	assert.Zero(t, rec.count("/openalex/"))
}

func TestLookupIEEEDocumentOpenAlex(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crossref/works":
			w.Write([]byte(`{"message":{"items":[]}}`))
		case "/openalex/works":
			assert.Equal(t, "9098765", r.URL.Query().Get("search"))
			w.Write([]byte(`{"results":[
				{"doi":"https://doi.org/10.5555/not-ieee.9098765","title":"Other"},
				{"doi":"https://doi.org/10.1109/tpami.2021.3050000","title":"Via landing page",
				 "primary_location":{"landing_page_url":"https://ieeexplore.ieee.org/document/9098765/"}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupIEEEDocument(t.Context(), "9098765")
	require.True(t, got.Found())
	assert.Equal(t, "10.1109/tpami.2021.3050000", got.DOI)
	assert.Equal(t, "Via landing page", got.Work.Title)
}

func TestLookupIEEEDocumentBruteForce(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crossref/works":
			w.Write([]byte(`{"message":{"items":[]}}`))
		case "/openalex/works":
			w.Write([]byte(`{"results":[]}`))
		case "/crossref/works/10.1109/TPAMI.2023.9098765":
			w.Write([]byte(`{"message":{"DOI":"10.1109/TPAMI.2023.9098765","title":["Guessed"]}}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupIEEEDocument(t.Context(), "9098765")
	require.True(t, got.Found())
	assert.Equal(t, "10.1109/TPAMI.2023.9098765", got.DOI)
	assert.Equal(t, "Guessed", got.Work.Title)
}

func TestLookupIEEEBudgetIsPerCall(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crossref/works":
			w.Write([]byte(`{"message":{"items":[]}}`))
		case "/openalex/works":
			w.Write([]byte(`{"results":[]}`))
		default:
			http.NotFound(w, r)
		}
	})
	c.IEEEMaxGuesses = 1
	c.IEEEGuessRate = 1

	start := time.Now()
	c.LookupIEEEDocument(t.Context(), "111")
	c.LookupIEEEDocument(t.Context(), "222")

	// A shared one-per-second budget would hold the second guess for a second.
	assert.Less(t, time.Since(start), 700*time.Millisecond)
	assert.Equal(t, 4, rec.count("/crossref/"))
}

func TestLookupIEEEDocumentUnresolved(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crossref/works":
			w.Write([]byte(`{"message":{"items":[]}}`))
		case "/openalex/works":
			w.Write([]byte(`{"results":[]}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupIEEEDocument(t.Context(), "9098765")
	assert.False(t, got.Found())
	assert.Empty(t, got.DOI)
	assert.Nil(t, got.Work)
	// One member search plus the bounded guesses.
	assert.Equal(t, 1+c.IEEEMaxGuesses, rec.count("/crossref/"))
}

func TestIEEECandidates(t *testing.T) {
	got := ieeeCandidates("123", 2024, 7)
	require.Len(t, got, 7)
	assert.Equal(t, "10.1109/ACCESS.2024.123", got[0])
	assert.Equal(t, "10.1109/ACCESS.2020.123", got[4])
	assert.Equal(t, "10.1109/TPAMI.2024.123", got[5])

	all := ieeeCandidates("123", 2024, 1000)
	assert.Len(t, all, len(ieeeGuessPrefixes)*ieeeGuessYears)
}

const samplePubMed = `{
  "header": {"type": "esummary"},
  "result": {
    "uids": ["31452104"],
    "31452104": {
      "uid": "31452104",
      "pubdate": "2019 Aug 27",
      "source": "Nat Methods",
      "fulljournalname": "Nature methods",
      "title": "A reproducible pipeline.",
      "authors": [{"name": "Smith J", "authtype": "Author"}, {"name": "Lab Group", "authtype": "CollectiveName"}],
      "articleids": [{"idtype": "pubmed", "value": "31452104"}, {"idtype": "doi", "value": "10.1038/s41592-019-0000-0"}]
    }
  }
}`

func TestLookupPMID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		assert.Equal(t, "json", r.URL.Query().Get("retmode"))
		w.Write([]byte(samplePubMed))
	})

	got := c.LookupPMID(t.Context(), "31452104")
	require.True(t, got.Found())
	assert.Equal(t, "10.1038/s41592-019-0000-0", got.DOI)
	assert.Equal(t, "pubmed", got.Source)
	assert.Equal(t, "A reproducible pipeline", got.Work.Title)
	assert.Equal(t, []string{"Smith J"}, got.Work.Authors)
	assert.Equal(t, "2019-08-27", got.Work.PublishDate)
	assert.Equal(t, "Nature methods", got.Work.Venue)
}

func TestLookupPMIDMissing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"uids":[],"99999999":{"uid":"99999999","error":"cannot get document summary"}}}`))
	})

	assert.False(t, c.LookupPMID(t.Context(), "99999999").Found())
	assert.False(t, c.LookupPMID(t.Context(), "12345678").Found())
}

func TestPubmedDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2019 Aug 27", "2019-08-27"},
		{"2019 Aug", "2019-08"},
		{"2019", "2019"},
		{"2019 Spring", "2019"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pubmedDate(tt.in), tt.in)
	}
}

func TestLookupPII(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alternative-id:S0140673620301835", r.URL.Query().Get("filter"))
		w.Write([]byte(`{"message":{"items":[{"DOI":"10.1016/S0140-6736(20)30183-5","title":["Clinical features"],"author":[{"given":"C","family":"Huang"}]}]}}`))
	})

	got := c.LookupPII(t.Context(), "S0140673620301835")
	require.True(t, got.Found())
	assert.Equal(t, "10.1016/S0140-6736(20)30183-5", got.DOI)
	assert.Equal(t, "sciencedirect", got.Source)
}

func TestLookupByTitle(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crossref/works":
			assert.Equal(t, "Deep Residual Learning", r.URL.Query().Get("query.bibliographic"))
			w.Write([]byte(`{"message":{"items":[]}}`))
		case "/s2/paper/search":
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"total":1,"data":[` + sampleSemanticPaper + `]}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupByTitle(t.Context(), "Deep Residual Learning")
	require.NotNil(t, got)
	assert.Equal(t, "10.1109/CVPR.2016.90", got.DOI)
	assert.Equal(t, 1, rec.count("/crossref/"))

	assert.Nil(t, c.LookupByTitle(t.Context(), ""))
}

func TestTitleOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, TitleOverlap("Deep Residual Learning", "deep residual learning!"), 1e-9)
	assert.InDelta(t, 0.5, TitleOverlap("a b", "a b c d"), 1e-9)
	assert.Zero(t, TitleOverlap("", "x"))
}

func TestLookupISBN(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openlibrary/books":
			assert.Equal(t, "ISBN:9780134685991", r.URL.Query().Get("bibkeys"))
			w.Write([]byte(`{}`))
		case "/googlebooks/volumes":
			assert.Equal(t, "isbn:9780134685991", r.URL.Query().Get("q"))
			w.Write([]byte(`{"items":[{"volumeInfo":{"title":"Effective Java","authors":["Joshua Bloch"],"publisher":"Addison-Wesley","publishedDate":"2018"}}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := c.LookupISBN(t.Context(), "9780134685991")
	require.NotNil(t, got)
	assert.Equal(t, ProviderGoogleBooks, got.Provider)
	assert.Equal(t, "Effective Java", got.Title)
	assert.Equal(t, "Addison-Wesley", got.Venue)
	assert.Equal(t, 1, rec.count("/openlibrary/"))
}

func TestLookupISBNOpenLibrary(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ISBN:0306406152":{"title":"Chemistry","subtitle":"An Introduction","publish_date":"1976","authors":[{"name":"A. Author"}],"publishers":[{"name":"Plenum"}]}}`))
	})

	got := c.LookupISBN(t.Context(), "0306406152")
	require.NotNil(t, got)
	assert.Equal(t, "Chemistry: An Introduction", got.Title)
	assert.Equal(t, "Plenum", got.Venue)
	assert.Zero(t, rec.count("/googlebooks/"))
}

const sampleYouTube = `{"items":[{
  "snippet": {
    "title": "Never Gonna Give You Up",
    "channelTitle": "Rick Astley",
    "channelId": "UCuAXFkgsw1L7xaCfnd5JJOw",
    "publishedAt": "2009-10-25T06:57:33Z",
    "description": "The official video.",
    "thumbnails": {"default": {"url": "https://i.ytimg.com/d.jpg"}, "high": {"url": "https://i.ytimg.com/h.jpg"}}
  },
  "contentDetails": {"duration": "PT3M33S"}
}]}`

func TestLookupYouTube(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yt-key", r.URL.Query().Get("key"))
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		w.Write([]byte(sampleYouTube))
	})

	got := c.LookupYouTube(t.Context(), "dQw4w9WgXcQ", "yt-key")
	require.NotNil(t, got)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
	assert.Equal(t, "2009", got.PublishYear)
	assert.Equal(t, "October", got.PublishMonth)
	assert.Equal(t, "25", got.PublishDay)
	assert.Equal(t, "3:33", got.DurationFormatted)
	assert.Equal(t, "https://i.ytimg.com/h.jpg", got.ThumbnailURL)
	assert.Equal(t, "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw", got.ChannelURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", got.URL)
}

func TestLookupYouTubeWithoutKey(t *testing.T) {
	c, rec := newTestClient(t, http.NotFound)
	assert.Nil(t, c.LookupYouTube(t.Context(), "dQw4w9WgXcQ", ""))
	assert.Empty(t, rec.paths)
}

func TestOEmbed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", r.URL.Query().Get("url"))
		w.Write([]byte(`{"title":"Never Gonna Give You Up","author_name":"Rick Astley","author_url":"https://www.youtube.com/@RickAstleyYT","thumbnail_url":"https://i.ytimg.com/hq.jpg"}`))
	})

	got := c.OEmbed(t.Context(), "dQw4w9WgXcQ")
	require.NotNil(t, got)
	assert.Equal(t, types.NoDate, got.PublishYear)
	assert.Empty(t, got.PublishMonth)
	assert.Equal(t, "Rick Astley", got.ChannelTitle)
	assert.Equal(t, "https://www.youtube.com/@RickAstleyYT", got.ChannelURL)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PT3M33S", "3:33"},
		{"PT45S", "0:45"},
		{"PT1H2M3S", "1:02:03"},
		{"P1DT1H", "25:00:00"},
		{"PT10M", "10:00"},
		{"garbage", ""},
		{"P", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in)
	}
}

func TestReconstructAbstract(t *testing.T) {
	got := reconstructAbstract(map[string][]int{"world": {1}, "hello": {0, 2}})
	assert.Equal(t, "hello world hello", got)
	assert.Empty(t, reconstructAbstract(nil))
}
