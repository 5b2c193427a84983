package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/daily-hot/internal/config"
)

const articleBody = "Go modules make dependency management reproducible across machines and teams. " +
	"This article walks through versioning, minimal version selection and how the go.sum file protects builds."

func articlePage() string {
	return `<html><head><title>Modules</title><script>var tracking = 1;</script></head><body>
<nav>Home | About</nav>
<article><h1>Modules</h1><p>` + articleBody + `</p><p>Subscribe to our weekly newsletter</p></article>
<footer>Copyright Example Inc 2024</footer>
</body></html>`
}

func newHNServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/v0/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3,4,5,6]`))
	})
	mux.HandleFunc("/v0/item/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/v0/item/") {
		case "1.json":
			fmt.Fprintf(w, `{"id":1,"type":"story","title":"Modules explained","url":"%s/article","score":10,"descendants":4,"time":1700000000,"by":"gopher"}`, srv.URL)
		case "2.json":
			w.Write([]byte(`{"id":2,"type":"comment","text":"nice"}`))
		case "3.json":
			w.Write([]byte(`{"id":3,"type":"story","title":"Ask HN: Favourite editor?","url":"https://news.ycombinator.com/item?id=3","score":50}`))
		case "4.json":
			w.Write([]byte(`{"id":4,"type":"story","title":"","score":99}`))
		case "5.json":
			w.Write([]byte(`null`))
		case "6.json":
			w.Write([]byte(`{"id":6,"type":"story","title":"Show HN: no link","score":30}`))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage()))
	})
	srv = httptest.NewServer(mux)
	return srv
}

func TestHackerNewsTop(t *testing.T) {
	srv := newHNServer(t)
	defer srv.Close()

	s := NewHackerNewsScraper(newTestClient(), config.HackerNewsConfig{Candidates: 15, TopN: 2}, testLogger,
		WithHackerNewsAPIURL(srv.URL+"/v0"))
	stories := s.Top(context.Background())

	require.Len(t, stories, 2)
	assert.Equal(t, 3, stories[0].ID)
	assert.Equal(t, "", stories[0].Content, "discussion pages are not scraped")
	assert.Equal(t, 6, stories[1].ID)
}

func TestHackerNewsStoryFields(t *testing.T) {
	srv := newHNServer(t)
	defer srv.Close()

	s := NewHackerNewsScraper(newTestClient(), config.HackerNewsConfig{}, testLogger,
		WithHackerNewsAPIURL(srv.URL+"/v0"))
	stories := s.Top(context.Background())
	require.Len(t, stories, 3)

	var modules Story
	for _, st := range stories {
		if st.ID == 1 {
			modules = st
		}
	}
	assert.Equal(t, "Modules explained", modules.Title)
	assert.Equal(t, 4, modules.Comments)
	assert.Equal(t, "gopher", modules.Author)
	assert.Equal(t, int64(1700000000), modules.Time.Unix())
	assert.Contains(t, modules.Content, "minimal version selection")
	assert.NotContains(t, modules.Content, "tracking")
}

func TestHackerNewsEmptyIDs(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewHackerNewsScraper(newTestClient(), config.HackerNewsConfig{}, testLogger, WithHackerNewsAPIURL(srv.URL))
	assert.Empty(t, s.Top(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestExtractContentCascade(t *testing.T) {
	u, _ := url.Parse("https://example.com/post")
	text := ExtractContent([]byte(articlePage()), u)

	assert.Contains(t, text, "reproducible across machines")
	assert.NotContains(t, text, "var tracking")
	assert.NotContains(t, strings.ToLower(text), "newsletter")
}

func TestExtractContentBodyFallback(t *testing.T) {
	long := strings.Repeat("plain words without structure ", 8)
	page := `<html><body><div class="content">tiny</div><div>` + long + `</div></body></html>`

	text := ExtractContent([]byte(page), nil)
	assert.Contains(t, text, "plain words without structure")
}

func TestArticleExtractorTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage()))
	}))
	defer srv.Close()

	e := NewArticleExtractor(newTestClient(), 50, testLogger)
	text := e.Extract(context.Background(), srv.URL)

	assert.True(t, strings.HasSuffix(text, "..."))
	assert.Equal(t, 53, utf8.RuneCountInString(text))
}

func TestArticleExtractorFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewArticleExtractor(newTestClient(), 0, testLogger)
	assert.Equal(t, "", e.Extract(context.Background(), srv.URL))
}

func TestCleanContent(t *testing.T) {
	in := "Main   text.\n\nShare this article  Advertisement More text. Copyright 2024 Cookie Policy"
	assert.Equal(t, "Main text. More text.", CleanContent(in))
}
