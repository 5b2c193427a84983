package scraper

import (
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestLocateFirstSufficientStrategyWins(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="card">one</div>
		<div class="card">two</div>
		<div class="card">three</div>
		<span class="x">a</span><span class="x">b</span><span class="x">c</span>
		<span class="x">d</span><span class="x">e</span>
	</body></html>`)

	sel, name := Locate(doc, []Strategy{
		CSS("div.missing", 1),
		CSS("div.card", 5),
		CSS("span.x", 5),
		CSS("div.card", 1),
	})
	assert.Equal(t, "span.x", name)
	assert.Equal(t, 5, sel.Length())
}

func TestLocateNothingMatches(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>nothing here</p></body></html>`)

	sel, name := Locate(doc, []Strategy{CSS("article", 1), CSS("div.row", 5)})
	assert.Equal(t, "", name)
	assert.Equal(t, 0, sel.Length())
}

func TestAnchorParents(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div id="p1"><span><a href="/posts/alpha">Alpha</a></span><a href="/posts/alpha#c">c</a></div>
		<article id="p2"><a href="/posts/beta">Beta</a></article>
		<div id="p3"><a href="/about">About</a></div>
		<div id="p4"><a href="/posts/gamma">Gamma</a></div>
	</body></html>`)

	sel := AnchorParents(regexp.MustCompile(`/posts/`), 0, 1).Find(doc)
	require.NotNil(t, sel)

	var ids []string
	sel.Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		ids = append(ids, id)
	})
	assert.Equal(t, []string{"p1", "p2", "p4"}, ids)

	limited := AnchorParents(regexp.MustCompile(`/posts/`), 2, 1).Find(doc)
	assert.Equal(t, 1, limited.Length(), "first two anchors share a container")
}

func TestFirstTextCascade(t *testing.T) {
	doc := mustDoc(t, `<div><h2>  </h2><h3>
		Product   Name </h3><a class="tag" href="#">AI</a><a class="tag" href="#"> </a><a class="tag" href="#">Dev</a></div>`)
	entry := doc.Find("div").First()

	assert.Equal(t, "Product Name", firstText(entry, "h2", "h3"))
	assert.Equal(t, "", firstText(entry, "h1"))
	assert.Equal(t, []string{"AI", "Dev"}, allText(entry, "a.tag"))
	assert.Equal(t, "#", firstAttr(entry, "href", "a.missing", "a.tag"))
}

func TestParseEntriesSkipsPanickingEntry(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="e">alpha</div>
		<div class="e">boom</div>
		<div class="e"></div>
		<div class="e">gamma</div>
	</body></html>`)

	names := parseEntries(doc.Find("div.e"), testLogger, "test", func(entry *goquery.Selection) (string, bool) {
		text := entry.Text()
		if text == "boom" {
			var m map[string]int
			m["x"]++
		}
		return text, text != ""
	})
	assert.Equal(t, []string{"alpha", "gamma"}, names)
}
