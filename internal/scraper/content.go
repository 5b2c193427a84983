package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/normalize"
)

// minContentLength is the shortest extraction accepted before trying the
// next strategy.
const minContentLength = 100

var contentSelectors = []string{
	"article",
	".post-content",
	".entry-content",
	".content",
	".article-content",
	"main",
	".main-content",
	`[role="main"]`,
}

var boilerplatePatterns = func() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range []string{
		`Subscribe to.*?newsletter`,
		`Follow us on.*?social media`,
		`Share this article`,
		`Related articles`,
		`Advertisements?`,
		`Cookie policy`,
		`Privacy policy`,
		`Terms of service`,
		`All rights reserved`,
		`Copyright.*?\d{4}`,
	} {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}()

// ArticleExtractor fetches a story's linked page and returns its readable
// text.
type ArticleExtractor struct {
	client *httpclient.Client
	limit  int
	logger *slog.Logger
}

func NewArticleExtractor(client *httpclient.Client, limit int, logger *slog.Logger) *ArticleExtractor {
	if limit <= 0 {
		limit = 5000
	}
	return &ArticleExtractor{
		client: client,
		limit:  limit,
		logger: logger.With("component", "article_extractor"),
	}
}

// Extract returns the cleaned article text for rawURL, or "" when the page is
// a Hacker News discussion or cannot be fetched. Article pages get a single
// attempt.
func (e *ArticleExtractor) Extract(ctx context.Context, rawURL string) string {
	if strings.Contains(rawURL, "news.ycombinator.com") {
		return ""
	}
	body, err := e.client.Get(ctx, rawURL)
	if err != nil {
		e.logger.Warn("article fetch failed", "url", rawURL, "error", err)
		return ""
	}
	pageURL, _ := url.Parse(rawURL)
	return normalize.TruncateRunes(ExtractContent(body, pageURL), e.limit, "...")
}

// ExtractContent picks the main text out of an HTML page: readability first,
// then a cascade of content selectors, then the whole body.
func ExtractContent(body []byte, pageURL *url.URL) string {
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		if text := CleanContent(article.TextContent); utf8.RuneCountInString(text) >= minContentLength {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var content string
	for _, sel := range contentSelectors {
		found := doc.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		content = spacedText(found)
		if utf8.RuneCountInString(content) > minContentLength {
			break
		}
	}
	if utf8.RuneCountInString(content) < minContentLength {
		if bodyText := spacedText(doc.Find("body").First()); bodyText != "" {
			content = bodyText
		}
	}
	return CleanContent(content)
}

// spacedText joins the text nodes under sel with spaces so words from
// adjacent elements do not run together.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// CleanContent collapses whitespace and strips common page furniture such as
// newsletter prompts and copyright lines.
func CleanContent(s string) string {
	s = normalize.CollapseSpace(s)
	for _, re := range boilerplatePatterns {
		s = re.ReplaceAllString(s, "")
	}
	return normalize.CollapseSpace(s)
}
