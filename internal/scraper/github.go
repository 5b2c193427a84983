package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
)

const githubSite = "https://github.com"

var repoHrefRegex = regexp.MustCompile(`^/[^/]+/[^/]+$`)

var githubStrategies = []Strategy{
	CSS("article.Box-row", 1),
	CSS("div.Box-row", 1),
	CSS("article", 1),
	AnchorParents(repoHrefRegex, 0, 1),
}

// GitHubScraper reads the GitHub Trending page.
type GitHubScraper struct {
	client   *httpclient.Client
	baseURL  string
	enricher *GitHubEnricher
	logger   *slog.Logger
}

type GitHubOption func(*GitHubScraper)

// WithGitHubBaseURL points the scraper at another host, e.g. a test server.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(s *GitHubScraper) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithEnricher fills fields the HTML left out through the REST API.
func WithEnricher(e *GitHubEnricher) GitHubOption {
	return func(s *GitHubScraper) { s.enricher = e }
}

func NewGitHubScraper(client *httpclient.Client, logger *slog.Logger, opts ...GitHubOption) *GitHubScraper {
	s := &GitHubScraper{
		client:  client,
		baseURL: githubSite,
		logger:  logger.With("component", "github"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrendingURL builds the listing URL. language "any" or "" means all languages.
func (s *GitHubScraper) TrendingURL(language, since string) string {
	u := s.baseURL + "/trending"
	if language != "" && language != "any" {
		u += "/" + url.PathEscape(language)
	}
	if since == "" {
		since = "daily"
	}
	return u + "?since=" + url.QueryEscape(since)
}

// Trending returns the trending repositories in page order, or nil when the
// page could not be fetched or parsed within the retry budget.
func (s *GitHubScraper) Trending(ctx context.Context, language, since string) []Repository {
	target := s.TrendingURL(language, since)
	s.logger.Info("fetching trending repositories", "url", target)

	repos, ok := retry.Fetch(ctx, s.client.Retry(), s.logger, "github trending", func(ctx context.Context) ([]Repository, error) {
		body, err := s.client.Get(ctx, target)
		if err != nil {
			return nil, err
		}
		repos, err := ParseGitHubTrending(body, s.logger)
		if err != nil {
			return nil, err
		}
		if len(repos) == 0 {
			return nil, fmt.Errorf("github: no repositories parsed: %w", retry.ErrEmpty)
		}
		return repos, nil
	})
	if !ok {
		return nil
	}

	if s.enricher != nil {
		s.enricher.Enrich(ctx, repos)
	}

	s.logger.Info("scraped trending repositories", "count", len(repos))
	return repos
}

// ParseGitHubTrending extracts repositories from a Trending page. Entries
// whose name cannot be determined are skipped.
func ParseGitHubTrending(body []byte, logger *slog.Logger) ([]Repository, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: parse html: %w", err)
	}

	entries, strategy := Locate(doc, githubStrategies)
	if strategy == "" {
		return nil, fmt.Errorf("github: no repository entries found, page layout may have changed: %w", retry.ErrEmpty)
	}
	logger.Debug("located entries", "strategy", strategy, "count", entries.Length())

	return parseEntries(entries, logger, "repository", parseRepository), nil
}

func parseRepository(entry *goquery.Selection) (Repository, bool) {
	name := repoName(entry)
	if name == "" {
		return Repository{}, false
	}

	language := firstText(entry, `[itemprop="programmingLanguage"]`, `span[class*="language"]`)
	if language == "" {
		language = "Unknown"
	}

	return Repository{
		Name:        name,
		URL:         githubSite + "/" + name,
		Description: firstText(entry, "p"),
		Language:    language,
		Stars:       normalize.ParseCount(firstText(entry, `a[href$="/stargazers"]`)),
		Forks:       normalize.ParseCount(firstText(entry, `a[href$="/forks"]`, `a[href$="/network/members"]`)),
		TodayStars:  normalize.ParseCount(firstText(entry, "span.d-inline-block.float-sm-right")),
		Topics:      allText(entry, "a.topic-tag"),
	}, true
}

// repoName resolves "owner/repo" from the entry heading, falling back to the
// first anchor that looks like a repository path.
func repoName(entry *goquery.Selection) string {
	if href := firstAttr(entry, "href", "h2.h3.lh-condensed a", "h2 a"); href != "" {
		if name := repoPath(href); name != "" {
			return name
		}
	}

	var name string
	entry.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if repoHrefRegex.MatchString(href) {
			name = strings.Trim(href, "/")
			return false
		}
		return true
	})
	return name
}

func repoPath(href string) string {
	href = strings.TrimPrefix(href, githubSite)
	href = strings.TrimSpace(href)
	if !repoHrefRegex.MatchString(href) {
		return ""
	}
	return strings.Trim(href, "/")
}
