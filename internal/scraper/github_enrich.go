package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// GitHubEnricher fills repository fields the Trending HTML does not carry
// (topics, fork count, language) from the REST API.
type GitHubEnricher struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubEnricher authenticates with token. base supplies the timeout and
// transport; it may be nil.
func NewGitHubEnricher(token string, base *http.Client, logger *slog.Logger) *GitHubEnricher {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if base != nil {
		hc.Timeout = base.Timeout
	}
	return &GitHubEnricher{
		client: github.NewClient(hc),
		logger: logger.With("component", "github_enricher"),
	}
}

// SetBaseURL redirects API calls, e.g. to a test server. u must end in "/".
func (e *GitHubEnricher) SetBaseURL(u string) error {
	parsed, err := url.Parse(u)
	if err != nil {
		return err
	}
	e.client.BaseURL = parsed
	return nil
}

// Enrich updates repos in place. Failures are logged and leave the record
// as scraped.
func (e *GitHubEnricher) Enrich(ctx context.Context, repos []Repository) {
	for i := range repos {
		owner, name, ok := strings.Cut(repos[i].Name, "/")
		if !ok {
			continue
		}
		info, _, err := e.client.Repositories.Get(ctx, owner, name)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("repository lookup failed", "repo", repos[i].Name, "error", err)
			continue
		}

		r := &repos[i]
		if len(r.Topics) == 0 && len(info.Topics) > 0 {
			r.Topics = info.Topics
		}
		if r.Forks == 0 {
			r.Forks = info.GetForksCount()
		}
		if r.Stars == 0 {
			r.Stars = info.GetStargazersCount()
		}
		if r.Description == "" {
			r.Description = info.GetDescription()
		}
		if (r.Language == "" || r.Language == "Unknown") && info.GetLanguage() != "" {
			r.Language = info.GetLanguage()
		}
	}
}
