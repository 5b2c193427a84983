package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/retry"
)

// postsQuery asks for featured posts launched after $postedAfter, ordered by
// votes.
const postsQuery = `query Posts($first: Int!, $after: String, $postedAfter: DateTime) {
  posts(order: VOTES, featured: true, postedAfter: $postedAfter, first: $first, after: $after) {
    edges {
      node {
        name
        tagline
        description
        url
        website
        votesCount
        topics(first: 5) { edges { node { name } } }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// pageSize is the number of posts requested per GraphQL call.
const pageSize = 20

// launchWindow bounds the posts connection to the day before the run.
const launchWindow = 24 * time.Hour

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type postsResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node phPost `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type phPost struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Website     string `json:"website"`
	VotesCount  int    `json:"votesCount"`
	Topics      struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

func (p phPost) product() Product {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = strings.TrimSpace(p.Tagline)
	}
	link := p.URL
	if link == "" {
		link = p.Website
	}
	var tags []string
	for _, e := range p.Topics.Edges {
		if e.Node.Name != "" {
			tags = append(tags, e.Node.Name)
		}
	}
	return Product{
		Name:        strings.TrimSpace(p.Name),
		URL:         link,
		Description: desc,
		Tags:        tags,
		Votes:       p.VotesCount,
	}
}

// fromAPI pages through the posts connection until the API reports no more
// pages or PageLimit products have been collected, then keeps the
// MaxProducts most voted.
func (s *ProductHuntScraper) fromAPI(ctx context.Context) []Product {
	var (
		all   []Product
		after string
		page  int
	)
	postedAfter := s.now().UTC().Add(-launchWindow).Format(time.RFC3339)

	for len(all) < s.cfg.PageLimit {
		page++
		first := pageSize
		if remaining := s.cfg.PageLimit - len(all); remaining < first {
			first = remaining
		}
		vars := map[string]any{"first": first, "postedAfter": postedAfter}
		if after != "" {
			vars["after"] = after
		}

		resp, ok := retry.Fetch(ctx, s.api.Retry(), s.logger, fmt.Sprintf("producthunt api page %d", page), func(ctx context.Context) (*postsResponse, error) {
			var out postsResponse
			if err := s.api.PostJSON(ctx, s.apiURL, graphQLRequest{Query: postsQuery, Variables: vars}, &out); err != nil {
				return nil, err
			}
			if len(out.Errors) > 0 && len(out.Data.Posts.Edges) == 0 {
				return nil, retry.Permanent(errors.New("producthunt: graphql: " + out.Errors[0].Message))
			}
			return &out, nil
		})
		if !ok {
			break
		}

		for _, e := range resp.Data.Posts.Edges {
			p := e.Node.product()
			if p.Name == "" {
				s.logger.Warn("skipping post without name")
				continue
			}
			all = append(all, p)
		}

		info := resp.Data.Posts.PageInfo
		if !info.HasNextPage || info.EndCursor == "" || len(resp.Data.Posts.Edges) == 0 {
			break
		}
		after = info.EndCursor
	}

	return topByVotes(all, s.cfg.MaxProducts)
}

// topByVotes sorts by votes, highest first, keeping the original order for
// ties, and truncates to n.
func topByVotes(products []Product, n int) []Product {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Votes > products[j].Votes
	})
	if n > 0 && len(products) > n {
		products = products[:n]
	}
	return products
}
