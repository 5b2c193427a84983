package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
)

const (
	productHuntSite     = "https://www.producthunt.com"
	productHuntAPI      = "https://api.producthunt.com/v2/api/graphql"
	productHuntTokenURL = "https://api.producthunt.com/v2/oauth/token"
)

var postHrefRegex = regexp.MustCompile(`/posts/`)

var productHuntStrategies = func() []Strategy {
	var s []Strategy
	for _, sel := range []string{
		`div[data-test="post-item"]`,
		`article[data-test="post-item"]`,
		`div[class*="PostItem"]`,
		`div[class*="post-item"]`,
		`div[class*="ProductCard"]`,
		`div[class*="product-card"]`,
		`article[class*="PostItem"]`,
		`article[class*="post-item"]`,
		`div[class*="FeedItem"]`,
		`div[class*="feed-item"]`,
	} {
		s = append(s, CSS(sel, 1))
	}
	// A single match on a generic pattern is usually a layout div.
	for _, sel := range []string{
		`div[class*="post"]`,
		`div[class*="product"]`,
		`article`,
		`div[class*="item"]`,
		`div[class*="card"]`,
	} {
		s = append(s, CSS(sel, 5))
	}
	return append(s, AnchorParents(postHrefRegex, 20, 1))
}()

// ProductHuntScraper returns the day's top products. It prefers the GraphQL
// API when credentials are configured and falls back to the public homepage.
type ProductHuntScraper struct {
	client  *httpclient.Client
	api     *httpclient.Client
	cfg     config.ProductHuntConfig
	siteURL string
	apiURL  string
	now     func() time.Time
	logger  *slog.Logger
}

type ProductHuntOption func(*ProductHuntScraper)

func WithProductHuntSiteURL(u string) ProductHuntOption {
	return func(s *ProductHuntScraper) { s.siteURL = strings.TrimRight(u, "/") }
}

func WithProductHuntAPIURL(u string) ProductHuntOption {
	return func(s *ProductHuntScraper) { s.apiURL = u }
}

// WithProductHuntAPIClient overrides the authenticated client built from the
// credentials.
func WithProductHuntAPIClient(c *httpclient.Client) ProductHuntOption {
	return func(s *ProductHuntScraper) { s.api = c }
}

func NewProductHuntScraper(client *httpclient.Client, cfg config.ProductHuntConfig, logger *slog.Logger, opts ...ProductHuntOption) *ProductHuntScraper {
	if cfg.MaxProducts <= 0 {
		cfg.MaxProducts = 10
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 30
	}
	s := &ProductHuntScraper{
		client:  client,
		cfg:     cfg,
		siteURL: productHuntSite,
		apiURL:  productHuntAPI,
		now:     time.Now,
		logger:  logger.With("component", "producthunt"),
	}
	if hc := apiHTTPClient(cfg, client.HTTP().Timeout); hc != nil {
		s.api = client.Derive(hc)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// apiHTTPClient returns an oauth2 client for whichever credentials are set,
// or nil when there are none.
func apiHTTPClient(cfg config.ProductHuntConfig, timeout time.Duration) *http.Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	switch {
	case cfg.Token != "":
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	case cfg.ClientID != "" && cfg.ClientSecret != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     productHuntTokenURL,
			Scopes:       []string{"public"},
		}
		return cc.Client(ctx)
	default:
		return nil
	}
}

// Trending returns at most MaxProducts products. The order of preference is
// API, homepage, then the demo dataset when DemoFallback is set.
func (s *ProductHuntScraper) Trending(ctx context.Context) []Product {
	if s.api != nil {
		if products := s.fromAPI(ctx); len(products) > 0 {
			s.logger.Info("fetched products from api", "count", len(products))
			return products
		}
		s.logger.Warn("api returned no products, falling back to homepage")
	}

	if products := s.fromHTML(ctx); len(products) > 0 {
		s.logger.Info("scraped products from homepage", "count", len(products))
		return products
	}

	if s.cfg.DemoFallback {
		s.logger.Warn("no products available, using demo dataset")
		return DemoProducts()
	}
	s.logger.Error("no products available")
	return nil
}

func (s *ProductHuntScraper) fromHTML(ctx context.Context) []Product {
	products, _ := retry.Fetch(ctx, s.client.Retry(), s.logger, "producthunt homepage", func(ctx context.Context) ([]Product, error) {
		body, err := s.client.Get(ctx, s.siteURL)
		if err != nil {
			return nil, err
		}
		products, err := ParseProductHunt(body, s.siteURL, s.cfg.MaxProducts, s.logger)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return nil, fmt.Errorf("producthunt: no products parsed: %w", retry.ErrEmpty)
		}
		return products, nil
	})
	return products
}

// ParseProductHunt extracts up to limit products from the homepage HTML.
// Relative links are resolved against site.
func ParseProductHunt(body []byte, site string, limit int, logger *slog.Logger) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("producthunt: parse html: %w", err)
	}

	entries, strategy := Locate(doc, productHuntStrategies)
	if strategy == "" {
		return nil, fmt.Errorf("producthunt: no product entries found: %w", retry.ErrEmpty)
	}
	logger.Debug("located entries", "strategy", strategy, "count", entries.Length())

	if limit > 0 && entries.Length() > limit {
		entries = entries.Slice(0, limit)
	}

	return parseEntries(entries, logger, "product", func(entry *goquery.Selection) (Product, bool) {
		return parseProduct(entry, site)
	}), nil
}

func parseProduct(entry *goquery.Selection, site string) (Product, bool) {
	name := firstText(entry, "h3", "h2", "h1")
	description := firstText(entry, "p", `div[class*="description"]`)

	link := firstAttr(entry, "href", "a[href]")
	if strings.HasPrefix(link, "/") {
		link = site + link
	}

	if name == "" && description == "" {
		var lines []string
		for _, l := range strings.Split(entry.Text(), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			name = normalize.TruncateRunes(lines[0], 100, "")
		}
		if len(lines) > 1 {
			description = normalize.TruncateRunes(lines[1], 200, "")
		}
	}
	if name == "" {
		return Product{}, false
	}

	return Product{
		Name:        name,
		URL:         link,
		Description: description,
		Tags:        allText(entry, `a[class*="tag"]`),
		Votes:       normalize.ParseCount(firstText(entry, `span[class*="vote"]`, `[class*="vote"]`)),
	}, true
}
