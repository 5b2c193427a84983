package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
)

const hackerNewsAPI = "https://hacker-news.firebaseio.com/v0"

type hnItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	By          string `json:"by"`
}

// HackerNewsScraper reads the top stories from the Firebase API and attaches
// the linked article text to each.
type HackerNewsScraper struct {
	client    *httpclient.Client
	apiURL    string
	cfg       config.HackerNewsConfig
	extractor *ArticleExtractor
	logger    *slog.Logger
}

type HackerNewsOption func(*HackerNewsScraper)

func WithHackerNewsAPIURL(u string) HackerNewsOption {
	return func(s *HackerNewsScraper) { s.apiURL = strings.TrimRight(u, "/") }
}

func NewHackerNewsScraper(client *httpclient.Client, cfg config.HackerNewsConfig, logger *slog.Logger, opts ...HackerNewsOption) *HackerNewsScraper {
	if cfg.Candidates <= 0 {
		cfg.Candidates = 15
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	s := &HackerNewsScraper{
		client:    client,
		apiURL:    hackerNewsAPI,
		cfg:       cfg,
		extractor: NewArticleExtractor(client, cfg.ContentLimit, logger),
		logger:    logger.With("component", "hackernews"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Top returns up to TopN stories taken from the first Candidates top-story
// IDs, highest score first.
func (s *HackerNewsScraper) Top(ctx context.Context) []Story {
	ids, ok := retry.Fetch(ctx, s.client.Retry(), s.logger, "hackernews topstories", func(ctx context.Context) ([]int, error) {
		var ids []int
		if err := s.client.GetJSON(ctx, s.apiURL+"/topstories.json", &ids); err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("hackernews: empty top story list: %w", retry.ErrEmpty)
		}
		return ids, nil
	})
	if !ok {
		return nil
	}
	s.logger.Info("fetched top story ids", "count", len(ids))

	if len(ids) > s.cfg.Candidates {
		ids = ids[:s.cfg.Candidates]
	}

	var stories []Story
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		s.logger.Debug("fetching story", "n", i+1, "of", len(ids), "id", id)

		story, ok := s.story(ctx, id)
		if !ok {
			continue
		}
		stories = append(stories, story)

		if err := retry.Sleep(ctx, s.cfg.ItemDelay); err != nil {
			break
		}
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].Score > stories[j].Score
	})
	if len(stories) > s.cfg.TopN {
		stories = stories[:s.cfg.TopN]
	}
	s.logger.Info("scraped top stories", "count", len(stories))
	return stories
}

func (s *HackerNewsScraper) story(ctx context.Context, id int) (Story, bool) {
	item, ok := retry.Fetch(ctx, s.client.Retry(), s.logger, fmt.Sprintf("hackernews item %d", id), func(ctx context.Context) (*hnItem, error) {
		var item *hnItem
		if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/item/%d.json", s.apiURL, id), &item); err != nil {
			return nil, err
		}
		return item, nil
	})
	if !ok {
		return Story{}, false
	}
	if item == nil || item.Type != "story" {
		s.logger.Debug("skipping non-story item", "id", id)
		return Story{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		s.logger.Warn("skipping story without title", "id", id)
		return Story{}, false
	}

	story := Story{
		ID:       id,
		Title:    title,
		URL:      item.URL,
		Score:    item.Score,
		Comments: item.Descendants,
		Author:   item.By,
	}
	if item.Time > 0 {
		story.Time = time.Unix(item.Time, 0).UTC()
	}
	if item.URL != "" {
		story.Content = s.extractor.Extract(ctx, item.URL)
	}
	return story, true
}
