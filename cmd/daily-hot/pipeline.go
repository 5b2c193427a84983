package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/publisher"
	"github.com/ryosukesatoh/daily-hot/internal/render"
	"github.com/ryosukesatoh/daily-hot/internal/runner"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
	"github.com/ryosukesatoh/daily-hot/internal/site"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

// buildRunner wires every component from cfg. The cleanup function releases
// model clients that hold connections.
func buildRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner.Runner, func(), error) {
	client := httpclient.New(cfg.HTTP, logger)
	r := runner.New(logger)
	r.Language = cfg.Sources.GitHub.Language
	r.Since = cfg.Sources.GitHub.Since

	if gh := cfg.Sources.GitHub; gh.Enabled {
		var opts []scraper.GitHubOption
		if gh.Token != "" {
			opts = append(opts, scraper.WithEnricher(scraper.NewGitHubEnricher(gh.Token, client.HTTP(), logger)))
		}
		r.GitHub = scraper.NewGitHubScraper(client, logger, opts...)
	}
	if cfg.Sources.ProductHunt.Enabled {
		r.ProductHunt = scraper.NewProductHuntScraper(client, cfg.Sources.ProductHunt, logger)
	}
	if cfg.Sources.HackerNews.Enabled {
		r.HackerNews = scraper.NewHackerNewsScraper(client, cfg.Sources.HackerNews, logger)
	}

	completer, err := translator.NewCompleter(ctx, cfg.Translator, client.HTTP())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if c, ok := completer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close model client", "error", err)
			}
		}
	}
	r.Translator = translator.New(completer, cfg.Translator, client.Retry(), logger)

	store := render.NewStore(cfg.OutputDir, logger)
	pubs, err := publisher.FromConfig(cfg, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build publishers: %w", err)
	}
	r.Publishers = pubs

	if cfg.Site.Enabled {
		r.Site = site.NewBuilder(cfg.Site, cfg.OutputDir, logger)
	}
	return r, cleanup, nil
}
