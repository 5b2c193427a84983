package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/logging"
	"github.com/ryosukesatoh/daily-hot/internal/publisher"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

type GitHubSource interface {
	Trending(ctx context.Context, language, since string) []scraper.Repository
}

type ProductSource interface {
	Trending(ctx context.Context) []scraper.Product
}

type StorySource interface {
	Top(ctx context.Context) []scraper.Story
}

// Translator fills the Chinese fields of every record.
type Translator interface {
	TranslateRepositories(ctx context.Context, repos []scraper.Repository) []scraper.Repository
	TranslateProducts(ctx context.Context, products []scraper.Product) []scraper.Product
	SummarizeStories(ctx context.Context, stories []scraper.Story) []scraper.Story
}

type SiteBuilder interface {
	Build(ctx context.Context) error
}

// Options override the configured GitHub filters for one run.
type Options struct {
	Language string
	Since    string
	NoSite   bool
}

// Runner orchestrates the scrape -> translate -> publish -> build pipeline.
// A nil source is skipped.
type Runner struct {
	GitHub      GitHubSource
	ProductHunt ProductSource
	HackerNews  StorySource
	Translator  Translator
	Publishers  []publisher.Publisher
	Site        SiteBuilder

	Language string
	Since    string

	now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	return &Runner{now: time.Now, logger: logger.With("component", "runner")}
}

// stage runs fn and converts a panic into an empty result.
func stage[T any](logger *slog.Logger, name string, fn func() []T) (out []T) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Stage panicked", "stage", name, "panic", rec)
			out = nil
		}
	}()
	out = fn()
	logger.Info("Stage complete", "stage", name, "count", len(out), "duration", time.Since(start))
	return out
}

// guard applies fn to items, keeping items unchanged if fn panics.
func guard[T any](logger *slog.Logger, name string, items []T, fn func([]T) []T) []T {
	if len(items) == 0 {
		return items
	}
	out := stage(logger, name, func() []T { return fn(items) })
	if out == nil {
		return items
	}
	return out
}

// Run executes the full pipeline once. It fails only when the context is
// cancelled or every publisher failed.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	logger, _ := logging.WithRun(r.logger)
	language, since := r.Language, r.Since
	if opts.Language != "" {
		language = opts.Language
	}
	if opts.Since != "" {
		since = opts.Since
	}

	digest := &translator.Digest{Date: r.now()}
	logger.Info("Starting pipeline", "date", digest.Date.Format("2006-01-02"), "language", language, "since", since)

	if r.GitHub != nil {
		digest.Repositories = stage(logger, "github", func() []scraper.Repository {
			return r.GitHub.Trending(ctx, language, since)
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ProductHunt != nil {
		digest.Products = stage(logger, "producthunt", func() []scraper.Product {
			return r.ProductHunt.Trending(ctx)
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.HackerNews != nil {
		digest.Stories = stage(logger, "hackernews", func() []scraper.Story {
			return r.HackerNews.Top(ctx)
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if digest.Empty() {
		logger.Warn("No source returned data")
	}

	if r.Translator != nil {
		digest.Repositories = guard(logger, "translate.github", digest.Repositories, func(in []scraper.Repository) []scraper.Repository {
			return r.Translator.TranslateRepositories(ctx, in)
		})
		digest.Products = guard(logger, "translate.producthunt", digest.Products, func(in []scraper.Product) []scraper.Product {
			return r.Translator.TranslateProducts(ctx, in)
		})
		digest.Stories = guard(logger, "summarize.hackernews", digest.Stories, func(in []scraper.Story) []scraper.Story {
			return r.Translator.SummarizeStories(ctx, in)
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Continue with other publishers even if one fails.
	var publishErrors []error
	markdownOK := false
	for _, pub := range r.Publishers {
		if err := r.publish(ctx, pub, digest); err != nil {
			publishErrors = append(publishErrors, fmt.Errorf("publish via %s failed: %w", pub.Name(), err))
			logger.Warn("Publisher failed", "publisher", pub.Name(), "error", err)
			continue
		}
		logger.Info("Published", "publisher", pub.Name())
		if pub.Name() == "markdown" {
			markdownOK = true
		}
	}

	if len(publishErrors) == len(r.Publishers) && len(r.Publishers) > 0 {
		return fmt.Errorf("runner: all publishers failed: %w", errors.Join(publishErrors...))
	}

	if r.Site != nil && markdownOK && !opts.NoSite {
		if err := r.Site.Build(ctx); err != nil {
			logger.Warn("Site build failed", "error", err)
		}
	}

	if len(publishErrors) > 0 {
		logger.Info("Pipeline completed with publisher failures", "failed", len(publishErrors), "publishers", len(r.Publishers))
	} else {
		logger.Info("Pipeline completed successfully",
			"repositories", len(digest.Repositories),
			"products", len(digest.Products),
			"stories", len(digest.Stories),
		)
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, pub publisher.Publisher, digest *translator.Digest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return pub.Publish(ctx, digest)
}
