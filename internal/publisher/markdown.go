package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryosukesatoh/daily-hot/internal/render"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

// MarkdownPublisher writes the site pages: the three daily pages, the home
// page and every history page.
type MarkdownPublisher struct {
	store  *render.Store
	logger *slog.Logger
}

func NewMarkdownPublisher(store *render.Store, logger *slog.Logger) *MarkdownPublisher {
	return &MarkdownPublisher{store: store, logger: logger.With("component", "publisher.markdown")}
}

func (p *MarkdownPublisher) Name() string { return "markdown" }

// Publish fails only when a daily page could not be written. Index and
// history problems are logged since the next run regenerates them.
func (p *MarkdownPublisher) Publish(_ context.Context, digest *translator.Digest) error {
	paths, dailyErr := p.store.WriteDaily(digest)
	p.logger.Info("Daily pages written", "count", len(paths), "dir", p.store.Dir())

	if _, err := p.store.WriteIndex(digest); err != nil {
		p.logger.Error("Failed to write index page", "error", err)
	}
	if err := p.store.WriteHistory(); err != nil {
		p.logger.Error("Failed to write history pages", "error", err)
	}

	if dailyErr != nil {
		return fmt.Errorf("markdown: %w", dailyErr)
	}
	return nil
}
