package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/render"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

// Publisher publishes a digest to some output destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, digest *translator.Digest) error
}

// FromConfig builds the publishers listed in cfg.Publisher.Types, in order.
func FromConfig(cfg *config.Config, store *render.Store, logger *slog.Logger) ([]Publisher, error) {
	rc := retry.Config{MaxAttempts: cfg.HTTP.MaxAttempts, BaseDelay: cfg.HTTP.BaseDelay}
	if rc.MaxAttempts == 0 {
		rc = retry.DefaultConfig()
	}

	var pubs []Publisher
	for _, t := range cfg.Publisher.Types {
		switch t {
		case "markdown":
			pubs = append(pubs, NewMarkdownPublisher(store, logger))
		case "stdout":
			pubs = append(pubs, NewStdoutPublisher())
		case "email":
			e := cfg.Publisher.Email
			pubs = append(pubs, NewEmailPublisher(e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.To))
		case "discord":
			pubs = append(pubs, NewDiscordPublisher(cfg.Publisher.Discord.WebhookURL, rc, logger))
		default:
			return nil, fmt.Errorf("publisher: unknown type %q", t)
		}
	}
	return pubs, nil
}
