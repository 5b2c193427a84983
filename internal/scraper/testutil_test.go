package scraper

import (
	"io"
	"log/slog"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient() *httpclient.Client {
	return httpclient.New(config.HTTPConfig{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	}, testLogger)
}
