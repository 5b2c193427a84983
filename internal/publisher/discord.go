package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/httpclient"
	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

const (
	discordTopItems = 5

	colorOverview    = 0x5865F2
	colorGitHub      = 0x24292E
	colorProductHunt = 0xDA552F
	colorHackerNews  = 0xFF6600
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	URL         string              `json:"url,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordPublisher publishes digests to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
	batchDelay  time.Duration
	logger      *slog.Logger
}

// NewDiscordPublisher creates a new DiscordPublisher.
func NewDiscordPublisher(webhookURL string, rc retry.Config, logger *slog.Logger) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		retryConfig: rc,
		batchDelay:  500 * time.Millisecond,
		logger:      logger.With("component", "publisher.discord"),
	}
}

func (d *DiscordPublisher) Name() string { return "discord" }

// Publish sends the digest to Discord as a series of rich embeds.
func (d *DiscordPublisher) Publish(ctx context.Context, digest *translator.Digest) error {
	embeds := buildEmbeds(digest)
	batches := batchEmbeds(embeds)

	for i, batch := range batches {
		err := retry.Do(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}
		d.logger.Debug("Batch sent", "batch", i+1, "embeds", len(batch))

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			if err := retry.Sleep(ctx, d.batchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildEmbeds creates the overview embed followed by one embed per top item
// of each source.
func buildEmbeds(digest *translator.Digest) []discordEmbed {
	day := digest.Date.Format("2006-01-02")
	embeds := []discordEmbed{{
		Title: "今日热门 - " + day,
		Description: fmt.Sprintf("GitHub 项目 %d 个 · ProductHunt 产品 %d 个 · Hacker News 新闻 %d 条",
			len(digest.Repositories), len(digest.Products), len(digest.Stories)),
		Color:     colorOverview,
		Footer:    &discordEmbedFooter{Text: day},
		Timestamp: digest.Date.Format(time.RFC3339),
	}}

	for i, r := range topN(digest.Repositories) {
		e := discordEmbed{
			Title:       truncate(fmt.Sprintf("%d. %s", i+1, r.Name), 256),
			URL:         r.URL,
			Description: truncate(pick(r.DescriptionZh, r.Description), 4096),
			Color:       colorGitHub,
			Fields: []discordEmbedField{
				{Name: "Stars", Value: normalize.FormatCount(r.Stars), Inline: true},
				{Name: "Language", Value: orDash(r.Language), Inline: true},
			},
			Footer: &discordEmbedFooter{Text: "GitHub Trending"},
		}
		e.Fields = append(e.Fields, insightFields(r.Insight)...)
		embeds = append(embeds, e)
	}

	for i, p := range topN(digest.Products) {
		e := discordEmbed{
			Title:       truncate(fmt.Sprintf("%d. %s", i+1, p.Name), 256),
			URL:         p.URL,
			Description: truncate(pick(p.DescriptionZh, p.Description), 4096),
			Color:       colorProductHunt,
			Fields:      []discordEmbedField{{Name: "Votes", Value: normalize.FormatCount(p.Votes), Inline: true}},
			Footer:      &discordEmbedFooter{Text: "Product Hunt"},
		}
		e.Fields = append(e.Fields, insightFields(p.Insight)...)
		embeds = append(embeds, e)
	}

	for i, s := range topN(digest.Stories) {
		link := s.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", s.ID)
		}
		embeds = append(embeds, discordEmbed{
			Title:       truncate(fmt.Sprintf("%d. %s", i+1, s.Title), 256),
			URL:         link,
			Description: truncate(s.SummaryZh, 4096),
			Color:       colorHackerNews,
			Fields: []discordEmbedField{
				{Name: "Score", Value: fmt.Sprint(s.Score), Inline: true},
				{Name: "Comments", Value: fmt.Sprint(s.Comments), Inline: true},
			},
			Footer: &discordEmbedFooter{Text: "Hacker News"},
		})
	}
	return embeds
}

func topN[T any](items []T) []T {
	if len(items) > discordTopItems {
		return items[:discordTopItems]
	}
	return items
}

func pick(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func insightFields(in *scraper.Insight) []discordEmbedField {
	if in.Empty() {
		return nil
	}
	var fields []discordEmbedField
	if len(in.Features) > 0 {
		fields = append(fields, discordEmbedField{Name: "核心功能", Value: truncate(formatKeyPoints(in.Features), 1024)})
	}
	if in.CoreValue != "" {
		fields = append(fields, discordEmbedField{Name: "核心价值", Value: truncate(in.CoreValue, 1024)})
	}
	return fields
}

// batchEmbeds splits embeds into batches respecting Discord limits:
// max 10 embeds per message, max 6000 total characters per message.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= 10 || currentChars+ec > 6000) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// sendWebhook posts a batch of embeds to the Discord webhook.
func (d *DiscordPublisher) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	body, err := json.Marshal(discordWebhookPayload{Embeds: embeds})
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &httpclient.StatusError{StatusCode: resp.StatusCode, URL: "discord webhook", Body: strings.TrimSpace(string(snippet))}
	}
	return nil
}

// truncate shortens s to limit characters, preferring a sentence boundary.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := runes[:limit-1]
	for i := len(cut) - 1; i > limit/2; i-- {
		if strings.ContainsRune(".!?。！？", cut[i]) {
			return string(cut[:i+1])
		}
	}
	return string(cut) + "…"
}

// formatKeyPoints formats key points as a bulleted list.
func formatKeyPoints(kps []string) string {
	var b strings.Builder
	for i, kp := range kps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(kp)
	}
	return b.String()
}

// embedCharCount returns the total character count of an embed for batching purposes.
func embedCharCount(e discordEmbed) int {
	n := runeLen(e.Title) + runeLen(e.Description)
	for _, f := range e.Fields {
		n += runeLen(f.Name) + runeLen(f.Value)
	}
	if e.Footer != nil {
		n += runeLen(e.Footer.Text)
	}
	return n
}

func runeLen(s string) int { return len([]rune(s)) }
