// Package translator turns the scraped English text into Chinese through a
// language model: description translation, story summaries and structured
// feature extraction. No failure here is fatal; every method falls back to
// the source text.
package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
)

const translatePrompt = `请将以下英文文本翻译成%s，保持专业性和准确性，只翻译原文本身，不要添加任何其他内容，包括翻译说明和策略等：

原文：%s

翻译：`

const summaryPrompt = `请用%s为以下新闻写一段%d到%d字的摘要，概括核心内容，只输出摘要本身：

标题：%s

内容：%s

摘要：`

const insightPrompt = `请分析以下产品，并严格按照 JSON 格式返回，字段如下：
1. features: 3 到 5 条主要功能（%[1]s字符串数组）
2. use_cases: 适用场景（%[1]s）
3. core_value: 一句话核心价值（%[1]s）

名称：%[2]s
描述：%[3]s

请直接返回 JSON，不要包含 Markdown 格式标记。`

// summaryFiller pads summaries that are still too short after adding the title.
const summaryFiller = "（详见原文）"

// maxPromptContent bounds the article text sent for summarisation.
const maxPromptContent = 3000

// Digest is the day's enriched result that publishers render.
type Digest struct {
	Date         time.Time
	Repositories []scraper.Repository
	Products     []scraper.Product
	Stories      []scraper.Story
}

// Empty reports whether no source contributed anything.
func (d *Digest) Empty() bool {
	return len(d.Repositories) == 0 && len(d.Products) == 0 && len(d.Stories) == 0
}

type Translator struct {
	completer  Completer
	retry      retry.Config
	limiter    *rate.Limiter
	target     string
	enrich     bool
	summaryMin int
	summaryMax int
	logger     *slog.Logger
}

func New(c Completer, cfg config.TranslatorConfig, rc retry.Config, logger *slog.Logger) *Translator {
	limit := rate.Inf
	if cfg.CallDelay > 0 {
		limit = rate.Every(cfg.CallDelay)
	}
	target := cfg.TargetLanguage
	if target == "" {
		target = "中文"
	}
	return &Translator{
		completer:  c,
		retry:      rc,
		limiter:    rate.NewLimiter(limit, 1),
		target:     target,
		enrich:     cfg.Enrich,
		summaryMin: cfg.SummaryMin,
		summaryMax: cfg.SummaryMax,
		logger:     logger.With("component", "translator"),
	}
}

// call sends prompt under the throttle and retry policy. It reports false
// when every attempt failed.
func (t *Translator) call(ctx context.Context, name, prompt string) (string, bool) {
	return retry.Fetch(ctx, t.retry, t.logger, name, func(ctx context.Context) (string, error) {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", retry.Permanent(err)
		}
		out, err := t.completer.Complete(ctx, prompt)
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("translator: %s: %w", name, retry.ErrEmpty)
		}
		return out, nil
	})
}

// TranslateText translates text into target. Blank input is returned as is
// without calling the model; any failure returns the source text.
func (t *Translator) TranslateText(ctx context.Context, text, target string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if target == "" {
		target = t.target
	}

	out, ok := t.call(ctx, "translate", fmt.Sprintf(translatePrompt, target, text))
	if !ok {
		t.logger.Warn("translation failed, keeping source text", "text", normalize.TruncateRunes(text, 50, "..."))
		return text
	}
	out = strings.TrimSpace(strings.TrimPrefix(out, "翻译："))
	if out == "" {
		return text
	}
	return out
}

// TranslateRepositories fills DescriptionZh, and Insight when enrichment is on.
func (t *Translator) TranslateRepositories(ctx context.Context, repos []scraper.Repository) []scraper.Repository {
	for i := range repos {
		r := &repos[i]
		t.logger.Info("translating repository", "n", i+1, "of", len(repos), "repo", r.Name)
		r.DescriptionZh = t.TranslateText(ctx, r.Description, t.target)
		if t.enrich && r.Description != "" {
			r.Insight = t.ExtractInsight(ctx, r.Name, r.Description)
		}
	}
	return repos
}

// TranslateProducts fills DescriptionZh, and Insight when enrichment is on.
func (t *Translator) TranslateProducts(ctx context.Context, products []scraper.Product) []scraper.Product {
	for i := range products {
		p := &products[i]
		t.logger.Info("translating product", "n", i+1, "of", len(products), "product", p.Name)
		p.DescriptionZh = t.TranslateText(ctx, p.Description, t.target)
		if t.enrich && p.Description != "" {
			p.Insight = t.ExtractInsight(ctx, p.Name, p.Description)
		}
	}
	return products
}

// SummarizeStories fills SummaryZh for every story.
func (t *Translator) SummarizeStories(ctx context.Context, stories []scraper.Story) []scraper.Story {
	for i := range stories {
		s := &stories[i]
		t.logger.Info("summarizing story", "n", i+1, "of", len(stories), "id", s.ID)
		s.SummaryZh = t.Summarize(ctx, s.Title, s.Content)
	}
	return stories
}

// Summarize produces a summary of content (or of the title when there is no
// content) whose length lies within the configured window. On failure the
// title is returned.
func (t *Translator) Summarize(ctx context.Context, title, content string) string {
	source := normalize.CollapseSpace(content)
	if source == "" {
		source = strings.TrimSpace(title)
	}
	if source == "" {
		return ""
	}

	prompt := fmt.Sprintf(summaryPrompt, t.target, t.summaryMin, t.summaryMax, title,
		normalize.TruncateRunes(source, maxPromptContent, "..."))
	out, ok := t.call(ctx, "summarize", prompt)
	if !ok {
		t.logger.Warn("summary failed, using title", "title", title)
		return title
	}
	out = strings.TrimSpace(strings.TrimPrefix(out, "摘要："))
	return fitWindow(out, title, source, t.summaryMin, t.summaryMax)
}

// fitWindow pads s with the title (then the source text, then a filler)
// until it reaches lo runes, and truncates it with "..." to at most hi.
func fitWindow(s, title, source string, lo, hi int) string {
	s = normalize.CollapseSpace(s)
	length := func(v string) int { return utf8.RuneCountInString(v) }

	if length(s) < lo && title != "" && !strings.Contains(s, title) {
		if s == "" {
			s = title
		} else {
			s = title + "：" + s
		}
	}
	if length(s) < lo && source != "" && source != title {
		s = s + " " + source
	}
	for length(s) < lo {
		s += summaryFiller
	}

	if hi > 0 && length(s) > hi {
		if hi <= 3 {
			return string([]rune(s)[:hi])
		}
		s = normalize.TruncateRunes(s, hi-3, "...")
	}
	return s
}

// ExtractInsight asks the model for a structured feature analysis. An empty
// Insight is returned when the call fails or the reply is not valid JSON.
func (t *Translator) ExtractInsight(ctx context.Context, name, description string) *scraper.Insight {
	out, ok := t.call(ctx, "extract insight", fmt.Sprintf(insightPrompt, t.target, name, description))
	if !ok {
		return &scraper.Insight{}
	}
	insight, err := parseInsight(out)
	if err != nil {
		t.logger.Warn("insight reply was not valid json", "name", name, "error", err)
		return &scraper.Insight{}
	}
	return insight
}

// parseInsight decodes the outermost {...} span, which tolerates replies
// wrapped in Markdown fences or prose.
func parseInsight(raw string) (*scraper.Insight, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no json object in reply")
	}

	var res struct {
		Features  []string        `json:"features"`
		UseCases  json.RawMessage `json:"use_cases"`
		CoreValue string          `json:"core_value"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &res); err != nil {
		return nil, err
	}

	return &scraper.Insight{
		Features:  res.Features,
		UseCases:  flattenText(res.UseCases),
		CoreValue: strings.TrimSpace(res.CoreValue),
	}, nil
}

// flattenText accepts either a JSON string or an array of strings.
func flattenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "；")
	}
	return ""
}
