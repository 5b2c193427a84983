package render

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

const (
	dayLayout   = "2006年01月02日"
	isoLayout   = "2006-01-02"
	stampLayout = "2006-01-02 15:04:05"

	noDescription = "暂无描述"
	noTranslation = "暂无中文翻译"
	noSummary     = "暂无摘要"
	footer        = "*本页面由自动化工具生成，每日更新*"
)

// page accumulates lines and joins them with newlines.
type page struct {
	lines []string
}

func (p *page) add(lines ...string) { p.lines = append(p.lines, lines...) }

func (p *page) addf(format string, args ...any) { p.lines = append(p.lines, fmt.Sprintf(format, args...)) }

func (p *page) String() string { return strings.Join(p.lines, "\n") }

func dailyTags(source, kind string, date time.Time) []string {
	return []string{source, kind, date.Format("2006"), date.Format("01")}
}

func withHeader(fm FrontMatter, body *page) (string, error) {
	header, err := fm.Marshal()
	if err != nil {
		return "", err
	}
	return header + body.String(), nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// GitHubPage renders the daily GitHub Trending page.
func GitHubPage(repos []scraper.Repository, date time.Time) (string, error) {
	day := date.Format(dayLayout)
	title := "GitHub 每日趋势 - " + day

	var p page
	p.add("# "+title, "")
	for i, repo := range repos {
		writeRepository(&p, i+1, repo)
	}
	p.add(
		"## 📈 统计信息",
		"",
		"| 指标 | 数值 |",
		"|------|------|",
	)
	p.addf("| 总项目数 | %d |", len(repos))
	p.addf("| 主要语言 | %s |", topLanguages(repos, 3))
	p.add(
		"",
		"## 🔗 相关链接",
		"",
		"- [GitHub Trending](https://github.com/trending) - 官方趋势页面",
		"- [历史记录](../) - 查看历史趋势",
		"",
		"---",
		"",
		footer,
	)

	return withHeader(FrontMatter{
		Title:       title,
		Description: fmt.Sprintf("GitHub %s 热门项目趋势", day),
		Date:        date.Format(isoLayout),
		Tags:        dailyTags("github", "trending", date),
	}, &p)
}

func writeRepository(p *page, index int, repo scraper.Repository) {
	language := orDefault(repo.Language, "Unknown")

	p.addf("## %d. %s", index, repo.Name)
	p.add("")
	p.addf("🔗 **项目地址**: [%s](%s)", repo.Name, repo.URL)
	p.add("")
	line := fmt.Sprintf("星标数: %s | Fork数: %s | 语言: %s",
		normalize.FormatCount(repo.Stars), normalize.FormatCount(repo.Forks), language)
	if repo.TodayStars > 0 {
		line += fmt.Sprintf(" | 今日新增: %s", normalize.FormatCount(repo.TodayStars))
	}
	p.add(line, "")
	p.add(languageBadge(language), "")
	p.add("**英文描述**:")
	p.add("> "+orDefault(repo.Description, noDescription), "")
	p.add("**中文翻译**:")
	p.add("> "+orDefault(repo.DescriptionZh, noTranslation), "")
	writeInsight(p, repo.Insight)
	writeTags(p, repo.Topics)
	p.add("---", "")
}

// languageBadge renders a shields.io badge. Dashes are doubled because the
// badge path uses them as separators.
func languageBadge(language string) string {
	label := url.PathEscape(strings.ReplaceAll(language, "-", "--"))
	logo := url.QueryEscape(strings.ToLower(language))
	return fmt.Sprintf("![%s](https://img.shields.io/badge/-%s-3776AB?style=flat&logo=%s&logoColor=white)",
		language, label, logo)
}

func writeInsight(p *page, in *scraper.Insight) {
	if in.Empty() {
		return
	}
	p.add("### 💡 深度分析", "")
	if len(in.Features) > 0 {
		p.add("**核心功能**:", "")
		for _, f := range in.Features {
			p.add("- " + f)
		}
		p.add("")
	}
	if in.UseCases != "" {
		p.add("**适用场景**: "+in.UseCases, "")
	}
	if in.CoreValue != "" {
		p.add("**核心价值**: "+in.CoreValue, "")
	}
}

func writeTags(p *page, tags []string) {
	if len(tags) == 0 {
		return
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = "`" + t + "`"
	}
	p.add("### 🏷️ 标签", "", strings.Join(quoted, " "), "")
}

// topLanguages returns the n most frequent languages, ties broken by first
// appearance.
func topLanguages(repos []scraper.Repository, n int) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range repos {
		lang := orDefault(r.Language, "Unknown")
		if counts[lang] == 0 {
			order = append(order, lang)
		}
		counts[lang]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return strings.Join(order, ", ")
}

// ProductHuntPage renders the daily Product Hunt page.
func ProductHuntPage(products []scraper.Product, date time.Time) (string, error) {
	day := date.Format(dayLayout)
	title := "ProductHunt 每日热门 - " + day

	var p page
	p.add("# "+title, "")
	for i, product := range products {
		p.addf("## %d. %s", i+1, product.Name)
		p.add("")
		p.addf("🔗 **产品地址**: [%s](%s)", product.Name, product.URL)
		p.add("")
		p.add("投票数: "+normalize.FormatCount(product.Votes), "")
		p.add("**英文描述**:")
		p.add("> "+orDefault(product.Description, noDescription), "")
		p.add("**中文翻译**:")
		p.add("> "+orDefault(product.DescriptionZh, noTranslation), "")
		writeInsight(&p, product.Insight)
		writeTags(&p, product.Tags)
		p.add("---", "")
	}

	var votes int
	for _, product := range products {
		votes += product.Votes
	}
	p.add(
		"## 📈 统计信息",
		"",
		"| 指标 | 数值 |",
		"|------|------|",
	)
	p.addf("| 总产品数 | %d |", len(products))
	p.addf("| 平均投票数 | %.0f |", average(votes, len(products)))
	p.add(
		"",
		"## 🔗 相关链接",
		"",
		"- [ProductHunt](https://www.producthunt.com) - 官方产品页面",
		"- [历史记录](../) - 查看历史记录",
		"",
		"---",
		"",
		footer,
	)

	return withHeader(FrontMatter{
		Title:       title,
		Description: fmt.Sprintf("ProductHunt %s 热门产品", day),
		Date:        date.Format(isoLayout),
		Tags:        dailyTags("producthunt", "products", date),
	}, &p)
}

// HackerNewsPage renders the daily Hacker News page.
func HackerNewsPage(stories []scraper.Story, date time.Time) (string, error) {
	day := date.Format(dayLayout)
	title := "Hacker News 每日热门 - " + day

	var p page
	p.add("# "+title, "")
	var score, comments int
	for i, s := range stories {
		score += s.Score
		comments += s.Comments

		link := s.URL
		if link == "" {
			link = discussionURL(s.ID)
		}
		p.addf("## %d. %s", i+1, s.Title)
		p.add("")
		p.addf("🔗 **原文链接**: [%s](%s)", s.Title, link)
		p.add("")
		meta := fmt.Sprintf("分数: %s | 评论数: %s", normalize.FormatCount(s.Score), normalize.FormatCount(s.Comments))
		if s.Author != "" {
			meta += " | 作者: " + s.Author
		}
		if !s.Time.IsZero() {
			meta += " | 发布时间: " + s.Time.Format("2006-01-02 15:04")
		}
		p.add(meta, "")
		p.add("**中文摘要**:")
		p.add("> "+orDefault(s.SummaryZh, noSummary), "")
		p.addf("💬 [查看讨论](%s)", discussionURL(s.ID))
		p.add("", "---", "")
	}

	p.add(
		"## 📈 统计信息",
		"",
		"| 指标 | 数值 |",
		"|------|------|",
	)
	p.addf("| 总新闻数 | %d |", len(stories))
	p.addf("| 平均分数 | %.0f |", average(score, len(stories)))
	p.addf("| 总评论数 | %d |", comments)
	p.add(
		"",
		"## 🔗 相关链接",
		"",
		"- [Hacker News](https://news.ycombinator.com) - 官方首页",
		"- [历史记录](../) - 查看历史记录",
		"",
		"---",
		"",
		footer,
	)

	return withHeader(FrontMatter{
		Title:       title,
		Description: fmt.Sprintf("Hacker News %s 热门新闻", day),
		Date:        date.Format(isoLayout),
		Tags:        dailyTags("hackernews", "news", date),
	}, &p)
}

func discussionURL(id int) string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

const indexPreview = 5

// IndexPage renders the home page: the top entries of each source for the
// digest's day. now stamps the update time.
func IndexPage(d *translator.Digest, now time.Time) (string, error) {
	stamp := now.Format(stampLayout)
	iso := d.Date.Format(isoLayout)

	var p page
	p.add("# 今日热门 - "+d.Date.Format(dayLayout), "")
	p.add("> 最新更新: "+stamp, "")

	p.addf("## 🚀 GitHub 热门项目 (前%d个)", indexPreview)
	p.add("")
	for i, r := range head(d.Repositories) {
		p.addf("%d. **%s** - %s", i+1, r.Name, preview(r.DescriptionZh, r.Description))
	}
	p.add("")
	p.addf("## 🎯 ProductHunt 热门产品 (前%d个)", indexPreview)
	p.add("")
	for i, pr := range head(d.Products) {
		p.addf("%d. **%s** - %s", i+1, pr.Name, preview(pr.DescriptionZh, pr.Description))
	}
	p.add("")
	p.addf("## 📰 Hacker News 热门新闻 (前%d个)", indexPreview)
	p.add("")
	for i, s := range head(d.Stories) {
		p.addf("%d. **%s** - %s", i+1, s.Title, preview(s.SummaryZh, ""))
	}

	p.add("", "## 📊 今日统计", "")
	p.addf("- **GitHub项目**: %d 个", len(d.Repositories))
	p.addf("- **ProductHunt产品**: %d 个", len(d.Products))
	p.addf("- **Hacker News新闻**: %d 条", len(d.Stories))
	p.add("", "## 🔗 查看详情", "")
	p.addf("👉 [GitHub完整列表](./%s)", GitHub.FileName(d.Date))
	p.addf("👉 [ProductHunt完整列表](./%s)", ProductHunt.FileName(d.Date))
	p.addf("👉 [Hacker News完整列表](./%s)", HackerNews.FileName(d.Date))
	p.add("", "---", "*自动更新于 "+stamp+"*")

	return withHeader(FrontMatter{
		Title:       "今日热门",
		Description: "今日GitHub热门项目、ProductHunt热门产品和Hacker News热门新闻",
		Date:        iso,
	}, &p)
}

func head[T any](items []T) []T {
	if len(items) > indexPreview {
		return items[:indexPreview]
	}
	return items
}

func preview(primary, fallback string) string {
	text := orDefault(primary, orDefault(fallback, noDescription))
	return normalize.TruncateRunes(text, 200, "...")
}
