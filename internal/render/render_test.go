package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ryosukesatoh/daily-hot/internal/logging"
	"github.com/ryosukesatoh/daily-hot/internal/scraper"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

var day = time.Date(2025, time.January, 15, 5, 0, 0, 0, time.UTC)

func sampleRepos() []scraper.Repository {
	return []scraper.Repository{
		{Name: "acme/one", URL: "https://github.com/acme/one", Description: "First tool", DescriptionZh: "第一个工具", Language: "Go", Stars: 1200, Forks: 30, Topics: []string{"cli", "tool"}},
		{Name: "acme/two", URL: "https://github.com/acme/two", Language: "Python", Stars: 3400, Forks: 120},
		{Name: "acme/three", URL: "https://github.com/acme/three", Description: "Third", Language: "Go", Stars: 500,
			Insight: &scraper.Insight{Features: []string{"fast"}, CoreValue: "speed"}},
	}
}

// headings returns the text of every heading of the given level in a page body.
func headings(t *testing.T, doc string, level int) []string {
	t.Helper()
	_, body, err := SplitFrontMatter([]byte(doc))
	require.NoError(t, err)

	root := goldmark.New().Parser().Parse(text.NewReader(body))
	var out []string
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Level == level {
			out = append(out, string(h.Lines().Value(body)))
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return out
}

func TestGitHubPage(t *testing.T) {
	doc, err := GitHubPage(sampleRepos(), day)
	require.NoError(t, err)

	fm, _, err := SplitFrontMatter([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "GitHub 每日趋势 - 2025年01月15日", fm.Title)
	assert.Equal(t, "GitHub 2025年01月15日 热门项目趋势", fm.Description)
	assert.Equal(t, "2025-01-15", fm.Date)
	assert.Equal(t, []string{"github", "trending", "2025", "01"}, fm.Tags)

	assert.Equal(t, []string{
		"1. acme/one", "2. acme/two", "3. acme/three", "📈 统计信息", "🔗 相关链接",
	}, headings(t, doc, 2))

	assert.Contains(t, doc, "🔗 **项目地址**: [acme/one](https://github.com/acme/one)")
	assert.Contains(t, doc, "星标数: 1.2K | Fork数: 30 | 语言: Go")
	assert.Contains(t, doc, "![Go](https://img.shields.io/badge/-Go-3776AB?style=flat&logo=go&logoColor=white)")
	assert.Contains(t, doc, "**中文翻译**:\n> 第一个工具")
	assert.Contains(t, doc, "**英文描述**:\n> 暂无描述")
	assert.Contains(t, doc, "**中文翻译**:\n> 暂无中文翻译")
	assert.Contains(t, doc, "### 🏷️ 标签\n\n`cli` `tool`")
	assert.Contains(t, doc, "**核心价值**: speed")
	assert.Contains(t, doc, "| 总项目数 | 3 |")
	assert.Contains(t, doc, "| 主要语言 | Go, Python |")
	assert.True(t, strings.HasSuffix(doc, footer))
}

func TestGitHubPageEmpty(t *testing.T) {
	doc, err := GitHubPage(nil, day)
	require.NoError(t, err)
	assert.Contains(t, doc, "| 总项目数 | 0 |")
	assert.Equal(t, []string{"📈 统计信息", "🔗 相关链接"}, headings(t, doc, 2))
}

func TestLanguageBadgeEscapes(t *testing.T) {
	assert.Equal(t,
		"![Objective-C](https://img.shields.io/badge/-Objective--C-3776AB?style=flat&logo=objective-c&logoColor=white)",
		languageBadge("Objective-C"))
	assert.Contains(t, languageBadge("C++"), "logo=c%2B%2B")
}

func TestTopLanguages(t *testing.T) {
	repos := []scraper.Repository{
		{Language: "Rust"}, {Language: "Go"}, {Language: "Go"}, {}, {Language: "TypeScript"}, {Language: "Rust"},
	}
	assert.Equal(t, "Rust, Go, Unknown", topLanguages(repos, 3))
}

func TestProductHuntPage(t *testing.T) {
	products := []scraper.Product{
		{Name: "Alpha", URL: "https://www.producthunt.com/posts/alpha", Description: "Alpha app", Votes: 10, Tags: []string{"AI"}},
		{Name: "Beta", URL: "https://www.producthunt.com/posts/beta", Votes: 20},
		{Name: "Gamma", URL: "https://www.producthunt.com/posts/gamma", Votes: 33},
	}
	doc, err := ProductHuntPage(products, day)
	require.NoError(t, err)

	fm, _, err := SplitFrontMatter([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "ProductHunt 每日热门 - 2025年01月15日", fm.Title)
	assert.Equal(t, []string{"producthunt", "products", "2025", "01"}, fm.Tags)

	assert.Equal(t, []string{"1. Alpha", "2. Beta", "3. Gamma", "📈 统计信息", "🔗 相关链接"}, headings(t, doc, 2))
	assert.Contains(t, doc, "🔗 **产品地址**: [Alpha](https://www.producthunt.com/posts/alpha)")
	assert.Contains(t, doc, "投票数: 33")
	assert.Contains(t, doc, "`AI`")
	assert.Contains(t, doc, "| 总产品数 | 3 |")
	assert.Contains(t, doc, "| 平均投票数 | 21 |")
}

func TestHackerNewsPage(t *testing.T) {
	stories := []scraper.Story{
		{ID: 1, Title: "Show HN: Thing", URL: "https://example.com/thing", Score: 100, Comments: 10, Author: "pg", SummaryZh: "一个东西"},
		{ID: 2, Title: "Ask HN: Question", Score: 50, Comments: 5},
	}
	doc, err := HackerNewsPage(stories, day)
	require.NoError(t, err)

	assert.Equal(t, []string{"1. Show HN: Thing", "2. Ask HN: Question", "📈 统计信息", "🔗 相关链接"}, headings(t, doc, 2))
	assert.Contains(t, doc, "[Show HN: Thing](https://example.com/thing)")
	assert.Contains(t, doc, "[Ask HN: Question](https://news.ycombinator.com/item?id=2)")
	assert.Contains(t, doc, "分数: 100 | 评论数: 10 | 作者: pg")
	assert.Contains(t, doc, "> 一个东西")
	assert.Contains(t, doc, "> 暂无摘要")
	assert.Contains(t, doc, "| 总新闻数 | 2 |")
	assert.Contains(t, doc, "| 平均分数 | 75 |")
	assert.Contains(t, doc, "| 总评论数 | 15 |")
}

func TestIndexPage(t *testing.T) {
	var repos []scraper.Repository
	for i := 1; i <= 7; i++ {
		repos = append(repos, scraper.Repository{Name: "repo" + string(rune('0'+i)), Description: "english"})
	}
	repos[0].DescriptionZh = "中文"
	repos[1].Description = strings.Repeat("x", 250)

	d := &translator.Digest{Date: day, Repositories: repos}
	now := time.Date(2025, time.January, 15, 5, 1, 2, 0, time.UTC)
	doc, err := IndexPage(d, now)
	require.NoError(t, err)

	assert.Contains(t, doc, "# 今日热门 - 2025年01月15日")
	assert.Contains(t, doc, "> 最新更新: 2025-01-15 05:01:02")
	assert.Contains(t, doc, "1. **repo1** - 中文")
	assert.Contains(t, doc, "2. **repo2** - "+strings.Repeat("x", 200)+"...\n")
	assert.Contains(t, doc, "5. **repo5** - english")
	assert.NotContains(t, doc, "repo6")
	assert.Contains(t, doc, "- **GitHub项目**: 7 个")
	assert.Contains(t, doc, "- **ProductHunt产品**: 0 个")
	assert.Contains(t, doc, "👉 [GitHub完整列表](./github-trending-2025-01-15.md)")
	assert.Contains(t, doc, "👉 [Hacker News完整列表](./hackernews-2025-01-15.md)")
}

func dates(t *testing.T, values ...string) []time.Time {
	t.Helper()
	out := make([]time.Time, len(values))
	for i, v := range values {
		d, err := time.Parse("2006-01-02", v)
		require.NoError(t, err)
		out[i] = d
	}
	return out
}

func TestHistoryPage(t *testing.T) {
	in := dates(t,
		"2025-01-31", "2025-02-03", "2025-02-01", "2025-01-02", "2025-01-30",
		"2025-01-29", "2025-01-28", "2025-01-27", "2024-12-31",
	)
	doc, err := HistoryPage(GitHub, in, day)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025年02月", "2025年01月", "2024年12月", "最近一周"}, headings(t, doc, 3))

	feb := strings.Index(doc, "- [02月03日](./github-trending-2025-02-03.md)")
	feb1 := strings.Index(doc, "- [02月01日](./github-trending-2025-02-01.md)")
	require.GreaterOrEqual(t, feb, 0)
	assert.Less(t, feb, feb1)

	assert.Contains(t, doc, "- **总记录数**: 9 条")
	assert.Contains(t, doc, "- **时间跨度**: 2024年12月31日 - 2025年02月03日")
	assert.Contains(t, doc, "[GitHub Trending](https://github.com/trending)")

	recent := doc[strings.Index(doc, "### 最近一周"):]
	assert.Equal(t, 7, strings.Count(recent, "- ["))
	assert.Contains(t, recent, "01月27日")
	assert.NotContains(t, recent, "01月02日")
}

func TestHistoryPageEmpty(t *testing.T) {
	doc, err := HistoryPage(ProductHunt, nil, day)
	require.NoError(t, err)
	assert.Contains(t, doc, "- **总记录数**: 0 条")
	assert.Contains(t, doc, "- **时间跨度**: 无数据")
}

func TestHistoryPageSingleDate(t *testing.T) {
	doc, err := HistoryPage(HackerNews, dates(t, "2025-03-04"), day)
	require.NoError(t, err)
	assert.Contains(t, doc, "- **时间跨度**: 2025年03月04日\n")
}

func TestSourceFileNames(t *testing.T) {
	assert.Equal(t, "github-trending-2025-01-15.md", GitHub.FileName(day))
	assert.Equal(t, "github-history.md", GitHub.HistoryFile())
	assert.Equal(t, "producthunt-history.md", ProductHunt.HistoryFile())

	_, ok := ProductHunt.ParseFileName("producthunt-history.md")
	assert.False(t, ok)
	got, ok := HackerNews.ParseFileName("hackernews-2025-01-15.md")
	assert.True(t, ok)
	assert.Equal(t, "2025-01-15", got.Format("2006-01-02"))
}

func TestFrontMatterRoundTrip(t *testing.T) {
	fm := FrontMatter{Title: "标题: 带冒号", Description: "d", Date: "2025-01-15", Tags: []string{"a", "2025"}}
	header, err := fm.Marshal()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "---\n"))
	assert.True(t, strings.HasSuffix(header, "---\n\n"))

	got, body, err := SplitFrontMatter([]byte(header + "# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, fm, got)
	assert.Equal(t, "\n# Body\n", string(body))

	_, body, err = SplitFrontMatter([]byte("# No header"))
	require.NoError(t, err)
	assert.Equal(t, "# No header", string(body))
}

func TestStoreWritesPages(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, logging.Discard())

	d := &translator.Digest{Date: day, Repositories: sampleRepos()}
	paths, err := store.WriteDaily(d)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	for _, name := range []string{"github-trending-2025-01-15.md", "producthunt-2025-01-15.md", "hackernews-2025-01-15.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	_, err = store.WriteIndex(d)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "index.md"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "github-trending-latest.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "github-trending-2025-01-14.md"), []byte("x"), 0o644))

	got, err := store.Dates(GitHub)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-01-15", got[0].Format("2006-01-02"))
	assert.Equal(t, "2025-01-14", got[1].Format("2006-01-02"))

	require.NoError(t, store.WriteHistory())
	history, err := os.ReadFile(filepath.Join(dir, "github-history.md"))
	require.NoError(t, err)
	assert.Contains(t, string(history), "- [01月14日](./github-trending-2025-01-14.md)")
	assert.NotContains(t, string(history), "latest")

	phDates, err := store.Dates(ProductHunt)
	require.NoError(t, err)
	assert.Len(t, phDates, 1)
}

func TestStoreWriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	store := NewStore(file, logging.Discard())
	paths, err := store.WriteDaily(&translator.Digest{Date: day})
	assert.Error(t, err)
	assert.Empty(t, paths)
}
