package render

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Source describes where one listing's daily pages live and how its history
// page is labelled.
type Source struct {
	Prefix   string
	Label    string
	Noun     string
	SiteName string
	SiteURL  string
}

var (
	GitHub      = Source{Prefix: "github-trending", Label: "GitHub", Noun: "热门项目", SiteName: "GitHub Trending", SiteURL: "https://github.com/trending"}
	ProductHunt = Source{Prefix: "producthunt", Label: "ProductHunt", Noun: "热门产品", SiteName: "ProductHunt", SiteURL: "https://www.producthunt.com"}
	HackerNews  = Source{Prefix: "hackernews", Label: "Hacker News", Noun: "热门新闻", SiteName: "Hacker News", SiteURL: "https://news.ycombinator.com"}
)

// Sources lists every source in rendering order.
var Sources = []Source{GitHub, ProductHunt, HackerNews}

// FileName is the daily page name for date.
func (s Source) FileName(date time.Time) string {
	return s.Prefix + "-" + date.Format(isoLayout) + ".md"
}

// HistoryFile is the name of the source's history page. GitHub keeps the
// short "github" stem.
func (s Source) HistoryFile() string {
	stem := s.Prefix
	if s.Prefix == GitHub.Prefix {
		stem = "github"
	}
	return stem + "-history.md"
}

// ParseFileName extracts the date from a daily page name. Names that do not
// carry a valid date after the prefix are rejected.
func (s Source) ParseFileName(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, s.Prefix+"-")
	if !ok {
		return time.Time{}, false
	}
	rest, ok = strings.CutSuffix(rest, ".md")
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(isoLayout, rest)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

const recentDays = 7

// HistoryPage renders the archive of a source: links grouped by month, newest
// first, then a short stats block and quick links to the latest week.
func HistoryPage(src Source, dates []time.Time, now time.Time) (string, error) {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	title := src.Label + " 历史记录"
	var p page
	p.add("# "+title, "")
	p.addf("> %s 每日%s的历史记录，按日期倒序排列", src.Label, src.Noun)
	p.add("", "## 📅 历史记录", "")

	month := ""
	for _, d := range sorted {
		if m := d.Format("2006年01月"); m != month {
			if month != "" {
				p.add("")
			}
			month = m
			p.add("### "+m, "")
		}
		p.add(historyLink(src, d))
	}
	if month != "" {
		p.add("")
	}

	p.add("## 📊 统计信息", "")
	p.addf("- **总记录数**: %d 条", len(sorted))
	p.add("- **时间跨度**: " + dateSpan(sorted))
	p.addf("- **数据来源**: [%s](%s)", src.SiteName, src.SiteURL)
	p.add(
		"- **更新频率**: 每日自动更新",
		"",
		"## 🔗 快速导航",
		"",
		"### 最近一周",
		"",
	)
	recent := sorted
	if len(recent) > recentDays {
		recent = recent[:recentDays]
	}
	for _, d := range recent {
		p.add(historyLink(src, d))
	}
	p.add("", "---", "*最后更新: "+now.Format(stampLayout)+"*")

	return withHeader(FrontMatter{
		Title:       title,
		Description: fmt.Sprintf("%s 每日%s历史记录", src.Label, src.Noun),
	}, &p)
}

func historyLink(src Source, d time.Time) string {
	return fmt.Sprintf("- [%s](./%s)", d.Format("01月02日"), src.FileName(d))
}

// dateSpan expects dates sorted newest first.
func dateSpan(sorted []time.Time) string {
	if len(sorted) == 0 {
		return "无数据"
	}
	newest, oldest := sorted[0], sorted[len(sorted)-1]
	if newest.Equal(oldest) {
		return oldest.Format(dayLayout)
	}
	return oldest.Format(dayLayout) + " - " + newest.Format(dayLayout)
}
