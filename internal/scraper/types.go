// Package scraper collects the daily trending listings: GitHub Trending
// repositories, Product Hunt products and Hacker News stories.
//
// Every source degrades to an empty slice rather than an error. Listing pages
// change without notice, so entries are located with a cascade of selector
// strategies (see Locate) and fetches run under the retry policy of the
// shared httpclient.
package scraper

import "time"

// Insight is the structured analysis attached to a repository or product
// when enrichment is enabled.
type Insight struct {
	Features  []string `json:"features"`
	UseCases  string   `json:"use_cases"`
	CoreValue string   `json:"core_value"`
}

// Empty reports whether the insight carries nothing worth rendering.
func (i *Insight) Empty() bool {
	return i == nil || (len(i.Features) == 0 && i.UseCases == "" && i.CoreValue == "")
}

// Repository is one GitHub Trending entry. Name is "owner/repo".
type Repository struct {
	Name        string
	URL         string
	Description string
	Language    string
	Stars       int
	Forks       int
	TodayStars  int
	Topics      []string

	DescriptionZh string
	Insight       *Insight
}

// Product is one Product Hunt entry.
type Product struct {
	Name        string
	URL         string
	Description string
	Tags        []string
	Votes       int

	DescriptionZh string
	Insight       *Insight
}

// Story is one Hacker News front-page story with the scraped article body.
type Story struct {
	ID       int
	Title    string
	URL      string
	Score    int
	Comments int
	Time     time.Time
	Author   string
	Content  string

	SummaryZh string
}
