package scraper

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/ryosukesatoh/daily-hot/internal/normalize"
)

// Strategy is one way of locating the entry elements of a listing page.
// It is accepted when Find yields at least Min elements.
type Strategy struct {
	Name string
	Min  int
	Find func(doc *goquery.Document) *goquery.Selection
}

// Locate tries strategies in order and returns the first sufficient match
// together with the name of the strategy that produced it. It returns an
// empty selection and "" when every strategy falls short.
func Locate(doc *goquery.Document, strategies []Strategy) (*goquery.Selection, string) {
	for _, s := range strategies {
		sel := s.Find(doc)
		if sel == nil {
			continue
		}
		need := s.Min
		if need < 1 {
			need = 1
		}
		if sel.Length() >= need {
			return sel, s.Name
		}
	}
	return doc.Selection.Slice(0, 0), ""
}

// CSS builds a strategy from a CSS selector.
func CSS(selector string, min int) Strategy {
	return Strategy{
		Name: selector,
		Min:  min,
		Find: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector)
		},
	}
}

// AnchorParents is the structural fallback: it finds anchors whose href
// matches pattern and returns their nearest div or article ancestors,
// de-duplicated and in document order. Only the first limit anchors are
// considered when limit > 0.
func AnchorParents(pattern *regexp.Regexp, limit, min int) Strategy {
	return Strategy{
		Name: "anchor-parents " + pattern.String(),
		Min:  min,
		Find: func(doc *goquery.Document) *goquery.Selection {
			if len(doc.Nodes) == 0 {
				return nil
			}
			anchors, err := htmlquery.QueryAll(doc.Nodes[0], "//a[@href]")
			if err != nil {
				return nil
			}

			seen := make(map[*html.Node]bool)
			var parents []*html.Node
			matched := 0
			for _, a := range anchors {
				if !pattern.MatchString(htmlquery.SelectAttr(a, "href")) {
					continue
				}
				matched++
				if limit > 0 && matched > limit {
					break
				}
				p := containerOf(a)
				if p == nil || seen[p] {
					continue
				}
				seen[p] = true
				parents = append(parents, p)
			}
			return doc.FindNodes(parents...)
		},
	}
}

func containerOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.Data == "div" || p.Data == "article") {
			return p
		}
	}
	return nil
}

// firstText returns the collapsed text of the first selector that matches
// a non-empty element inside sel.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		var text string
		sel.Find(s).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text = normalize.CollapseSpace(el.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the attribute value of the first element matched by any
// of the selectors that carries it.
func firstAttr(sel *goquery.Selection, attr string, selectors ...string) string {
	for _, s := range selectors {
		var val string
		sel.Find(s).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			v, ok := el.Attr(attr)
			val = strings.TrimSpace(v)
			return !ok || val == ""
		})
		if val != "" {
			return val
		}
	}
	return ""
}

// allText returns the collapsed, non-empty text of every element matched by
// selector, in order.
func allText(sel *goquery.Selection, selector string) []string {
	var out []string
	sel.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if t := normalize.CollapseSpace(el.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// parseEntries applies parse to every entry. An entry that yields no record
// or panics is logged and skipped; the rest are kept.
func parseEntries[T any](entries *goquery.Selection, logger *slog.Logger, kind string, parse func(*goquery.Selection) (T, bool)) []T {
	var out []T
	entries.Each(func(i int, entry *goquery.Selection) {
		v, ok := parseEntry(entry, logger, i, parse)
		if !ok {
			logger.Warn("skipping entry without "+kind+" name", "index", i)
			return
		}
		out = append(out, v)
	})
	return out
}

func parseEntry[T any](entry *goquery.Selection, logger *slog.Logger, index int, parse func(*goquery.Selection) (T, bool)) (v T, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("entry parse panicked", "index", index, "panic", rec)
			var zero T
			v, ok = zero, false
		}
	}()
	return parse(entry)
}
