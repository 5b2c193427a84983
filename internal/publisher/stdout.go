package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryosukesatoh/daily-hot/internal/normalize"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

// StdoutPublisher prints the digest to stdout.
type StdoutPublisher struct {
	w io.Writer
}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{w: os.Stdout}
}

func (p *StdoutPublisher) Name() string { return "stdout" }

func (p *StdoutPublisher) Publish(_ context.Context, digest *translator.Digest) error {
	w := p.w
	rule := strings.Repeat("=", 72)
	sep := strings.Repeat("-", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Daily Hot: %s\n", digest.Date.Format("2006-01-02"))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "GitHub Trending (%d)\n", len(digest.Repositories))
	fmt.Fprintln(w, sep)
	for i, r := range digest.Repositories {
		fmt.Fprintf(w, "%d. %s  [%s stars, %s]\n", i+1, r.Name, normalize.FormatCount(r.Stars), orDash(r.Language))
		fmt.Fprintf(w, "   %s\n", r.URL)
		printText(w, r.DescriptionZh, r.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Product Hunt (%d)\n", len(digest.Products))
	fmt.Fprintln(w, sep)
	for i, p := range digest.Products {
		fmt.Fprintf(w, "%d. %s  [%s votes]\n", i+1, p.Name, normalize.FormatCount(p.Votes))
		fmt.Fprintf(w, "   %s\n", p.URL)
		printText(w, p.DescriptionZh, p.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Hacker News (%d)\n", len(digest.Stories))
	fmt.Fprintln(w, sep)
	for i, s := range digest.Stories {
		fmt.Fprintf(w, "%d. %s  [%d points, %d comments]\n", i+1, s.Title, s.Score, s.Comments)
		if s.URL != "" {
			fmt.Fprintf(w, "   %s\n", s.URL)
		}
		printText(w, s.SummaryZh, "")
	}

	fmt.Fprintln(w, rule)
	return nil
}

func printText(w io.Writer, primary, fallback string) {
	text := primary
	if text == "" {
		text = fallback
	}
	if text != "" {
		fmt.Fprintf(w, "   %s\n", text)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
