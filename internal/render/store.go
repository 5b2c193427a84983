package render

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

// Store writes rendered pages under the site's docs directory.
type Store struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, now: time.Now, logger: logger.With("component", "render")}
}

// Dir is the output directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) write(name, content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("render: create output dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("render: write %s: %w", name, err)
	}
	s.logger.Info("Page written", "path", path)
	return path, nil
}

// WriteDaily writes the three daily pages for the digest's date. Every page is
// attempted; the returned error joins the failures.
func (s *Store) WriteDaily(d *translator.Digest) ([]string, error) {
	type job struct {
		src    Source
		render func() (string, error)
	}
	jobs := []job{
		{GitHub, func() (string, error) { return GitHubPage(d.Repositories, d.Date) }},
		{ProductHunt, func() (string, error) { return ProductHuntPage(d.Products, d.Date) }},
		{HackerNews, func() (string, error) { return HackerNewsPage(d.Stories, d.Date) }},
	}

	var paths []string
	var errs []error
	for _, j := range jobs {
		content, err := j.render()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path, err := s.write(j.src.FileName(d.Date), content)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// WriteIndex writes index.md for the digest.
func (s *Store) WriteIndex(d *translator.Digest) (string, error) {
	content, err := IndexPage(d, s.now())
	if err != nil {
		return "", err
	}
	return s.write("index.md", content)
}

// WriteHistory regenerates the history page of every source from the daily
// pages currently on disk.
func (s *Store) WriteHistory() error {
	var errs []error
	for _, src := range Sources {
		dates, err := s.Dates(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		content, err := HistoryPage(src, dates, s.now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := s.write(src.HistoryFile(), content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dates lists the dates of src's daily pages, newest first. Files matching the
// prefix whose suffix is not a date are skipped.
func (s *Store) Dates(src Source) ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, src.Prefix+"-*.md"))
	if err != nil {
		return nil, fmt.Errorf("render: glob %s: %w", src.Prefix, err)
	}
	var dates []time.Time
	for _, m := range matches {
		if t, ok := src.ParseFileName(filepath.Base(m)); ok {
			dates = append(dates, t)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}
