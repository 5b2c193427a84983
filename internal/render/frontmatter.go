// Package render turns a digest into the Markdown pages consumed by the
// static site generator: one page per source per day, the home page and a
// history page per source.
//
// Page builders are pure. Store owns the filesystem side.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML header every page starts with.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Date        string   `yaml:"date,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Marshal renders the header between --- fences, followed by a blank line.
func (fm FrontMatter) Marshal() (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("render: encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render: encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	return buf.String(), nil
}

// SplitFrontMatter separates a leading front matter block from the body.
// Documents without one are returned unchanged with a zero header.
func SplitFrontMatter(doc []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	text := string(doc)
	if !strings.HasPrefix(text, "---\n") {
		return fm, doc, nil
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n---") {
			end = len(rest) - len("\n---")
		} else {
			return fm, doc, nil
		}
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, doc, fmt.Errorf("render: decode front matter: %w", err)
	}
	body := rest[end:]
	body = strings.TrimPrefix(body, "\n---")
	body = strings.TrimPrefix(body, "\n")
	return fm, []byte(body), nil
}
