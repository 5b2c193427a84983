package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// HTML converts a rendered page to an HTML fragment. The front matter is
// dropped and its title returned separately.
func HTML(doc []byte) (string, []byte, error) {
	fm, body, err := SplitFrontMatter(doc)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return "", nil, fmt.Errorf("render: convert markdown: %w", err)
	}
	return fm.Title, buf.Bytes(), nil
}
