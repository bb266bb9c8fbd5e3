package converter

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Document is the structured result of converting one markdown source
type Document struct {
	HTML        []byte
	ContentType string
}

// GoldmarkConverter renders markdown into HTML documents using goldmark.
// Stateless; a single instance can be shared across jobs without locking.
type GoldmarkConverter struct {
	engine goldmark.Markdown
}

// NewGoldmarkConverter constructs a converter with GFM extensions, linkify,
// task lists, and auto heading IDs.
func NewGoldmarkConverter() *GoldmarkConverter {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return &GoldmarkConverter{engine: engine}
}

// Convert renders one markdown source into a Document
func (c *GoldmarkConverter) Convert(markdown string) (Document, error) {
	var buf bytes.Buffer
	if err := c.engine.Convert([]byte(markdown), &buf); err != nil {
		return Document{}, fmt.Errorf("markdown convert: %w", err)
	}

	return Document{
		HTML:        buf.Bytes(),
		ContentType: "text/html",
	}, nil
}
