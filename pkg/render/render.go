// Package render turns Markdown documents into complete HTML pages.
//
// A document may start with metadata lines of the form $[key(value)], which
// are removed from the text and used to build the page head. The remaining
// Markdown is converted with goldmark (CommonMark plus GitHub extensions) and
// fenced code blocks are highlighted with chroma.
package render

import (
	"bytes"
	"html"

	"github.com/niels/mdserve/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options configures a Renderer
type Options struct {
	// CodeStyle names the chroma style used for code blocks
	CodeStyle string
}

// DefaultOptions returns the default renderer options
func DefaultOptions() Options {
	return Options{CodeStyle: "monokai"}
}

// Renderer converts Markdown text to HTML documents. It is safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	logger zerolog.Logger
}

// New creates a Renderer
func New(opts Options) *Renderer {
	if opts.CodeStyle == "" {
		opts.CodeStyle = DefaultOptions().CodeStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(newCodeBlockRenderer(opts.CodeStyle), 100),
			),
		),
	)

	return &Renderer{
		md:     md,
		logger: logging.WithComponent("render"),
	}
}

// Render converts text to a full HTML document. It never fails; if the
// Markdown cannot be converted the text is shown preformatted.
func (r *Renderer) Render(text string) string {
	meta, body := Extract(text)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		r.logger.Warn().Err(err).Msg("markdown conversion failed, serving source text")
		buf.Reset()
		buf.WriteString("<pre>" + html.EscapeString(body) + "</pre>")
	}

	return FormatDocument(meta, buf.String())
}
