package render

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/niels/mdserve/pkg/logging"
)

func TestRenderHeading(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("# Hi")

	requiredContent := []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		`<meta charset="UTF-8">`,
		"<title></title>",
		"<h1>Hi</h1>",
	}
	for _, content := range requiredContent {
		if !strings.Contains(out, content) {
			t.Errorf("Rendered output missing %q:\n%s", content, out)
		}
	}
}

func TestRenderWithMetadata(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("$[title(Notes)]\n$[author(Niels)]\n$[icon(/favicon.ico)]\n$[style(/site.css)]\n$[robots(noindex)]\n\nHello *world*")

	requiredContent := []string{
		"<title>Notes</title>",
		`<meta name="author" content="Niels">`,
		`<link rel="icon" href="/favicon.ico">`,
		`<link rel="stylesheet" href="/site.css">`,
		`<meta name="robots" content="noindex">`,
		"<p>Hello <em>world</em></p>",
	}
	for _, content := range requiredContent {
		if !strings.Contains(out, content) {
			t.Errorf("Rendered output missing %q:\n%s", content, out)
		}
	}
	if strings.Contains(out, "$[") {
		t.Errorf("Metadata lines should be stripped from the body:\n%s", out)
	}
}

func TestRenderEscapesMetadata(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("$[title(<script>alert(1)</script>)]\ntext")

	if strings.Contains(out, "<title><script>") {
		t.Errorf("Title should be escaped:\n%s", out)
	}
}

func TestRenderPassesRawHTML(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("<div class=\"note\">raw</div>\n")

	if !strings.Contains(out, `<div class="note">raw</div>`) {
		t.Errorf("Raw HTML should pass through:\n%s", out)
	}
}

func TestRenderHighlightsCode(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("```go\nfunc main() {}\n```\n")

	if !strings.Contains(out, "<pre") || !strings.Contains(out, "style=") {
		t.Errorf("Expected highlighted code block:\n%s", out)
	}
	if strings.Contains(out, "```") {
		t.Errorf("Fence markers should not appear in output:\n%s", out)
	}
}

func TestRenderPlainCodeBlock(t *testing.T) {
	r := New(DefaultOptions())

	out := r.Render("```\nif a < b {}\n```\n")

	if !strings.Contains(out, "<pre><code>if a &lt; b {}") {
		t.Errorf("Expected escaped plain code block:\n%s", out)
	}
}

func TestRenderTemplateWarning(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(io.Discard)

	New(DefaultOptions()).Render("$[template(base.html)]\n# Page")

	if !strings.Contains(buf.String(), "templates are not supported") {
		t.Errorf("Expected a template warning, got: %s", buf.String())
	}
}
