package render

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	text := "$[title(My Page)]\n" +
		"$[lang(\"de\")]\n" +
		"# Heading\n" +
		"$[style(/base.css)]\n" +
		"$[stylesheet('/print.css')]\n" +
		"$[desc(A short page)]\n" +
		"$[keywords(go, markdown)]\n" +
		"Some text.\n"

	meta, body := Extract(text)

	if meta.Title != "My Page" {
		t.Errorf("Expected title 'My Page', got '%s'", meta.Title)
	}
	if meta.Language != "de" {
		t.Errorf("Expected language 'de', got '%s'", meta.Language)
	}
	if meta.Charset != "UTF-8" {
		t.Errorf("Expected default charset 'UTF-8', got '%s'", meta.Charset)
	}
	if meta.Description != "A short page" {
		t.Errorf("Expected description 'A short page', got '%s'", meta.Description)
	}
	expectedStyles := []string{"/base.css", "/print.css"}
	if !reflect.DeepEqual(meta.Stylesheets, expectedStyles) {
		t.Errorf("Expected stylesheets %v, got %v", expectedStyles, meta.Stylesheets)
	}
	if meta.Other["keywords"] != "go, markdown" {
		t.Errorf("Expected keywords meta, got %v", meta.Other)
	}

	expectedBody := "# Heading\nSome text.\n"
	if body != expectedBody {
		t.Errorf("Expected body %q, got %q", expectedBody, body)
	}
}

func TestExtractDefaults(t *testing.T) {
	meta, body := Extract("# Hi")

	if meta.Language != "en" || meta.Charset != "UTF-8" || meta.Title != "" {
		t.Errorf("Unexpected defaults: %+v", meta)
	}
	if body != "# Hi" {
		t.Errorf("Expected body to be unchanged, got %q", body)
	}
}

func TestExtractIgnoresNonMetadataLines(t *testing.T) {
	testCases := []string{
		"$[title]",
		" $[title(indented)]",
		"$[title(trailing)] ",
		"Price: $[5(USD)] each",
	}

	for _, line := range testCases {
		t.Run(line, func(t *testing.T) {
			meta, body := Extract(line)
			if body != line {
				t.Errorf("Expected line to be kept, got %q", body)
			}
			if meta.Title != "" || len(meta.Other) != 0 {
				t.Errorf("Expected no metadata, got %+v", meta)
			}
		})
	}
}

func TestExtractTemplates(t *testing.T) {
	meta, _ := Extract("$[template(base.html)]\n$[template(nav.html)]")

	if len(meta.Templates) != 2 {
		t.Errorf("Expected 2 templates, got %v", meta.Templates)
	}
}

func TestExtractCRLF(t *testing.T) {
	meta, body := Extract("$[author(Niels)]\r\nText\r\n")

	if meta.Author != "Niels" {
		t.Errorf("Expected author 'Niels', got '%s'", meta.Author)
	}
	if body != "Text\n" {
		t.Errorf("Expected body %q, got %q", "Text\n", body)
	}
}
