package render

import (
	"strings"
	"unicode"
)

// Metadata describes the document head built around rendered Markdown.
// Empty Author, Description and Icon mean the tag is left out.
type Metadata struct {
	Language string
	Charset  string
	Title    string

	Author      string
	Description string
	Icon        string

	Stylesheets []string
	Templates   []string
	Other       map[string]string
}

// DefaultMetadata returns the metadata used when a document declares none
func DefaultMetadata() Metadata {
	return Metadata{
		Language: "en",
		Charset:  "UTF-8",
		Other:    make(map[string]string),
	}
}

// Extract pulls $[key(value)] lines out of text. It returns the collected
// metadata and the remaining lines joined with newlines.
func Extract(text string) (Metadata, string) {
	meta := DefaultMetadata()

	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		key, val, ok := parseMetaLine(line)
		if !ok {
			kept = append(kept, line)
			continue
		}

		switch key {
		case "language", "lang":
			meta.Language = val
		case "charset":
			meta.Charset = val
		case "title":
			meta.Title = val
		case "author":
			meta.Author = val
		case "description", "desc":
			meta.Description = val
		case "icon":
			meta.Icon = val
		case "stylesheet", "style":
			meta.Stylesheets = append(meta.Stylesheets, val)
		case "template":
			meta.Templates = append(meta.Templates, val)
		default:
			meta.Other[key] = val
		}
	}

	return meta, strings.Join(kept, "\n")
}

// parseMetaLine splits "$[key(value)]" into key and value. The value is
// trimmed of whitespace and quotes.
func parseMetaLine(line string) (key, val string, ok bool) {
	if !strings.HasPrefix(line, "$[") || !strings.HasSuffix(line, ")]") || len(line) < 4 {
		return "", "", false
	}

	key, val, ok = strings.Cut(line[2:len(line)-2], "(")
	if !ok {
		return "", "", false
	}

	val = strings.TrimFunc(val, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\''
	})
	return key, val, true
}
