package render

import (
	"html/template"
	"sort"
	"strings"

	"github.com/niels/mdserve/pkg/logging"
)

type metaTag struct {
	Name    string
	Content string
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Meta.Language}}">
    <head>
        <meta charset="{{.Meta.Charset}}">
{{- with .Meta.Author}}
        <meta name="author" content="{{.}}">
{{- end}}
{{- with .Meta.Description}}
        <meta name="description" content="{{.}}">
{{- end}}
{{- with .Meta.Icon}}
        <link rel="icon" href="{{.}}">
{{- end}}
{{- range .Other}}
        <meta name="{{.Name}}" content="{{.Content}}">
{{- end}}
        <title>{{.Meta.Title}}</title>
{{- range .Meta.Stylesheets}}
        <link rel="stylesheet" href="{{.}}">
{{- end}}
    </head>
    <body>
        {{.Body}}
    </body>
</html>`))

// FormatDocument wraps an HTML body in a complete document built from meta
func FormatDocument(meta Metadata, body string) string {
	if len(meta.Templates) > 0 {
		logging.WarnWith("Markdown templates are not supported yet", map[string]interface{}{
			"templates": meta.Templates,
		})
	}

	other := make([]metaTag, 0, len(meta.Other))
	for name, content := range meta.Other {
		other = append(other, metaTag{Name: name, Content: content})
	}
	sort.Slice(other, func(i, j int) bool { return other[i].Name < other[j].Name })

	var sb strings.Builder
	err := documentTemplate.Execute(&sb, struct {
		Meta  Metadata
		Other []metaTag
		Body  template.HTML
	}{
		Meta:  meta,
		Other: other,
		Body:  template.HTML(strings.TrimSpace(body)),
	})
	if err != nil {
		// Only reachable through a broken template; fall back to the bare body
		logging.ErrorWith("Failed to format document", map[string]interface{}{
			"error": err,
		})
		return body
	}

	return sb.String()
}
