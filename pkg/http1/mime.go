package http1

import "strings"

var mimeTypes = map[string]string{
	"md":   "text/html",
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"mjs":  "application/javascript",

	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"ico":  "image/x-icon",
}

// MimeType maps a file extension, with or without the leading dot, to a
// content type. Unknown extensions are text/plain.
func MimeType(ext string) string {
	if t, ok := mimeTypes[strings.TrimPrefix(ext, ".")]; ok {
		return t
	}
	return "text/plain"
}
