package http1

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxRequestSize is the size of the single read used to receive a request.
// Anything a client sends past this point is never read.
const MaxRequestSize = 4096

// ErrMalformedRequest is returned for any request that cannot be parsed
var ErrMalformedRequest = errors.New("malformed request")

var headerEnd = []byte("\r\n\r\n")

// Request is a parsed HTTP/1.1 request
type Request struct {
	Method  string
	Path    string
	Version string
	// Headers is keyed by lower-cased header name; the last duplicate wins
	Headers map[string]string
	// Body holds whatever followed the header block in the initial read
	Body []byte
}

// Header returns the value of the named header, case-insensitively
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// ReadRequest reads at most MaxRequestSize bytes from r with a single read
// and parses them as a request.
func ReadRequest(r io.Reader) (*Request, error) {
	buf := make([]byte, MaxRequestSize)
	n, err := r.Read(buf)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return ParseRequest(buf[:n])
}

// ParseRequest parses a raw request buffer
func ParseRequest(data []byte) (*Request, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid text encoding", ErrMalformedRequest)
	}

	head, body, found := bytes.Cut(data, headerEnd)
	if !found {
		return nil, fmt.Errorf("%w: no header end", ErrMalformedRequest)
	}

	lines := strings.Split(string(head), "\r\n")

	method, path, version, err := parseStartLine(lines[0])
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		Path:    path,
		Version: version,
		Headers: headers,
		Body:    body,
	}, nil
}

func parseStartLine(line string) (method, path, version string, err error) {
	if line == "" {
		return "", "", "", fmt.Errorf("%w: missing start line", ErrMalformedRequest)
	}

	parts := strings.Split(line, " ")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("%w: invalid start line %q", ErrMalformedRequest, line)
	}

	return strings.ToUpper(parts[0]), parts[1], parts[2], nil
}

func parseHeaders(lines []string) (map[string]string, error) {
	headers := make(map[string]string, len(lines))

	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: header line without separator %q", ErrMalformedRequest, line)
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	return headers, nil
}
