package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ErrResponseSent is returned when a response is used after Send
var ErrResponseSent = errors.New("response already sent")

// Response accumulates a status, headers and a body and writes them
// to the connection in one Send call.
type Response struct {
	w       io.Writer
	status  int
	headers map[string]string
	body    bytes.Buffer
	sent    bool
}

// NewResponse creates a 200 response that will be written to w
func NewResponse(w io.Writer) *Response {
	return &Response{
		w:       w,
		status:  200,
		headers: make(map[string]string),
	}
}

// SetStatus sets the status code. Ignored once the response is sent.
func (r *Response) SetStatus(status int) *Response {
	if !r.sent {
		r.status = status
	}
	return r
}

// SetHeader sets a header, replacing any earlier value. Ignored once the response is sent.
func (r *Response) SetHeader(name, value string) *Response {
	if !r.sent {
		r.headers[name] = value
	}
	return r
}

// Status returns the current status code
func (r *Response) Status() int {
	return r.status
}

// Write appends p to the body
func (r *Response) Write(p []byte) (int, error) {
	if r.sent {
		return 0, ErrResponseSent
	}
	return r.body.Write(p)
}

// Len returns the number of body bytes written so far
func (r *Response) Len() int {
	return r.body.Len()
}

// Send writes the status line, headers and body, then flushes.
// It may be called only once.
func (r *Response) Send() error {
	if r.sent {
		return ErrResponseSent
	}
	r.sent = true

	bw := bufio.NewWriter(r.w)

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", r.status, StatusText(r.status))

	// Header order is not significant; sorting keeps the output stable
	names := make([]string, 0, len(r.headers))
	for name := range r.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(bw, "%s: %s\r\n", name, r.headers[name])
	}
	bw.WriteString("\r\n")

	if _, err := bw.Write(r.body.Bytes()); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// StatusText returns the reason phrase for the status codes the server produces
func StatusText(status int) string {
	switch status {
	case 200:
		return "OK"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return ""
	}
}

// ContentLength formats the body length for a Content-Length header
func (r *Response) ContentLength() string {
	return strconv.Itoa(r.body.Len())
}
