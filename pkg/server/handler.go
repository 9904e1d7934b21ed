package server

import (
	"errors"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/niels/mdserve/pkg/http1"
)

const (
	notFoundBody      = "404 Not Found"
	internalErrorBody = "500 Internal Server Error"
)

// target is a request path resolved to a file under the host root
type target struct {
	rel    string // slash-separated, relative to the root
	render bool
}

// handleConn serves exactly one request on conn and closes it
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	remote := conn.RemoteAddr().String()

	if s.host.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(start.Add(s.host.ReadTimeout)); err != nil {
			s.logger.Debug().Err(err).Str("remote", remote).Msg("failed to set read deadline")
		}
	}

	req, err := http1.ReadRequest(conn)
	if err != nil {
		s.malformed.Add(1)
		s.logger.Warn().Err(err).Str("remote", remote).Msg("dropping connection")
		return
	}

	res := http1.NewResponse(conn)
	s.serve(req, res)

	res.SetHeader("Content-Length", res.ContentLength()).
		SetHeader("Connection", "close")

	if s.host.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.host.WriteTimeout)); err != nil {
			s.logger.Debug().Err(err).Str("remote", remote).Msg("failed to set write deadline")
		}
	}
	if err := res.Send(); err != nil {
		s.logger.Error().Err(err).Str("remote", remote).Str("path", req.Path).Msg("failed to send response")
		return
	}

	s.logger.Info().
		Str("remote", remote).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", res.Status()).
		Int("bytes", res.Len()).
		Dur("duration", time.Since(start)).
		Msg("request served")
}

// serve fills res for req from the host root
func (s *Server) serve(req *http1.Request, res *http1.Response) {
	t, ok := resolvePath(req.Path, s.host.SourceExt, s.host.IndexName)
	if !ok {
		s.notFound.Add(1)
		writeNotFound(res)
		return
	}

	file := filepath.Join(s.host.Root, filepath.FromSlash(t.rel))
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.notFound.Add(1)
			writeNotFound(res)
			return
		}
		s.internalError(res, file, err)
		return
	}

	if t.render {
		if !utf8.Valid(data) {
			s.internalError(res, file, errors.New("document is not valid UTF-8"))
			return
		}
		data = []byte(s.renderer.Render(string(data)))
		// Rendered documents are always HTML, whatever the source extension
		res.SetHeader("Content-Type", http1.MimeType("html"))
	} else {
		res.SetHeader("Content-Type", http1.MimeType(path.Ext(t.rel)))
	}

	s.served.Add(1)
	res.SetStatus(200)
	res.Write(data)
}

func (s *Server) internalError(res *http1.Response, file string, cause error) {
	s.failed.Add(1)
	s.logger.Error().Err(cause).Str("file", file).Msg("error serving file")

	res.SetStatus(500).SetHeader("Content-Type", "text/plain")
	res.Write([]byte(internalErrorBody))
}

func writeNotFound(res *http1.Response) {
	res.SetStatus(404).SetHeader("Content-Type", "text/plain")
	res.Write([]byte(notFoundBody))
}

// resolvePath maps a request path to a file relative to the root.
// Query and fragment are dropped, the path is percent-decoded and cleaned
// against "/" so it can never climb above the root. ".html" paths and
// extension-less paths resolve to source documents that must be rendered.
func resolvePath(reqPath, sourceExt, indexName string) (target, bool) {
	p, _, _ := strings.Cut(reqPath, "?")
	p, _, _ = strings.Cut(p, "#")

	p, err := url.PathUnescape(p)
	if err != nil || strings.ContainsRune(p, 0) {
		return target{}, false
	}

	rel := strings.TrimPrefix(path.Clean("/"+p), "/")

	switch ext := path.Ext(rel); ext {
	case ".html":
		return target{rel: strings.TrimSuffix(rel, ext) + "." + sourceExt, render: true}, true
	case "":
		return target{rel: path.Join(rel, indexName+"."+sourceExt), render: true}, true
	default:
		return target{rel: rel}, true
	}
}
