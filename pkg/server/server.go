// Package server drives the connection dispatcher: it drains the
// listener's accepted connections, hands each one to the worker pool
// and answers it with a rendered document or a static file.
package server

import (
	"sync/atomic"
	"time"

	"github.com/niels/mdserve/pkg/listener"
	"github.com/niels/mdserve/pkg/logging"
	"github.com/niels/mdserve/pkg/workerpool"
	"github.com/rs/zerolog"
)

// Renderer converts Markdown source text to an HTML document
type Renderer interface {
	Render(text string) string
}

// HostConfig describes the content served. It must not change while the
// server runs.
type HostConfig struct {
	// Root is the directory request paths are resolved against
	Root string
	// SourceExt is the extension of documents that are rendered, without the dot
	SourceExt string
	// IndexName is the document served for extension-less paths
	IndexName string
	// ReadTimeout and WriteTimeout bound each connection; zero disables them
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultHostConfig serves Markdown from root
func DefaultHostConfig(root string) HostConfig {
	return HostConfig{
		Root:      root,
		SourceExt: "md",
		IndexName: "index",
	}
}

// Stats counts what happened to the connections a server handled
type Stats struct {
	Accepted     uint64
	AcceptErrors uint64
	Served       uint64
	NotFound     uint64
	Failed       uint64
	Malformed    uint64
	Rejected     uint64
}

// Server is the dispatcher that owns a listener and a worker pool
type Server struct {
	listener *listener.Listener
	pool     *workerpool.Pool
	host     HostConfig
	renderer Renderer
	logger   zerolog.Logger

	accepted     atomic.Uint64
	acceptErrors atomic.Uint64
	served       atomic.Uint64
	notFound     atomic.Uint64
	failed       atomic.Uint64
	malformed    atomic.Uint64
	rejected     atomic.Uint64
}

// New creates a server. It takes ownership of l and p.
func New(l *listener.Listener, p *workerpool.Pool, host HostConfig, r Renderer) *Server {
	if host.SourceExt == "" {
		host.SourceExt = "md"
	}
	if host.IndexName == "" {
		host.IndexName = "index"
	}

	return &Server{
		listener: l,
		pool:     p,
		host:     host,
		renderer: r,
		logger:   logging.WithComponent("server"),
	}
}

// Run submits one job per accepted connection until the listener is shut
// down, then drains the worker pool and waits for the accept loop to exit.
// Every connection accepted before shutdown is served before Run returns.
func (s *Server) Run() Stats {
	s.logger.Info().
		Str("addr", s.listener.Addr().String()).
		Str("root", s.host.Root).
		Int("workers", s.pool.Size()).
		Msg("serving connections")

	for conn, err := range s.listener.Incoming() {
		if err != nil {
			s.acceptErrors.Add(1)
			s.logger.Warn().Err(err).Msg("accept error")
			continue
		}

		s.accepted.Add(1)
		if err := s.pool.Execute(func() { s.handleConn(conn) }); err != nil {
			s.rejected.Add(1)
			s.logger.Error().Err(err).Msg("failed to submit connection")
			conn.Close()
		}
	}

	s.logger.Info().Msg("listener closed, draining in-flight connections")
	s.pool.Shutdown()
	s.listener.Wait()

	stats := s.Stats()
	s.logger.Info().
		Uint64("accepted", stats.Accepted).
		Uint64("served", stats.Served).
		Uint64("not_found", stats.NotFound).
		Uint64("failed", stats.Failed).
		Uint64("malformed", stats.Malformed).
		Msg("server stopped")

	return stats
}

// Stats returns a snapshot of the connection counters
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:     s.accepted.Load(),
		AcceptErrors: s.acceptErrors.Load(),
		Served:       s.served.Load(),
		NotFound:     s.notFound.Load(),
		Failed:       s.failed.Load(),
		Malformed:    s.malformed.Load(),
		Rejected:     s.rejected.Load(),
	}
}
