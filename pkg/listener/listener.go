package listener

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"sync/atomic"
	"time"

	"github.com/niels/mdserve/pkg/logging"
	"github.com/niels/mdserve/pkg/retry"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyListening is returned when Listen is called a second time
	ErrAlreadyListening = errors.New("listener is already accepting")
	// ErrAlreadyShutdown is returned by every Shutdown call after the first
	ErrAlreadyShutdown = errors.New("listener already shut down")
)

// BindError reports a failure to create the listening socket
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Option configures a Listener
type Option func(*Listener)

// WithBackoff sets the delay policy applied after a transient accept error
func WithBackoff(opts retry.Options) Option {
	return func(l *Listener) {
		l.backoff = opts
	}
}

// Listener owns a bound TCP socket and the single accept loop running on it
type Listener struct {
	ln      net.Listener
	backoff retry.Options
	logger  zerolog.Logger

	events  chan Event
	started atomic.Bool
	done    chan struct{}
}

// ShutdownHandle closes the socket of the Listener it was bound with.
// It may be shared between goroutines.
type ShutdownHandle struct {
	ln     net.Listener
	closed atomic.Bool
}

// Bind creates a listening TCP socket on address with address reuse enabled
func Bind(address string, opts ...Option) (*Listener, *ShutdownHandle, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	ln, err := lc.Listen(context.Background(), "tcp", address)
	if err != nil {
		return nil, nil, &BindError{Addr: address, Err: err}
	}

	l := &Listener{
		ln:      ln,
		backoff: retry.DefaultOptions(),
		logger:  logging.WithComponent("listener"),
		events:  make(chan Event),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, &ShutdownHandle{ln: ln}, nil
}

// Addr returns the bound address
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Listen starts the accept loop
func (l *Listener) Listen() error {
	if !l.start() {
		return ErrAlreadyListening
	}
	return nil
}

// Events returns the accept loop's event stream. The channel is closed
// right after Closed is delivered.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Incoming yields each accepted connection, or a transient accept error,
// and ends once the listener is shut down. It starts the accept loop if
// Listen has not been called. The sequence cannot be restarted; if the
// consumer stops early, later connections are closed until shutdown.
func (l *Listener) Incoming() iter.Seq2[net.Conn, error] {
	l.start()

	return func(yield func(net.Conn, error) bool) {
		for ev := range l.events {
			switch e := ev.(type) {
			case Accepted:
				if !yield(e.Conn, nil) {
					go l.discard()
					return
				}
			case AcceptError:
				if !yield(nil, e.Err) {
					go l.discard()
					return
				}
			case Closed:
				return
			}
		}
	}
}

// Wait blocks until the accept loop has exited. It returns at once if the
// loop was never started.
func (l *Listener) Wait() {
	if !l.started.Load() {
		return
	}
	<-l.done
}

// discard keeps the accept loop unblocked after the consumer stopped
// ranging, closing every connection nobody will serve
func (l *Listener) discard() {
	for ev := range l.events {
		if a, ok := ev.(Accepted); ok {
			a.Conn.Close()
		}
	}
}

func (l *Listener) start() bool {
	if !l.started.CompareAndSwap(false, true) {
		return false
	}
	go l.acceptLoop()
	return true
}

func (l *Listener) acceptLoop() {
	defer close(l.done)
	defer close(l.events)

	l.logger.Debug().Str("addr", l.ln.Addr().String()).Msg("accept loop started")
	backoff := retry.NewBackoff(l.backoff)

	for {
		conn, err := l.ln.Accept()
		if err == nil {
			backoff.Reset()
			l.events <- Accepted{Conn: conn}
			continue
		}

		if errors.Is(err, net.ErrClosed) {
			l.logger.Debug().Msg("listening socket closed, accept loop exiting")
			l.events <- Closed{}
			return
		}

		delay := backoff.Next()
		l.logger.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
		l.events <- AcceptError{Err: err}
		time.Sleep(delay)
	}
}

// Shutdown closes the listening socket, which ends the accept loop with a
// Closed event. Only the first call has an effect; later calls return
// ErrAlreadyShutdown.
func (h *ShutdownHandle) Shutdown() error {
	if !h.closed.CompareAndSwap(false, true) {
		return ErrAlreadyShutdown
	}
	if err := h.ln.Close(); err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	return nil
}
