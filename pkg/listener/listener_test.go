package listener

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/niels/mdserve/pkg/logging"
)

func init() {
	logging.SetOutput(io.Discard)
}

func bindLoopback(t *testing.T) (*Listener, *ShutdownHandle) {
	t.Helper()
	l, h, err := Bind("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to bind: %v", err)
	}
	return l, h
}

// drain consumes Incoming in the background and reports what it saw
func drain(l *Listener) (<-chan []net.Conn, <-chan struct{}) {
	result := make(chan []net.Conn, 1)
	finished := make(chan struct{})
	go func() {
		var conns []net.Conn
		for conn, err := range l.Incoming() {
			if err == nil {
				conns = append(conns, conn)
			}
		}
		close(finished)
		result <- conns
	}()
	return result, finished
}

func TestBindInvalidAddress(t *testing.T) {
	testCases := []string{
		"not-an-address",
		"127.0.0.1:99999",
	}

	for _, addr := range testCases {
		t.Run(addr, func(t *testing.T) {
			_, _, err := Bind(addr)
			var bindErr *BindError
			if !errors.As(err, &bindErr) {
				t.Fatalf("Expected BindError, got %v", err)
			}
			if bindErr.Addr != addr {
				t.Errorf("Expected address %s in error, got %s", addr, bindErr.Addr)
			}
		})
	}
}

func TestBindPortInUse(t *testing.T) {
	l, h := bindLoopback(t)
	defer h.Shutdown()

	_, _, err := Bind(l.Addr().String())
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Expected BindError for a port in use, got %v", err)
	}
}

func TestShutdownWithoutConnectionsEndsSequence(t *testing.T) {
	l, h := bindLoopback(t)

	if err := l.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	result, finished := drain(l)

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Incoming did not end after shutdown")
	}
	if conns := <-result; len(conns) != 0 {
		t.Errorf("Expected no connections, got %d", len(conns))
	}

	waited := make(chan struct{})
	go func() {
		l.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after shutdown")
	}
}

func TestAcceptedConnectionsAreYielded(t *testing.T) {
	l, h := bindLoopback(t)

	accepted := make(chan net.Conn)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for conn, err := range l.Incoming() {
			if err == nil {
				accepted <- conn
			}
		}
	}()

	const clients = 3
	for i := 0; i < clients; i++ {
		c, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer c.Close()

		select {
		case conn := <-accepted:
			conn.Close()
		case <-time.After(2 * time.Second):
			t.Fatalf("Connection %d was not yielded", i+1)
		}
	}

	h.Shutdown()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Incoming did not end after shutdown")
	}
	l.Wait()
}

func TestEventsEndWithClosed(t *testing.T) {
	l, h := bindLoopback(t)
	l.Listen()
	h.Shutdown()

	var last Event
	for ev := range l.Events() {
		last = ev
	}

	if _, ok := last.(Closed); !ok {
		t.Errorf("Expected Closed as the terminal event, got %T", last)
	}
}

func TestListenTwice(t *testing.T) {
	l, h := bindLoopback(t)
	defer func() {
		h.Shutdown()
		for range l.Events() {
		}
	}()

	if err := l.Listen(); err != nil {
		t.Fatalf("First Listen failed: %v", err)
	}
	if err := l.Listen(); !errors.Is(err, ErrAlreadyListening) {
		t.Errorf("Expected ErrAlreadyListening, got %v", err)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	l, h := bindLoopback(t)
	_, finished := drain(l)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.Shutdown()
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyShutdown):
		default:
			t.Errorf("Unexpected shutdown error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly one effective shutdown, got %d", succeeded)
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Incoming did not end after shutdown")
	}
}

func TestWaitWithoutListen(t *testing.T) {
	l, h := bindLoopback(t)
	defer h.Shutdown()

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a listener that never started")
	}
}

func TestStoppingEarlyDoesNotBlockShutdown(t *testing.T) {
	l, h := bindLoopback(t)

	first, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer first.Close()

	for conn, err := range l.Incoming() {
		if err != nil {
			t.Fatalf("Unexpected accept error: %v", err)
		}
		conn.Close()
		break
	}

	// Nobody ranges anymore, so this connection must be closed for us
	second, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := second.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("Expected the unserved connection to be closed, got %v", err)
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	waited := make(chan struct{})
	go func() {
		l.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		t.Fatal("Wait did not return after shutdown")
	}
}
