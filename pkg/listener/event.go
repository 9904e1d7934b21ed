package listener

import "net"

// Event is one item produced by the accept loop: Accepted, AcceptError or Closed.
// Closed is always the last event.
type Event interface {
	isEvent()
}

// Accepted carries a newly accepted connection
type Accepted struct {
	Conn net.Conn
}

// AcceptError carries a transient accept failure; the loop keeps running
type AcceptError struct {
	Err error
}

// Closed reports that the listening socket was shut down
type Closed struct{}

func (Accepted) isEvent()    {}
func (AcceptError) isEvent() {}
func (Closed) isEvent()      {}
