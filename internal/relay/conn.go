// Package relay is the byte-pump engine of a session: a Conn wrapper
// that gives a net.Conn a liveness predicate and an idempotent full
// shutdown, the counting Gate that the two pumps and the session loop
// coordinate through, and the directional Edge pump itself.
package relay

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

// Conn is one leg of a relay session (the client or the target socket).
// Two edges borrow the same Conn, one as source and one as destination,
// so shutdown and close are both idempotent and safe to race.
type Conn struct {
	net.Conn

	label     string
	dead      atomic.Bool
	shutOnce  sync.Once
	closeOnce sync.Once
	onClose   func()
}

// NewConn wraps c.  onClose, if non-nil, runs exactly once when the
// underlying socket is released by [Conn.Close].
func NewConn(c net.Conn, label string, onClose func()) *Conn {
	return &Conn{Conn: c, label: label, onClose: onClose}
}

// Label names the leg in log lines ("client" or "target").
func (c *Conn) Label() string { return c.label }

// Live reports whether the connection may still carry data: false once
// it was shut down or closed, or once a read or write on it failed.
func (c *Conn) Live() bool { return !c.dead.Load() }

// Read reads from the socket.  Any error marks the Conn not live.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.dead.Store(true)
	}
	return n, err
}

// Write writes to the socket.  Any error marks the Conn not live.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		c.dead.Store(true)
	}
	return n, err
}

type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

// Shutdown shuts both directions down.  The peer sees end-of-stream and
// a goroutine blocked in Read on this Conn wakes up with EOF.  The
// descriptor itself stays allocated until Close.  Streams without
// half-close support are closed outright.
func (c *Conn) Shutdown() {
	c.dead.Store(true)
	c.shutOnce.Do(func() {
		if hc, ok := c.Conn.(halfCloser); ok {
			hc.CloseRead()  //nolint:errcheck
			hc.CloseWrite() //nolint:errcheck
			return
		}
		c.Conn.Close() //nolint:errcheck
	})
}

// Close releases the socket.  Only the first call does anything; later
// calls, and closing a socket that was already shut down, return nil.
func (c *Conn) Close() error {
	c.dead.Store(true)
	var err error
	c.closeOnce.Do(func() {
		err = c.Conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}
