package transport

import (
	"context"
	"net"
	"time"

	ncerr "gorelay/internal/errors"
)

// TCPDialer connects straight to the target.  A zero Timeout leaves the
// connect unbounded apart from ctx and the operating system's own limit.
type TCPDialer struct {
	Timeout time.Duration
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
