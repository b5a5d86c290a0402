// Package tunnel reaches the relay target through an SSH gateway.  The
// gateway connection is made with golang.org/x/crypto/ssh and each
// target connection is a direct-tcpip channel on it.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which target
// connections are forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}
