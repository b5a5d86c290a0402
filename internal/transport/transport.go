// Package transport opens the relay's outbound leg.  A Dialer hides
// whether the target is reached directly over TCP or through an SSH
// gateway; either way the relay only sees a net.Conn carrying opaque
// bytes.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections to the relay target.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
