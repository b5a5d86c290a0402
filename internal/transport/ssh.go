package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"gorelay/internal/metrics"
	"gorelay/tunnel"
	"gorelay/util"
)

// SSHDialer routes target connections through an SSH gateway.  The
// gateway is connected lazily on the first Dial, and again on any later
// Dial that finds it dead.
type SSHDialer struct {
	// Metrics, if set, counts gateway reconnections.
	Metrics *metrics.Collector

	tunnel tunnel.Tunnel
	config *tunnel.SSHConfig
	logger *util.Logger
	mu     sync.Mutex
	dialed bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH gateway.  Nothing is dialed until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		tunnel: tunnel.NewSSHTunnel(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

// connect brings the gateway up if it is not alive.
func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tunnel.IsAlive() {
		return nil
	}

	if d.dialed {
		d.logger.Warn("SSH gateway %s@%s lost, reconnecting", d.config.User, d.config.Addr())
		d.Metrics.TunnelReconnect()
	} else {
		d.logger.Verbose("establishing SSH gateway to %s@%s", d.config.User, d.config.Addr())
	}

	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	d.dialed = true
	d.logger.Verbose("SSH gateway established")
	return nil
}

// Dial connects to address through the SSH gateway.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the gateway connection.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tunnel.Close()
}

// Gateway returns the gateway as user@host:port.
func (d *SSHDialer) Gateway() string {
	return d.config.User + "@" + d.config.Addr()
}
