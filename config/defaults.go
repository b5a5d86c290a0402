package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultListenPort is the port clients connect to.
	DefaultListenPort = 8010

	// DefaultTargetHost and DefaultTargetPort locate the relayed
	// service.
	DefaultTargetHost = "127.0.1.1"
	DefaultTargetPort = 9999

	// DefaultBufferSize is the per-edge read buffer.
	DefaultBufferSize = 2048

	// MinBufferSize and MaxBufferSize bound --buffer-size.
	MinBufferSize = 64
	MaxBufferSize = 1 << 20

	// DefaultRetryInitial and DefaultRetryMax bound the backoff between
	// failed target connects.
	DefaultRetryInitial = 250 * time.Millisecond
	DefaultRetryMax     = 10 * time.Second

	// DefaultBreakerFailures consecutive connect failures open the
	// breaker for DefaultBreakerReset.
	DefaultBreakerFailures = 5
	DefaultBreakerReset    = 15 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHConnTimeout bounds the SSH gateway handshake.
	DefaultSSHConnTimeout = 30 * time.Second

	// DefaultKeepAliveInterval is the SSH keepalive interval in seconds.
	DefaultKeepAliveInterval = 30

	// DefaultVerbosity prints INF/WRN lines.
	DefaultVerbosity = 1
)
