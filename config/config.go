// Package config defines the runtime configuration for gorelay and
// provides helpers for parsing ports and SSH gateway specifications.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	ncerr "gorelay/internal/errors"
	"gorelay/util"
)

// Config holds every tuneable of a relay process.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	BindHost string // empty → first address of the local host name
	BindPort int

	// ── Target ───────────────────────────────────────────────────────
	TargetHost     string
	TargetPort     int
	NoDNS          bool
	ConnectTimeout time.Duration // 0 → no per-attempt limit

	// ── Relay engine ─────────────────────────────────────────────────
	BufferSize      int
	RetryInitial    time.Duration
	RetryMax        time.Duration
	BreakerFailures int // 0 disables the breaker
	BreakerReset    time.Duration

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec        string // raw [user@]host[:port] from -T
	TunnelEnabled     bool
	TunnelUser        string
	TunnelHost        string
	TunnelPort        int
	SSHKeyPath        string
	SSHPassword       bool // true → password auth
	UseSSHAgent       bool
	StrictHostKey     bool
	KnownHostsPath    string
	KeepAliveInterval int // seconds, 0 disables

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Quiet      bool
	LogFormat  string
	Timestamps bool
	Stats      bool
	DryRun     bool
}

// New returns a Config populated with the defaults.
func New() *Config {
	return &Config{
		BindPort:          DefaultListenPort,
		TargetHost:        DefaultTargetHost,
		TargetPort:        DefaultTargetPort,
		BufferSize:        DefaultBufferSize,
		RetryInitial:      DefaultRetryInitial,
		RetryMax:          DefaultRetryMax,
		BreakerFailures:   DefaultBreakerFailures,
		BreakerReset:      DefaultBreakerReset,
		KeepAliveInterval: DefaultKeepAliveInterval,
		Verbose:           DefaultVerbosity,
		LogFormat:         string(util.FormatText),
	}
}

// TargetAddress is the target as a dialable host:port.
func (c *Config) TargetAddress() string {
	return util.FormatAddr(c.TargetHost, c.TargetPort)
}

// Verbosity is the effective log level after --quiet.
func (c *Config) Verbosity() int {
	if c.Quiet {
		return 0
	}
	return c.Verbose
}

// ── Port helper ──────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec, if any, into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error(),
			Hint: "use -T user@gateway[:port]"}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

func validPort(p int) bool { return p >= 1 && p <= 65535 }

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if !validPort(c.BindPort) {
		return &ncerr.ConfigError{Field: "port", Value: c.BindPort, Message: "out of range 1-65535"}
	}
	if c.TargetHost == "" {
		return &ncerr.ConfigError{Field: "target", Message: "target host is required",
			Hint: "pass the target as positional arguments: gorelay <host> <port>"}
	}
	if !validPort(c.TargetPort) {
		return &ncerr.ConfigError{Field: "target", Value: c.TargetPort, Message: "target port out of range 1-65535"}
	}
	if c.NoDNS {
		if net.ParseIP(c.TargetHost) == nil {
			return &ncerr.ConfigError{Field: "no-dns", Value: c.TargetHost,
				Message: "target is not an IP address", Hint: "drop -n to allow name resolution"}
		}
		if c.BindHost != "" && net.ParseIP(c.BindHost) == nil {
			return &ncerr.ConfigError{Field: "bind", Value: c.BindHost,
				Message: "bind host is not an IP address", Hint: "drop -n to allow name resolution"}
		}
	}
	if c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize {
		return &ncerr.ConfigError{Field: "buffer-size", Value: c.BufferSize,
			Message: fmt.Sprintf("must be between %d and %d", MinBufferSize, MaxBufferSize),
			Hint:    fmt.Sprintf("the default is %d", DefaultBufferSize)}
	}
	if c.ConnectTimeout < 0 {
		return &ncerr.ConfigError{Field: "connect-timeout", Value: c.ConnectTimeout, Message: "must not be negative"}
	}
	if c.RetryInitial <= 0 || c.RetryMax < c.RetryInitial {
		return &ncerr.ConfigError{Field: "retry-max", Value: c.RetryMax,
			Message: fmt.Sprintf("must be at least --retry-initial (%v)", c.RetryInitial)}
	}
	if c.BreakerFailures < 0 {
		return &ncerr.ConfigError{Field: "breaker-failures", Value: c.BreakerFailures,
			Message: "must not be negative", Hint: "0 disables the breaker"}
	}
	if _, err := util.ParseFormat(c.LogFormat); err != nil {
		return &ncerr.ConfigError{Field: "log-format", Value: c.LogFormat, Message: err.Error(),
			Hint: "use text or json"}
	}

	if c.TunnelEnabled {
		if c.TunnelHost == "" {
			return &ncerr.ConfigError{Field: "tunnel", Message: "gateway host is required",
				Hint: "use -T user@gateway[:port]"}
		}
		if c.TunnelUser == "" {
			return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "gateway user is required",
				Hint: "use -T user@gateway[:port]"}
		}
		if c.KeepAliveInterval < 0 {
			return &ncerr.ConfigError{Field: "keep-alive", Value: c.KeepAliveInterval, Message: "must not be negative"}
		}
	}
	return nil
}
