package core

import (
	"fmt"
	"time"

	"gorelay/config"
	"gorelay/internal/metrics"
	"gorelay/internal/retry"
	"gorelay/internal/transport"
	"gorelay/tunnel"
	"gorelay/util"
)

// Build constructs the relay mode from the given configuration.  The
// bind address, and for a direct relay the target, are resolved here,
// once; later sessions reuse the result.
func Build(cfg *config.Config, logger *util.Logger) (*RelayMode, error) {
	listen, err := util.LocalBindAddress(cfg.BindHost, cfg.BindPort, cfg.NoDNS)
	if err != nil {
		return nil, fmt.Errorf("resolve bind address: %w", err)
	}

	// Through a gateway the name is resolved on the far side.
	target := cfg.TargetAddress()
	if !cfg.TunnelEnabled {
		addrs, err := util.LookupHost(cfg.TargetHost, cfg.NoDNS)
		if err != nil {
			return nil, fmt.Errorf("resolve target: %w", err)
		}
		target = util.FormatAddr(addrs[0], cfg.TargetPort)
	}

	m := metrics.New()
	return &RelayMode{
		ListenAddress: listen,
		TargetAddress: target,
		Dialer:        buildDialer(cfg, m, logger),
		BufferSize:    cfg.BufferSize,
		Backoff:       buildBackoff(cfg),
		Breaker:       buildBreaker(cfg, logger),
		Metrics:       m,
		Logger:        logger,
		LogStats:      cfg.Stats,
	}, nil
}

// Describe returns the resolved plan, one item per line, for --dry-run.
func (m *RelayMode) Describe() string {
	via := "direct"
	if d, ok := m.Dialer.(*transport.SSHDialer); ok {
		via = "ssh gateway " + d.Gateway()
	}
	breaker := "off"
	if m.Breaker != nil {
		breaker = "on"
	}
	return fmt.Sprintf("listen   %s\ntarget   %s (%s)\nbuffer   %d bytes\nretry    %v..%v\nbreaker  %s\n",
		m.ListenAddress, m.TargetAddress, via, m.BufferSize,
		m.Backoff.InitialDelay, m.Backoff.MaxDelay, breaker)
}

// ── helpers ──────────────────────────────────────────────────────────

// buildDialer creates the transport.Dialer for the target leg.
func buildDialer(cfg *config.Config, m *metrics.Collector, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		d := transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultSSHConnTimeout,
			KeepAlive:     time.Duration(cfg.KeepAliveInterval) * time.Second,
		}, logger)
		d.Metrics = m
		return d
	}
	return &transport.TCPDialer{Timeout: cfg.ConnectTimeout}
}

func buildBackoff(cfg *config.Config) *retry.Backoff {
	b := retry.ConnectBackoff()
	if cfg.RetryInitial > 0 {
		b.InitialDelay = cfg.RetryInitial
	}
	if cfg.RetryMax > 0 {
		b.MaxDelay = cfg.RetryMax
	}
	return b
}

// buildBreaker returns nil when the breaker is disabled.
func buildBreaker(cfg *config.Config, logger *util.Logger) *retry.CircuitBreaker {
	if cfg.BreakerFailures <= 0 {
		return nil
	}
	return retry.NewCircuitBreaker(&retry.CircuitBreakerConfig{
		MaxFailures:  cfg.BreakerFailures,
		ResetTimeout: cfg.BreakerReset,
		HalfOpenMax:  1,
		OnStateChange: func(from, to retry.State) {
			if to == retry.StateOpen {
				logger.Warn("target breaker %s → %s, pausing connects for %v", from, to, cfg.BreakerReset)
				return
			}
			logger.Verbose("target breaker %s → %s", from, to)
		},
	})
}
