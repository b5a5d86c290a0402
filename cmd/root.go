// Package cmd wires up the CLI flags and dispatches to the relay core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"gorelay/config"
	"gorelay/internal/core"
	ncerr "gorelay/internal/errors"
	"gorelay/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gorelay/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the relay until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	cfg := config.New()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("gorelay", flag.ContinueOnError)

	// Environment values become the flag defaults, so an explicit flag
	// always wins.

	// ── listener ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.BindHost, "bind", "b", cfg.BindHost, "Bind address (default: this host's first address)")
	fs.IntVarP(&cfg.BindPort, "port", "p", cfg.BindPort, "Listen port")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")

	// ── target ───────────────────────────────────────────────────
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "Per-attempt target connect timeout (0 = none)")
	fs.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "Read buffer per direction, in bytes")
	fs.DurationVar(&cfg.RetryInitial, "retry-initial", cfg.RetryInitial, "First delay after a failed target connect")
	fs.DurationVar(&cfg.RetryMax, "retry-max", cfg.RetryMax, "Longest delay between target connects")
	fs.IntVar(&cfg.BreakerFailures, "breaker-failures", cfg.BreakerFailures, "Consecutive connect failures that pause dialing (0 = off)")
	fs.DurationVar(&cfg.BreakerReset, "breaker-reset", cfg.BreakerReset, "How long dialing stays paused")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the target via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Use SSH password auth (prompt or $GORELAY_SSH_PASSWORD)")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	fs.IntVar(&cfg.KeepAliveInterval, "keep-alive", cfg.KeepAliveInterval, "SSH keepalive interval in seconds (0 = off)")

	// ── output ───────────────────────────────────────────────────
	var verbose int
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Only log errors")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	fs.BoolVar(&cfg.Timestamps, "timestamps", cfg.Timestamps, "Prefix log lines with the time")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Log a counters snapshot on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate and print the plan without binding")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "gorelay %s\n", version)
		return nil
	}
	if verbose > 0 {
		cfg.Verbose = config.DefaultVerbosity + verbose
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	if err := cfg.ApplyTunnelSpec(); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Fprint(stdout, mode.Describe())
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts nothing (default target) or "host port".
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		return nil
	case 2:
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return &ncerr.ConfigError{Field: "target", Value: remaining[1], Message: err.Error()}
		}
		cfg.TargetHost = remaining[0]
		cfg.TargetPort = port
		return nil
	default:
		return &ncerr.ConfigError{Field: "target", Value: remaining,
			Message: "expected a host and a port", Hint: "gorelay [options] [<host> <port>]"}
	}
}

func buildLogger(cfg *config.Config) (*util.Logger, error) {
	format, err := util.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logger := util.NewLogger(cfg.Verbosity())
	logger.SetFormat(format)
	logger.SetTimestamps(cfg.Timestamps)
	return logger, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gorelay – single-session TCP relay v%s

Accepts one client at a time and relays its bytes, unaltered, to a
fixed target.  The target is connected before the client is accepted.

Usage:
  gorelay [options] [<host> <port>]           Relay to host:port (default %s:%d)

Options:
`, version, config.DefaultTargetHost, config.DefaultTargetPort)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  gorelay                                     :%d → %s:%d
  gorelay -b 0.0.0.0 -p 7000 db.internal 5432 Expose a database
  gorelay -T ops@bastion 10.0.0.7 22          Target behind a gateway
  gorelay -vv --log-format json               Trace every edge as JSON
`, config.DefaultListenPort, config.DefaultTargetHost, config.DefaultTargetPort)
}
