package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Listener(t *testing.T) {
	t.Setenv("GORELAY_BIND", "10.0.0.5")
	t.Setenv("GORELAY_PORT", "8080")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.BindHost != "10.0.0.5" {
		t.Errorf("BindHost = %q, want 10.0.0.5", cfg.BindHost)
	}
	if cfg.BindPort != 8080 {
		t.Errorf("BindPort = %d, want 8080", cfg.BindPort)
	}
}

func TestLoadFromEnv_Target(t *testing.T) {
	t.Setenv("GORELAY_TARGET_HOST", "db.internal")
	t.Setenv("GORELAY_TARGET_PORT", "5432")
	cfg := New()
	LoadFromEnv(cfg)
	if got := cfg.TargetAddress(); got != "db.internal:5432" {
		t.Errorf("TargetAddress = %q", got)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key   string
		value string
		get   func(c *Config) bool
	}{
		{"GORELAY_NO_DNS", "1", func(c *Config) bool { return c.NoDNS }},
		{"GORELAY_NO_DNS", "TRUE", func(c *Config) bool { return c.NoDNS }},
		{"GORELAY_SSH_AGENT", "yes", func(c *Config) bool { return c.UseSSHAgent }},
		{"GORELAY_STRICT_HOSTKEY", "Yes", func(c *Config) bool { return c.StrictHostKey }},
		{"GORELAY_TIMESTAMPS", "true", func(c *Config) bool { return c.Timestamps }},
		{"GORELAY_STATS", "1", func(c *Config) bool { return c.Stats }},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := New()
			LoadFromEnv(cfg)
			if !tt.get(cfg) {
				t.Errorf("%s=%s did not set the field", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_Durations(t *testing.T) {
	t.Setenv("GORELAY_CONNECT_TIMEOUT", "5")
	t.Setenv("GORELAY_RETRY_INITIAL", "100ms")
	t.Setenv("GORELAY_RETRY_MAX", "2s")
	t.Setenv("GORELAY_BREAKER_RESET", "bogus")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout = %v, want 5s", cfg.ConnectTimeout)
	}
	if cfg.RetryInitial != 100*time.Millisecond || cfg.RetryMax != 2*time.Second {
		t.Errorf("retry = %v..%v", cfg.RetryInitial, cfg.RetryMax)
	}
	if cfg.BreakerReset != DefaultBreakerReset {
		t.Errorf("malformed duration should be ignored, got %v", cfg.BreakerReset)
	}
}

func TestLoadFromEnv_SSHFields(t *testing.T) {
	t.Setenv("GORELAY_TUNNEL", "admin@bastion:2222")
	t.Setenv("GORELAY_SSH_KEY", "/home/user/.ssh/id_rsa")
	t.Setenv("GORELAY_SSH_PASSWORD", "hunter2")
	t.Setenv("GORELAY_KNOWN_HOSTS", "/tmp/known_hosts")
	t.Setenv("GORELAY_KEEP_ALIVE", "0")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.TunnelSpec != "admin@bastion:2222" {
		t.Errorf("TunnelSpec = %q", cfg.TunnelSpec)
	}
	if cfg.SSHKeyPath != "/home/user/.ssh/id_rsa" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if !cfg.SSHPassword {
		t.Error("a password in the environment should enable password auth")
	}
	if cfg.KnownHostsPath != "/tmp/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
	if cfg.KeepAliveInterval != 0 {
		t.Errorf("KeepAliveInterval = %d, want 0", cfg.KeepAliveInterval)
	}
}

func TestLoadFromEnv_Relay(t *testing.T) {
	t.Setenv("GORELAY_BUFFER_SIZE", "4096")
	t.Setenv("GORELAY_BREAKER_FAILURES", "0")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, want 4096", cfg.BufferSize)
	}
	if cfg.BreakerFailures != 0 {
		t.Errorf("BreakerFailures = %d, want 0", cfg.BreakerFailures)
	}
}

func TestLoadFromEnv_NoOverrideWhenEmpty(t *testing.T) {
	cfg := New()
	cfg.TargetHost = "original"
	cfg.BindPort = 1234
	LoadFromEnv(cfg)
	if cfg.TargetHost != "original" {
		t.Errorf("TargetHost = %q, want original", cfg.TargetHost)
	}
	if cfg.BindPort != 1234 {
		t.Errorf("BindPort = %d, want 1234", cfg.BindPort)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("GORELAY_PORT", "not-a-number")
	t.Setenv("GORELAY_VERBOSE", "loud")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.BindPort != DefaultListenPort {
		t.Errorf("BindPort = %d, want default", cfg.BindPort)
	}
	if cfg.Verbose != DefaultVerbosity {
		t.Errorf("Verbose = %d, want default", cfg.Verbose)
	}
}

func TestLoadFromEnv_Output(t *testing.T) {
	t.Setenv("GORELAY_VERBOSE", "3")
	t.Setenv("GORELAY_LOG_FORMAT", "json")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}
