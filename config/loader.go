package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every supported environment variable.
const EnvPrefix = "GORELAY_"

// ── Environment variable mapping ─────────────────────────────────────
//
// Boolean values accept "1", "true", "yes" (case-insensitive).
// Durations accept Go syntax ("250ms", "10s") or plain seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed values override the existing value.  Call it before CLI
// flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	// Listener
	if v := env("BIND"); v != "" {
		cfg.BindHost = v
	}
	if v := envInt("PORT"); v > 0 {
		cfg.BindPort = v
	}

	// Target
	if v := env("TARGET_HOST"); v != "" {
		cfg.TargetHost = v
	}
	if v := envInt("TARGET_PORT"); v > 0 {
		cfg.TargetPort = v
	}
	if envBool("NO_DNS") {
		cfg.NoDNS = true
	}
	if v := envDuration("CONNECT_TIMEOUT"); v > 0 {
		cfg.ConnectTimeout = v
	}

	// Relay engine
	if v := envInt("BUFFER_SIZE"); v > 0 {
		cfg.BufferSize = v
	}
	if v := envDuration("RETRY_INITIAL"); v > 0 {
		cfg.RetryInitial = v
	}
	if v := envDuration("RETRY_MAX"); v > 0 {
		cfg.RetryMax = v
	}
	if v, ok := envIntOK("BREAKER_FAILURES"); ok && v >= 0 {
		cfg.BreakerFailures = v
	}
	if v := envDuration("BREAKER_RESET"); v > 0 {
		cfg.BreakerReset = v
	}

	// SSH gateway
	if v := env("TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := env("SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	// The value itself is read by the tunnel package at auth time.
	if _, ok := os.LookupEnv(EnvPrefix + "SSH_PASSWORD"); ok {
		cfg.SSHPassword = true
	}
	if envBool("SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := env("KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if v, ok := envIntOK("KEEP_ALIVE"); ok && v >= 0 {
		cfg.KeepAliveInterval = v
	}

	// Output
	if v, ok := envIntOK("VERBOSE"); ok && v >= 0 {
		cfg.Verbose = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if envBool("TIMESTAMPS") {
		cfg.Timestamps = true
	}
	if envBool("STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func env(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func envIntOK(key string) (int, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt(key string) int {
	n, _ := envIntOK(key)
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(env(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := env(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return 0
}
