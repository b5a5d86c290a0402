// Package metrics provides lightweight, lock-free counters for tracking
// runtime statistics of the relay.  Counters are only ever rendered into
// log lines; there is no export endpoint.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a relay process.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	sessionsActive    atomic.Int64
	sessionsTotal     atomic.Int64
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesUp           atomic.Int64
	bytesDown         atomic.Int64
	dialFailures      atomic.Int64
	acceptFailures    atomic.Int64
	tunnelReconnects  atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total session counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the number of sessions currently relaying.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open sockets
// (client and target legs both count).
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesUpstream records n bytes relayed client → target.
func (c *Collector) BytesUpstream(n int64) {
	if c == nil {
		return
	}
	c.bytesUp.Add(n)
}

// BytesDownstream records n bytes relayed target → client.
func (c *Collector) BytesDownstream(n int64) {
	if c == nil {
		return
	}
	c.bytesDown.Add(n)
}

// TotalBytesUp returns total bytes relayed towards the target.
func (c *Collector) TotalBytesUp() int64 {
	if c == nil {
		return 0
	}
	return c.bytesUp.Load()
}

// TotalBytesDown returns total bytes relayed towards clients.
func (c *Collector) TotalBytesDown() int64 {
	if c == nil {
		return 0
	}
	return c.bytesDown.Load()
}

// ── Failure metrics ──────────────────────────────────────────────────

// DialFailed records a failed target connect attempt.
func (c *Collector) DialFailed() {
	if c == nil {
		return
	}
	c.dialFailures.Add(1)
}

// DialFailures returns the number of failed target connects.
func (c *Collector) DialFailures() int64 {
	if c == nil {
		return 0
	}
	return c.dialFailures.Load()
}

// AcceptFailed records a failed accept on the listener.
func (c *Collector) AcceptFailed() {
	if c == nil {
		return
	}
	c.acceptFailures.Add(1)
}

// AcceptFailures returns the number of failed accepts.
func (c *Collector) AcceptFailures() int64 {
	if c == nil {
		return 0
	}
	return c.acceptFailures.Load()
}

// TunnelReconnect records an SSH gateway reconnection.
func (c *Collector) TunnelReconnect() {
	if c == nil {
		return
	}
	c.tunnelReconnects.Add(1)
}

// TunnelReconnects returns the total SSH gateway reconnection count.
func (c *Collector) TunnelReconnects() int64 {
	if c == nil {
		return 0
	}
	return c.tunnelReconnects.Load()
}

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	SessionsActive    int64  `json:"sessions_active"`
	SessionsTotal     int64  `json:"sessions_total"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	BytesUp           int64  `json:"bytes_up"`
	BytesDown         int64  `json:"bytes_down"`
	DialFailures      int64  `json:"dial_failures"`
	AcceptFailures    int64  `json:"accept_failures"`
	TunnelReconnects  int64  `json:"tunnel_reconnects"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:    c.sessionsActive.Load(),
		SessionsTotal:     c.sessionsTotal.Load(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		BytesUp:           c.bytesUp.Load(),
		BytesDown:         c.bytesDown.Load(),
		DialFailures:      c.dialFailures.Load(),
		AcceptFailures:    c.acceptFailures.Load(),
		TunnelReconnects:  c.tunnelReconnects.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a single-line JSON string, suitable for
// a log line.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.Marshal(s)
	return string(data)
}
