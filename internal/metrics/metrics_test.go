package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	if c.ActiveSessions() != 1 || c.TotalSessions() != 1 {
		t.Fatalf("active=%d total=%d, want 1/1", c.ActiveSessions(), c.TotalSessions())
	}
	c.SessionClosed()
	c.SessionOpened()
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total = %d, want 2", c.TotalSessions())
	}
}

func TestCollector_Connections(t *testing.T) {
	c := New()

	c.ConnectionOpened()
	c.ConnectionOpened()
	if c.ActiveConnections() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveConnections())
	}
	if c.TotalConnections() != 2 {
		t.Errorf("total = %d, want 2", c.TotalConnections())
	}

	c.ConnectionClosed()
	if c.ActiveConnections() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveConnections())
	}
	if c.TotalConnections() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalConnections())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesUpstream(1024)
	c.BytesDownstream(512)
	c.BytesUpstream(100)

	if c.TotalBytesUp() != 1124 {
		t.Errorf("bytes up = %d, want 1124", c.TotalBytesUp())
	}
	if c.TotalBytesDown() != 512 {
		t.Errorf("bytes down = %d, want 512", c.TotalBytesDown())
	}
}

func TestCollector_Failures(t *testing.T) {
	c := New()

	c.DialFailed()
	c.DialFailed()
	c.AcceptFailed()
	c.TunnelReconnect()

	if c.DialFailures() != 2 {
		t.Errorf("dial failures = %d, want 2", c.DialFailures())
	}
	if c.AcceptFailures() != 1 {
		t.Errorf("accept failures = %d, want 1", c.AcceptFailures())
	}
	if c.TunnelReconnects() != 1 {
		t.Errorf("reconnects = %d, want 1", c.TunnelReconnects())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	if got := c.Snapshot().LastErrorMessage; got != "second error" {
		t.Errorf("last error = %q", got)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.ConnectionOpened()
				c.BytesUpstream(1)
				c.ConnectionClosed()
			}
		}()
	}
	wg.Wait()

	if c.ActiveConnections() != 0 {
		t.Errorf("active = %d, want 0", c.ActiveConnections())
	}
	if c.TotalBytesUp() != 8000 {
		t.Errorf("bytes up = %d, want 8000", c.TotalBytesUp())
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.ConnectionOpened()
	c.BytesDownstream(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 || snap.ConnectionsActive != 1 {
		t.Errorf("JSON sessions=%d conns=%d", snap.SessionsActive, snap.ConnectionsActive)
	}
	if snap.BytesDown != 42 {
		t.Errorf("JSON bytes down = %d", snap.BytesDown)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionOpened()
	c.SessionClosed()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.BytesUpstream(100)
	c.BytesDownstream(100)
	c.DialFailed()
	c.AcceptFailed()
	c.TunnelReconnect()
	c.RecordError("test")

	if c.ActiveConnections() != 0 || c.TotalSessions() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TotalBytesUp() != 0 || c.DialFailures() != 0 {
		t.Error("nil collector should return 0")
	}

	if snap := c.Snapshot(); snap.ConnectionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}
	if c.JSON() == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
