package core

import (
	"context"
	"fmt"
	"net"
	"time"

	ncerr "gorelay/internal/errors"
	"gorelay/internal/metrics"
	"gorelay/internal/relay"
	"gorelay/internal/retry"
	"gorelay/internal/session"
	"gorelay/internal/transport"
	"gorelay/util"
)

// drainTimeout bounds how long a finished session waits for its second
// edge once both sockets are closed.
const drainTimeout = 2 * time.Second

// RelayMode is the single-session relay: it connects to the target
// first, then waits for one client, relays between the two until either
// side hangs up, and starts over.  Only one session exists at a time;
// a second client queues in the listener backlog until the current
// session ends.
type RelayMode struct {
	ListenAddress string // "host:port"
	TargetAddress string // "host:port"
	Dialer        transport.Dialer
	BufferSize    int
	Backoff       *retry.Backoff
	Breaker       *retry.CircuitBreaker
	Metrics       *metrics.Collector
	Logger        *util.Logger

	// Listener, if set, is used instead of binding ListenAddress.
	Listener net.Listener
	// LogStats logs a metrics snapshot when Run returns.
	LogStats bool

	pool *util.BufPool
}

// Run binds the listener and serves sessions until ctx is cancelled.
// A bind failure is returned immediately; any failure inside a session
// iteration is logged and the loop starts a fresh iteration.
func (m *RelayMode) Run(ctx context.Context) error {
	ln := m.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", m.ListenAddress)
		if err != nil {
			return ncerr.Wrap("listen", m.ListenAddress, err)
		}
	}
	defer ln.Close()

	if m.Dialer == nil {
		m.Dialer = &transport.TCPDialer{}
	}
	defer m.Dialer.Close()

	if m.Backoff == nil {
		m.Backoff = retry.ConnectBackoff()
	}
	if m.BufferSize <= 0 {
		m.BufferSize = util.DefaultBufSize
	}
	m.pool = util.NewBufPool(m.BufferSize)
	if m.LogStats {
		defer func() { m.Logger.Info("stats %s", m.Metrics.JSON()) }()
	}

	m.Logger.Info("listening on %s, relaying to %s", ln.Addr(), m.TargetAddress)

	// Shut the listener down when the context expires.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	for {
		err := m.serve(ctx, ln)
		if ctx.Err() != nil {
			m.Logger.Verbose("relay stopped")
			return nil
		}
		if err != nil {
			if ncerr.Is(err, ncerr.ErrListenerClosed) {
				return err
			}
			m.Logger.Error("%v", err)
			m.Metrics.RecordError(err.Error())
		}
		m.Logger.Info("session restarting")
	}
}

// serve runs one iteration: target connect, client accept, relay, and
// cleanup of both sockets however the iteration ends.
func (m *RelayMode) serve(ctx context.Context, ln net.Listener) error {
	target, err := m.connectTarget(ctx)
	if err != nil {
		return err
	}

	m.Logger.Info("waiting for client on %s", ln.Addr())
	clientRaw, err := ln.Accept()
	if err != nil {
		target.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.Metrics.AcceptFailed()
		if ncerr.IsClosed(err) {
			return fmt.Errorf("%w: %v", ncerr.ErrListenerClosed, err)
		}
		return ncerr.Wrap("accept", ln.Addr().String(), err)
	}
	m.Metrics.ConnectionOpened()
	client := relay.NewConn(clientRaw, "client", m.Metrics.ConnectionClosed)
	m.Logger.Info("client connected from %s", clientRaw.RemoteAddr())

	sess := session.New(client, target, m.pool, m.Metrics, m.Logger)
	defer m.drain(sess)
	return sess.Run(ctx)
}

// drain closes the session and waits, up to drainTimeout, for the
// slower edge to exit so that no pump outlives its iteration.
func (m *RelayMode) drain(sess *session.Session) {
	sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		m.Logger.Warn("session %s: edge still running after %v", sess.ID, drainTimeout)
	}
}

// connectTarget dials the target until it answers.  Failures are
// logged and retried on the backoff schedule; only cancellation ends
// the loop.
func (m *RelayMode) connectTarget(ctx context.Context) (*relay.Conn, error) {
	var conn net.Conn
	start := time.Now()

	err := m.Backoff.Do(ctx, func(attempt int) error {
		if err := ctx.Err(); err != nil {
			return retry.Permanent(err)
		}
		err := m.Breaker.Execute(func() error {
			c, err := m.Dialer.Dial(ctx, "tcp", m.TargetAddress)
			if err != nil {
				return err
			}
			conn = c
			return nil
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		if !ncerr.Is(err, ncerr.ErrCircuitOpen) {
			m.Metrics.DialFailed()
		}
		m.Logger.Warn("connect to %s failed (attempt %d): %v", m.TargetAddress, attempt, err)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.Metrics.ConnectionOpened()
	m.Logger.Info("connected to target %s (%v)", m.TargetAddress, time.Since(start).Truncate(time.Millisecond))
	return relay.NewConn(conn, "target", m.Metrics.ConnectionClosed), nil
}
