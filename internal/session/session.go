// Package session binds one accepted client to one connected target and
// runs the two relay edges between them until either side hangs up.
//
// A session is strictly one-shot: it is created after both legs exist,
// Run returns when the first edge finishes, and Close releases both
// sockets.  The orchestrator never runs two sessions at once.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gorelay/internal/metrics"
	"gorelay/internal/relay"
	"gorelay/util"
)

// Session encapsulates the runtime state of one client/target pairing.
type Session struct {
	ID     string
	Client *relay.Conn
	Target *relay.Conn
	Logger *util.Logger

	// Lock, if set, replaces the process-wide write lock for this
	// session's edges.
	Lock sync.Locker

	pool    *util.BufPool
	metrics *metrics.Collector
	gate    *relay.Gate
	up      *relay.Edge
	down    *relay.Edge

	started   time.Time
	closeOnce sync.Once
}

// New creates a Session for an already-connected pair.  pool and m may
// be nil.
func New(client, target *relay.Conn, pool *util.BufPool, m *metrics.Collector, logger *util.Logger) *Session {
	if pool == nil {
		pool = util.NewBufPool(util.DefaultBufSize)
	}
	id := uuid.NewString()[:8]
	return &Session{
		ID:      id,
		Client:  client,
		Target:  target,
		Logger:  logger.With("session", id),
		pool:    pool,
		metrics: m,
		gate:    relay.NewGate(relay.EdgesPerSession),
	}
}

// Run starts both edges and blocks until the first of them finishes.
// The other edge is woken by the shutdown its sibling issued and exits
// on its own; Run does not wait for it.
func (s *Session) Run(ctx context.Context) error {
	s.started = time.Now()
	s.metrics.SessionOpened()

	s.up = s.edge("client->target", s.Client, s.Target, s.metrics.BytesUpstream)
	s.down = s.edge("target->client", s.Target, s.Client, s.metrics.BytesDownstream)

	s.Logger.Info("starting edges")
	if err := s.up.Start(ctx); err != nil {
		return err
	}
	if err := s.down.Start(ctx); err != nil {
		s.Client.Shutdown()
		s.Target.Shutdown()
		return err
	}

	// Both permits are out; this acquire returns when the first edge
	// hands its permit back.
	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	s.Logger.Verbose("edge finished, ending session")
	return nil
}

func (s *Session) edge(label string, src, dst *relay.Conn, count func(int64)) *relay.Edge {
	e := relay.NewEdge(label, src, dst, s.gate, s.Logger)
	e.Pool = s.pool
	e.Lock = s.Lock
	e.OnForward = count
	return e
}

// Wait blocks until both edges have exited, or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	for _, e := range []*relay.Edge{s.up, s.down} {
		if e == nil {
			continue
		}
		select {
		case <-e.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close releases both sockets, target first.  Only the first call does
// anything.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Target.Close() //nolint:errcheck
		s.Client.Close() //nolint:errcheck

		var up, down int64
		if s.up != nil {
			up = s.up.Forwarded()
		}
		if s.down != nil {
			down = s.down.Forwarded()
		}
		if !s.started.IsZero() {
			s.metrics.SessionClosed()
			s.Logger.Info("session closed after %v (up=%d down=%d)",
				time.Since(s.started).Truncate(time.Millisecond), up, down)
		}
	})
}
